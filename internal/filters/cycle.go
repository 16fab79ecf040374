package filters

// Dimension names one axis of a Selection.
type Dimension int

const (
	DimensionDevice Dimension = iota
	DimensionLocation
	DimensionMonth
)

func (d Dimension) String() string {
	switch d {
	case DimensionDevice:
		return "device"
	case DimensionLocation:
		return "location"
	case DimensionMonth:
		return "month"
	default:
		return "unknown"
	}
}

// Values returns the catalog values for a dimension.
func (o Options) Values(d Dimension) []string {
	switch d {
	case DimensionDevice:
		return o.DeviceIDs
	case DimensionLocation:
		return o.Locations
	case DimensionMonth:
		return o.Months
	default:
		return nil
	}
}

// Get returns the selected value for a dimension.
func (s Selection) Get(d Dimension) string {
	switch d {
	case DimensionDevice:
		return s.DeviceID
	case DimensionLocation:
		return s.Location
	case DimensionMonth:
		return s.Month
	default:
		return ""
	}
}

// With returns a copy of s with one dimension replaced.
func (s Selection) With(d Dimension, value string) Selection {
	switch d {
	case DimensionDevice:
		s.DeviceID = value
	case DimensionLocation:
		s.Location = value
	case DimensionMonth:
		s.Month = value
	}
	return s
}

// Cycle rotates one dimension of sel through "" followed by the catalog
// values. A current value missing from the catalog restarts the rotation.
func (o Options) Cycle(sel Selection, d Dimension, step int) Selection {
	ring := append([]string{""}, o.Values(d)...)
	current := 0
	for i, v := range ring {
		if v == sel.Get(d) {
			current = i
			break
		}
	}
	next := ((current+step)%len(ring) + len(ring)) % len(ring)
	return sel.With(d, ring[next])
}
