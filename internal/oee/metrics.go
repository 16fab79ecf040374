package oee

import (
	"fmt"
	"strconv"
)

// Metrics is one computed OEE result for a filter selection, as returned by
// the backend. Every field is a percentage; values are carried as received
// and never clamped.
type Metrics struct {
	OEE          float64 `json:"oee"`
	Availability float64 `json:"availability"`
	Performance  float64 `json:"performance"`
	Quality      float64 `json:"quality"`
}

// Component names a single figure of a Metrics snapshot.
type Component string

const (
	ComponentOEE          Component = "OEE"
	ComponentAvailability Component = "Availability"
	ComponentPerformance  Component = "Performance"
	ComponentQuality      Component = "Quality"
)

// Components lists the snapshot figures in dashboard order.
var Components = []Component{
	ComponentOEE,
	ComponentAvailability,
	ComponentPerformance,
	ComponentQuality,
}

// Value returns the figure for the given component.
func (m Metrics) Value(c Component) float64 {
	switch c {
	case ComponentOEE:
		return m.OEE
	case ComponentAvailability:
		return m.Availability
	case ComponentPerformance:
		return m.Performance
	case ComponentQuality:
		return m.Quality
	default:
		return 0
	}
}

// FormatPercent renders a figure the way the KPI cards show it.
func FormatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64) + "%"
}

func (m Metrics) String() string {
	return fmt.Sprintf("OEE %s • Availability %s • Performance %s • Quality %s",
		FormatPercent(m.OEE),
		FormatPercent(m.Availability),
		FormatPercent(m.Performance),
		FormatPercent(m.Quality),
	)
}
