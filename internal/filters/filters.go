package filters

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrFetchFailed marks a catalog refresh that could not reach or decode the
// backend. The previous catalog stays in place.
var ErrFetchFailed = errors.New("filter catalog fetch failed")

// Selection is the active filter triple. An empty field leaves that
// dimension unfiltered.
type Selection struct {
	DeviceID string `json:"device_id,omitempty"`
	Location string `json:"location,omitempty"`
	Month    string `json:"month,omitempty"`
}

// IsZero reports whether no dimension is filtered.
func (s Selection) IsZero() bool {
	return s == Selection{}
}

func (s Selection) String() string {
	return fmt.Sprintf("device=%s location=%s month=%s", orAll(s.DeviceID), orAll(s.Location), orAll(s.Month))
}

func orAll(v string) string {
	if v == "" {
		return "all"
	}
	return v
}

// Options holds the selectable values for each dimension.
type Options struct {
	DeviceIDs []string `json:"device_ids"`
	Locations []string `json:"locations"`
	Months    []string `json:"months"`
}

// Clone returns a deep copy.
func (o Options) Clone() Options {
	return Options{
		DeviceIDs: append([]string(nil), o.DeviceIDs...),
		Locations: append([]string(nil), o.Locations...),
		Months:    append([]string(nil), o.Months...),
	}
}

// Fetcher retrieves the catalog from the backend.
type Fetcher interface {
	FetchFilterCatalog(ctx context.Context) (Options, error)
}

// Catalog owns the fetched options and the current selection. It is not
// safe for concurrent use.
type Catalog struct {
	fetcher   Fetcher
	logger    *zap.Logger
	options   Options
	selection Selection
}

// NewCatalog returns an empty catalog backed by fetcher. A nil logger
// disables logging.
func NewCatalog(fetcher Fetcher, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{fetcher: fetcher, logger: logger}
}

// Refresh replaces the options with a fresh fetch. On failure the previous
// options are kept and an error wrapping ErrFetchFailed is returned.
func (c *Catalog) Refresh(ctx context.Context) error {
	if c.fetcher == nil {
		return c.fetchFailed(errors.New("no fetcher configured"))
	}
	options, err := c.fetcher.FetchFilterCatalog(ctx)
	if err != nil {
		return c.fetchFailed(err)
	}
	c.Apply(options)
	return nil
}

// Apply replaces the options wholesale with values fetched elsewhere.
func (c *Catalog) Apply(options Options) {
	c.options = options.Clone()
	c.logger.Debug("filter catalog replaced",
		zap.Int("devices", len(options.DeviceIDs)),
		zap.Int("locations", len(options.Locations)),
		zap.Int("months", len(options.Months)),
	)
}

// FetchFailed records a failed fetch that happened outside Refresh and
// returns the wrapped error.
func (c *Catalog) FetchFailed(err error) error {
	return c.fetchFailed(err)
}

func (c *Catalog) fetchFailed(err error) error {
	c.logger.Warn("filter catalog refresh failed; keeping previous catalog", zap.Error(err))
	return fmt.Errorf("%w: %v", ErrFetchFailed, err)
}

// Options returns a copy of the current options.
func (c *Catalog) Options() Options {
	return c.options.Clone()
}

// CurrentSelection returns the active selection.
func (c *Catalog) CurrentSelection() Selection {
	return c.selection
}

// SetSelection replaces the active selection. Values are not checked
// against the catalog; the backend decides what is valid.
func (c *Catalog) SetSelection(sel Selection) {
	c.selection = sel
}

// Normalize drops empty and repeated values, keeping first-seen order.
func (o Options) Normalize() Options {
	return Options{
		DeviceIDs: uniqueValues(o.DeviceIDs),
		Locations: uniqueValues(o.Locations),
		Months:    uniqueValues(o.Months),
	}
}

func uniqueValues(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
