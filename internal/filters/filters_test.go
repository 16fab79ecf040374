package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubFetcher struct {
	options Options
	err     error
	calls   int
}

func (s *stubFetcher) FetchFilterCatalog(ctx context.Context) (Options, error) {
	s.calls++
	return s.options, s.err
}

func sampleOptions() Options {
	return Options{
		DeviceIDs: []string{"PACK001", "PACK002"},
		Locations: []string{"PRODUCTION_LINE_1"},
		Months:    []string{"01-2024", "02-2024"},
	}
}

func TestRefreshReplacesOptions(t *testing.T) {
	fetcher := &stubFetcher{options: sampleOptions()}
	catalog := NewCatalog(fetcher, nil)

	require.NoError(t, catalog.Refresh(context.Background()))
	assert.Equal(t, 1, fetcher.calls)
	assert.Equal(t, sampleOptions(), catalog.Options())
}

func TestRefreshFailureKeepsPreviousOptions(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	fetcher := &stubFetcher{options: sampleOptions()}
	catalog := NewCatalog(fetcher, zap.New(core))
	require.NoError(t, catalog.Refresh(context.Background()))

	fetcher.err = errors.New("connection refused")
	fetcher.options = Options{DeviceIDs: []string{"SHOULD_NOT_APPEAR"}}
	err := catalog.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, sampleOptions(), catalog.Options())
	assert.Equal(t, 1, logs.Len(), "fetch failure should be logged once")
}

func TestRefreshWithoutFetcher(t *testing.T) {
	catalog := NewCatalog(nil, nil)
	assert.ErrorIs(t, catalog.Refresh(context.Background()), ErrFetchFailed)
}

func TestOptionsReturnsCopy(t *testing.T) {
	catalog := NewCatalog(nil, nil)
	catalog.Apply(sampleOptions())

	view := catalog.Options()
	view.DeviceIDs[0] = "mutated"

	assert.Equal(t, "PACK001", catalog.Options().DeviceIDs[0])
}

func TestSelectionIsNotValidated(t *testing.T) {
	catalog := NewCatalog(nil, nil)
	catalog.Apply(sampleOptions())
	assert.True(t, catalog.CurrentSelection().IsZero())

	sel := Selection{DeviceID: "NOT_IN_CATALOG", Month: "13-2099"}
	catalog.SetSelection(sel)
	assert.Equal(t, sel, catalog.CurrentSelection())
}

func TestNormalizeCollapsesDuplicates(t *testing.T) {
	in := Options{
		DeviceIDs: []string{"PACK002", "PACK001", "PACK002", ""},
		Locations: nil,
		Months:    []string{"01", "01"},
	}
	got := in.Normalize()
	assert.Equal(t, []string{"PACK002", "PACK001"}, got.DeviceIDs)
	assert.Empty(t, got.Locations)
	assert.Equal(t, []string{"01"}, got.Months)
}

func TestCycleRotatesThroughUnfiltered(t *testing.T) {
	opts := sampleOptions()
	sel := Selection{}

	sel = opts.Cycle(sel, DimensionDevice, 1)
	assert.Equal(t, "PACK001", sel.DeviceID)
	sel = opts.Cycle(sel, DimensionDevice, 1)
	assert.Equal(t, "PACK002", sel.DeviceID)
	sel = opts.Cycle(sel, DimensionDevice, 1)
	assert.Equal(t, "", sel.DeviceID, "rotation should wrap back to unfiltered")
	sel = opts.Cycle(sel, DimensionDevice, -1)
	assert.Equal(t, "PACK002", sel.DeviceID)

	sel = opts.Cycle(sel, DimensionMonth, 1)
	assert.Equal(t, Selection{DeviceID: "PACK002", Month: "01-2024"}, sel)
}

func TestCycleEmptyDimensionStaysUnfiltered(t *testing.T) {
	sel := Options{}.Cycle(Selection{}, DimensionLocation, 1)
	assert.True(t, sel.IsZero())
}

func TestSelectionString(t *testing.T) {
	sel := Selection{DeviceID: "PACK001"}
	assert.Equal(t, "device=PACK001 location=all month=all", sel.String())
	assert.Equal(t, "location", DimensionLocation.String())
}
