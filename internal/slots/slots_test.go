package slots

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/internal/pricing"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const grid = `<html><body><div id="__next">
  <div data-resource-id="c1">
    <p class="font-medium">Court 1</p>
    <p class="text-xs">Indoor</p><p class="text-xs">Double</p>
  </div>
  <div data-resource-id="c2">
    <span class="font-medium">Court 2</span>
    <span class="text-xs">Outdoor | Single</span>
  </div>
  <div class="overflow-y-auto">
    <div data-court-id="c1" data-start-hour="18:00" data-end-hour="19:30"></div>
    <div data-court-id="c2" data-start-hour="8:00" data-end-hour="9:00"></div>
    <div data-court-id="c1" data-start-hour="23:00" data-end-hour="0:30"></div>
    <div data-court-id="" data-start-hour="10:00" data-end-hour="11:00"></div>
    <div data-court-id="c2" data-start-hour="late" data-end-hour="11:00"></div>
  </div>
</div></body></html>`

func TestHarvest(t *testing.T) {
	blocks, err := Harvest(grid, locator.Default())
	require.NoError(t, err)
	require.Len(t, blocks, 5)
	require.Equal(t, Block{ResourceID: "c2", Start: "8:00", End: "9:00"}, blocks[1])
}

func TestResources(t *testing.T) {
	res, err := Resources(grid, locator.Default())
	require.NoError(t, err)

	want := map[string]models.Resource{
		"c1": {ID: "c1", Name: "Court 1", Size: "double", Location: "indoor"},
		"c2": {ID: "c2", Name: "Court 2", Size: "single", Location: "outdoor"},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("resources mismatch (-want +got):\n%s", diff)
	}
}

func normalizer(t *testing.T, f Filter) *Normalizer {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Tallinn")
	require.NoError(t, err)

	ix := pricing.NewIndex()
	ix.Put(pricing.ExactKey("c1", "18:00", "19:30"), "30 EUR")
	ix.Put(pricing.FallbackKey("c2", "08:00"), "15 EUR")

	res, err := Resources(grid, locator.Default())
	require.NoError(t, err)

	return &Normalizer{
		VenueID:     "padel-tallinn",
		VenueName:   "Padel Tallinn",
		Date:        time.Date(2025, 10, 16, 0, 0, 0, 0, time.UTC),
		Location:    loc,
		Filter:      f,
		Prices:      ix,
		PriceSource: models.SourceResourceReplay,
		Resources:   res,
	}
}

func TestNormalize(t *testing.T) {
	blocks, err := Harvest(grid, locator.Default())
	require.NoError(t, err)

	slots, misses := normalizer(t, Filter{}).Normalize(blocks)
	require.Len(t, slots, 3)
	require.Equal(t, 1, misses)

	require.Equal(t, "08:00", slots[0].StartLocal)
	require.Equal(t, "15 EUR", slots[0].Price)
	require.Equal(t, models.SourceResourceReplay, slots[0].PriceSource)
	require.Equal(t, "Court 2", slots[0].ResourceName)
	require.Equal(t, "outdoor", slots[0].Location)

	require.Equal(t, models.Slot{
		VenueID:      "padel-tallinn",
		VenueName:    "Padel Tallinn",
		ResourceID:   "c1",
		ResourceName: "Court 1",
		Size:         "double",
		Location:     "indoor",
		Date:         "2025-10-16",
		StartLocal:   "18:00",
		EndLocal:     "19:30",
		StartMinute:  1080,
		EndMinute:    1170,
		Duration:     90,
		Start:        "2025-10-16T15:00:00Z",
		End:          "2025-10-16T16:30:00Z",
		Price:        "30 EUR",
		PriceSource:  models.SourceResourceReplay,
	}, slots[1])

	wrap := slots[2]
	require.Equal(t, 90, wrap.Duration)
	require.Equal(t, "00:30", wrap.EndLocal)
	require.Equal(t, "2025-10-16T21:30:00Z", wrap.End)
	require.Equal(t, models.PricePlaceholder, wrap.Price)
	require.Equal(t, models.SourceDOMOnly, wrap.PriceSource)
}

func TestNormalizeKeepsEndOfDayMarker(t *testing.T) {
	slots, _ := normalizer(t, Filter{}).Normalize([]Block{
		{ResourceID: "c1", Start: "23:00", End: "24:00"},
	})
	require.Len(t, slots, 1)

	last := slots[0]
	require.Equal(t, 60, last.Duration)
	require.Equal(t, "00:00", last.EndLocal)
	require.Equal(t, "2025-10-16T20:00:00Z", last.Start)
	require.Equal(t, "2025-10-16T21:00:00Z", last.End)
}

func TestNormalizeFilters(t *testing.T) {
	blocks := []Block{
		{ResourceID: "c1", Start: "17:30", End: "19:00"},
		{ResourceID: "c1", Start: "18:00", End: "19:00"},
		{ResourceID: "c1", Start: "18:00", End: "19:30"},
		{ResourceID: "c1", Start: "21:00", End: "22:30"},
		{ResourceID: "c1", Start: "20:00", End: "20:00"},
	}

	f, err := ParseFilter(90, "18:00", "20:00")
	require.NoError(t, err)
	slots, _ := normalizer(t, f).Normalize(blocks)

	var starts []string
	for _, s := range slots {
		starts = append(starts, s.StartLocal)
	}
	require.Equal(t, []string{"18:00", "20:00"}, starts)
	require.Zero(t, slots[1].Duration)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter(0, "8:00", "")
	require.NoError(t, err)
	require.Equal(t, Filter{Earliest: "08:00"}, f)

	_, err = ParseFilter(0, "eight", "")
	require.Error(t, err)
	_, err = ParseFilter(0, "", "25:00")
	require.Error(t, err)
	_, err = ParseFilter(-30, "", "")
	require.Error(t, err)
}
