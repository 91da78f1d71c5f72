package slots

import (
	"fmt"
	"sort"
	"time"

	"github.com/shehryarbajwa/courtscout/internal/clock"
	"github.com/shehryarbajwa/courtscout/internal/pricing"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const dateLayout = "2006-01-02"

// Filter narrows the harvested slots. Zero values disable a constraint.
type Filter struct {
	Duration int
	Earliest string
	Latest   string
}

// ParseFilter validates the optional duration and start-time window.
func ParseFilter(duration int, earliest, latest string) (Filter, error) {
	f := Filter{Duration: duration}
	if duration < 0 {
		return f, fmt.Errorf("duration must not be negative")
	}
	if earliest != "" {
		v, ok := clock.Norm(earliest)
		if !ok {
			return f, fmt.Errorf("earliest %q is not HH:MM", earliest)
		}
		f.Earliest = v
	}
	if latest != "" {
		v, ok := clock.Norm(latest)
		if !ok {
			return f, fmt.Errorf("latest %q is not HH:MM", latest)
		}
		f.Latest = v
	}
	return f, nil
}

// Keep reports whether a slot passes the filter. An unset (zero) duration is
// never excluded by the duration constraint.
func (f Filter) Keep(startMin, duration int) bool {
	if f.Duration > 0 && duration > 0 && duration != f.Duration {
		return false
	}
	if f.Earliest != "" && startMin < clock.Minutes(f.Earliest) {
		return false
	}
	if f.Latest != "" && startMin > clock.Minutes(f.Latest) {
		return false
	}
	return true
}

// Normalizer turns blocks of one venue visit into slots.
type Normalizer struct {
	VenueID   string
	VenueName string
	Date      time.Time
	Location  *time.Location
	Filter    Filter
	Prices    *pricing.Index
	// PriceSource tags slots priced from the index, normally the tier that
	// built it.
	PriceSource string
	Resources   map[string]models.Resource
}

// Normalize returns the surviving slots ordered by start, and how many of
// them had no indexed price.
func (n *Normalizer) Normalize(blocks []Block) ([]models.Slot, int) {
	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	prices := n.Prices
	if prices == nil {
		prices = pricing.NewIndex()
	}

	var out []models.Slot
	misses := 0
	for _, b := range blocks {
		start, okStart := clock.Norm(b.Start)
		end, okEnd := clock.Norm(b.End)
		if b.ResourceID == "" || !okStart || !okEnd {
			continue
		}

		startMin, endMin := clock.Minutes(start), clock.Minutes(end)
		dur := clock.Duration(startMin, endMin)
		if !n.Filter.Keep(startMin, dur) {
			continue
		}

		endDate := n.Date
		if endMin < startMin {
			endDate = endDate.AddDate(0, 0, 1)
		}

		slot := models.Slot{
			VenueID:     n.VenueID,
			VenueName:   n.VenueName,
			ResourceID:  b.ResourceID,
			Date:        n.Date.Format(dateLayout),
			StartLocal:  start,
			EndLocal:    end,
			StartMinute: startMin,
			EndMinute:   endMin,
			Duration:    dur,
			Start:       clock.Instant(n.Date, start, loc).UTC().Format(time.RFC3339),
			End:         clock.Instant(endDate, end, loc).UTC().Format(time.RFC3339),
		}

		if price, ok := prices.Lookup(b.ResourceID, start, end); ok {
			slot.Price = price
			slot.PriceSource = n.PriceSource
			if slot.PriceSource == "" {
				slot.PriceSource = models.SourceNetworkCapture
			}
		} else {
			slot.Price = models.PricePlaceholder
			slot.PriceSource = models.SourceDOMOnly
			misses++
		}

		if res, ok := n.Resources[b.ResourceID]; ok {
			slot.ResourceName = res.Name
			slot.Size = res.Size
			slot.Location = res.Location
		}
		out = append(out, slot)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartMinute < out[j].StartMinute
	})
	return out, misses
}
