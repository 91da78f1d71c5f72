// Package pricing builds the per-visit price index from the booking site's
// availability API, trying progressively more speculative ways to get a
// payload.
package pricing

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/internal/poll"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const dateLayout = "2006-01-02"

// Acquirer runs the three acquisition tiers against one page.
type Acquirer struct {
	Page      browser.Page
	Locators  locator.Set
	BaseURL   string
	Pattern   string
	Settle    time.Duration
	Templates []string
	Log       *zap.Logger
}

// Acquire returns the index built by the first tier that yields a payload.
// mark bounds passive capture to responses observed after date commit. An
// empty index is a valid outcome; only ctx cancellation is an error.
func (a *Acquirer) Acquire(ctx context.Context, mark int, date time.Time) (*Index, models.PriceDiagnostics, error) {
	ix := NewIndex()
	diag := models.PriceDiagnostics{}
	ymd := date.Format(dateLayout)

	if a.capture(ctx, ix, &diag, mark, ymd) {
		diag.Tier = models.SourceNetworkCapture
		return ix, diag, nil
	}
	if err := ctx.Err(); err != nil {
		return ix, diag, err
	}

	if a.replay(ctx, ix, &diag, ymd) {
		diag.Tier = models.SourceResourceReplay
		return ix, diag, nil
	}
	if err := ctx.Err(); err != nil {
		return ix, diag, err
	}

	if a.probe(ctx, ix, &diag, ymd) {
		diag.Tier = models.SourceEndpointProbe
	}
	return ix, diag, ctx.Err()
}

func (a *Acquirer) ingest(ix *Index, diag *models.PriceDiagnostics, body []byte, ymd string) bool {
	res, err := ix.Ingest(body, ymd)
	if err != nil {
		a.Log.Debug("skipping availability payload", zap.Error(err))
		return false
	}
	diag.Payloads++
	diag.Entries = ix.Len()
	diag.DateFiltered = diag.DateFiltered || res.DateFiltered
	return true
}

// capture collects availability bodies observed during the settle window.
func (a *Acquirer) capture(ctx context.Context, ix *Index, diag *models.PriceDiagnostics, mark int, ymd string) bool {
	if err := poll.Sleep(ctx, a.Settle); err != nil {
		return false
	}

	got := false
	for _, resp := range a.Page.Network().Captured(mark) {
		diag.CapturedURLs = append(diag.CapturedURLs, resp.URL)
		if a.ingest(ix, diag, resp.Body, ymd) {
			got = true
		}
	}
	return got
}

// replay re-issues the most recent availability request listed in the
// page's resource-timing buffer.
func (a *Acquirer) replay(ctx context.Context, ix *Index, diag *models.PriceDiagnostics, ymd string) bool {
	urls, err := a.Page.ResourceURLs(ctx, a.Pattern)
	if err != nil || len(urls) == 0 {
		return false
	}
	diag.ReplayURL = urls[len(urls)-1]

	res, err := a.Page.Fetch(ctx, diag.ReplayURL)
	if err != nil || res.Status < 200 || res.Status >= 300 {
		return false
	}
	return a.ingest(ix, diag, []byte(res.Body), ymd)
}

// probe guesses the availability endpoint from the venue id embedded in the
// hydration payload, trying each template until one returns data.
func (a *Acquirer) probe(ctx context.Context, ix *Index, diag *models.PriceDiagnostics, ymd string) bool {
	raw, ok, err := a.Page.Text(ctx, a.Locators.HydrationPayload)
	if err != nil || !ok {
		return false
	}
	var payload interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return false
	}
	venue, ok := FindVenueID(payload)
	if !ok {
		return false
	}
	diag.VenueUUID = venue

	base := strings.TrimSuffix(a.BaseURL, "/")
	r := strings.NewReplacer("{base}", base, "{tenant}", venue, "{date}", ymd)
	for _, tmpl := range a.Templates {
		if ctx.Err() != nil {
			return false
		}
		u := r.Replace(tmpl)
		diag.ProbesTried = append(diag.ProbesTried, u)

		res, err := a.Page.Fetch(ctx, u)
		if err != nil || res.Status < 200 || res.Status >= 300 {
			continue
		}
		before := ix.Len()
		if a.ingest(ix, diag, []byte(res.Body), ymd) && ix.Len() > before {
			return true
		}
	}
	return false
}

// FindVenueID searches decoded JSON for a UUID-shaped venue identifier.
// UUIDs under a key path mentioning "tenant" win, then those under "club"
// or "venue", then any other. Ties go to the first in sorted key order.
func FindVenueID(v interface{}) (string, bool) {
	best, bestRank := "", venueRankNone
	var walk func(path string, v interface{})
	walk = func(path string, v interface{}) {
		switch t := v.(type) {
		case map[string]interface{}:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(path+"."+strings.ToLower(k), t[k])
			}
		case []interface{}:
			for _, child := range t {
				walk(path, child)
			}
		case string:
			if _, err := uuid.Parse(t); err != nil || len(t) != 36 {
				return
			}
			if r := venueRank(path); r < bestRank {
				best, bestRank = t, r
			}
		}
	}
	walk("", v)
	return best, best != ""
}

const (
	venueRankTenant = iota
	venueRankClub
	venueRankOther
	venueRankNone
)

func venueRank(path string) int {
	switch {
	case strings.Contains(path, "tenant"):
		return venueRankTenant
	case strings.Contains(path, "club"), strings.Contains(path, "venue"):
		return venueRankClub
	default:
		return venueRankOther
	}
}
