package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/browser/browsertest"
	"github.com/shehryarbajwa/courtscout/internal/config"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

type fakeSource struct {
	mu       sync.Mutex
	sess     *browsertest.Session
	err      error
	acquires int
}

func (f *fakeSource) Acquire(ctx context.Context) (browser.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquires++
	if f.err != nil {
		return nil, f.err
	}
	return f.sess, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Timezone:            "Europe/Tallinn",
		BaseURL:             "https://playtomic.com",
		AvailabilityPattern: "/api/clubs/availability",
		NavigateTimeout:     time.Second,
		HydrateTimeout:      50 * time.Millisecond,
		CommitTimeout:       200 * time.Millisecond,
		CaptureSettle:       10 * time.Millisecond,
		BlocksTimeout:       50 * time.Millisecond,
		VerifyDeadline:      5 * time.Second,
		PopoverTimeout:      500 * time.Millisecond,
		MaxScrollSweeps:     3,
		ProbeTemplates:      config.DefaultProbeTemplates,
		Locators:            locator.Default(),
	}
}

func newTestService(page *browsertest.Page) (*Service, *fakeSource) {
	src := &fakeSource{sess: browsertest.NewSession("s1", page)}
	return NewService(src, testConfig(), zap.NewNop()), src
}

func slotsFor(venue string, n int) []models.Slot {
	out := make([]models.Slot, n)
	for i := range out {
		out[i] = models.Slot{VenueID: venue, ResourceID: fmt.Sprintf("c%d", i)}
	}
	return out
}

func TestAvailabilityRejectsInputBeforeAcquiring(t *testing.T) {
	svc, src := newTestService(browsertest.NewPage(""))

	tests := []models.AvailabilityQuery{
		{Venues: []string{"padel-tallinn"}, Date: "16-10-2025"},
		{Venues: []string{"padel-tallinn"}, Date: "2025-02-30"},
		{Venues: []string{""}, Date: "2025-10-16"},
		{Venues: nil, Date: "2025-10-16"},
		{Venues: []string{"../admin"}, Date: "2025-10-16"},
		{Venues: []string{"padel-tallinn"}, Date: "2025-10-16", Earliest: "soon"},
	}
	for _, q := range tests {
		_, err := svc.Availability(context.Background(), q)
		require.ErrorIs(t, err, ErrInvalidInput, "%+v", q)
	}
	require.Zero(t, src.acquires)
}

func TestAvailabilityPartialOK(t *testing.T) {
	svc, src := newTestService(browsertest.NewPage(""))
	svc.visit = func(ctx context.Context, page browser.Page, venue string, q *availabilityQuery) (venueVisit, error) {
		if venue == "broken" {
			return venueVisit{debug: &models.Diagnostics{VenueID: venue}}, errors.New(strings.Repeat("x", 500))
		}
		return venueVisit{name: "Good Club", slots: slotsFor(venue, 3)}, nil
	}

	res, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"good", "broken"},
		Date:   "2025-10-16",
	})
	require.NoError(t, err)

	require.Equal(t, models.RunSummary{
		Requested:  2,
		Succeeded:  1,
		Failed:     1,
		TotalSlots: 3,
		Verdict:    models.VerdictPartialOK,
	}, res.Summary)
	require.Len(t, res.Slots, 3)
	require.Equal(t, "Good Club", res.Venues[0].VenueName)
	require.Len(t, res.Venues[1].Error, maxErrorDetail)
	require.NotNil(t, res.Venues[1].Debug)
	require.Equal(t, 1, src.sess.Releases())
	require.Equal(t, 1, src.acquires)
}

func TestAvailabilityVisitsVenuesSeriallyInOrder(t *testing.T) {
	svc, _ := newTestService(browsertest.NewPage(""))

	var order []string
	svc.visit = func(ctx context.Context, page browser.Page, venue string, q *availabilityQuery) (venueVisit, error) {
		order = append(order, venue)
		return venueVisit{}, nil
	}

	res, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"b", "a", "b", "c"},
		Date:   "2025-10-16",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a", "c"}, order)
	require.Equal(t, models.VerdictEmptyOK, res.Summary.Verdict)
}

func TestAvailabilityEmptyOK(t *testing.T) {
	svc, src := newTestService(browsertest.NewPage(""))
	svc.visit = func(ctx context.Context, page browser.Page, venue string, q *availabilityQuery) (venueVisit, error) {
		return venueVisit{}, nil
	}

	res, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"padel-tallinn"},
		Date:   "2025-10-16",
	})
	require.NoError(t, err)
	require.Equal(t, models.VerdictEmptyOK, res.Summary.Verdict)
	require.Zero(t, res.Summary.TotalSlots)
	require.Empty(t, res.Slots)
	require.Equal(t, 1, src.sess.Releases())
}

func TestAvailabilityVenueNotFoundReleasesOnce(t *testing.T) {
	page := browsertest.NewPage(`<html><body><div id="__next"><h1>Page not found</h1></div></body></html>`)
	svc, src := newTestService(page)

	_, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"no-such-club"},
		Date:   "2025-10-16",
	})
	require.ErrorIs(t, err, ErrVenueNotFound)
	require.ErrorIs(t, err, ErrInvalidInput)

	var venueErr *VenueError
	require.ErrorAs(t, err, &venueErr)
	require.Equal(t, "no-such-club", venueErr.VenueID)
	require.NotNil(t, venueErr.Debug)

	require.Equal(t, 1, src.acquires)
	require.Equal(t, 1, src.sess.Releases())
}

func TestAvailabilityMidPipelineErrorReleasesOnce(t *testing.T) {
	page := browsertest.NewPage("")
	page.NavigateErr = errors.New("net::ERR_CONNECTION_RESET")
	svc, src := newTestService(page)

	res, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"padel-tallinn"},
		Date:   "2025-10-16",
	})
	require.NoError(t, err)
	require.Equal(t, models.VerdictError, res.Summary.Verdict)
	require.Contains(t, res.Venues[0].Error, "ERR_CONNECTION_RESET")
	require.Equal(t, "https://playtomic.com/clubs/padel-tallinn", res.Venues[0].Debug.URL)
	require.Equal(t, 1, src.sess.Releases())
}

func TestAvailabilityAcquireFailure(t *testing.T) {
	svc, src := newTestService(browsertest.NewPage(""))
	src.err = fmt.Errorf("%w: no chrome", browser.ErrEngineLaunch)

	_, err := svc.Availability(context.Background(), models.AvailabilityQuery{
		Venues: []string{"padel-tallinn"},
		Date:   "2025-10-16",
	})
	require.ErrorIs(t, err, browser.ErrEngineLaunch)
	require.Zero(t, src.sess.Releases())
}

func TestSummarize(t *testing.T) {
	ok := func(n int) models.VenueOutcome { return models.VenueOutcome{OK: true, Slots: n} }
	failed := models.VenueOutcome{Error: "boom"}

	tests := []struct {
		name     string
		outcomes []models.VenueOutcome
		want     models.Verdict
	}{
		{"all failed", []models.VenueOutcome{failed, failed}, models.VerdictError},
		{"nothing requested", nil, models.VerdictError},
		{"all empty", []models.VenueOutcome{ok(0), ok(0)}, models.VerdictEmptyOK},
		{"partial", []models.VenueOutcome{ok(3), failed}, models.VerdictPartialOK},
		{"failed and empty", []models.VenueOutcome{ok(0), failed}, models.VerdictOK},
		{"all good", []models.VenueOutcome{ok(2), ok(0)}, models.VerdictOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Summarize(tt.outcomes).Verdict)
		})
	}
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	require.Equal(t, "ab", truncate("ab€cd", 3))
	require.Equal(t, "ab", truncate("ab€cd", 4))
	require.Equal(t, "ab€", truncate("ab€cd", 5))
	require.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("ä", snippetLength)
	cut := truncate(long, snippetLength+1)
	require.True(t, utf8.ValidString(cut))
	require.Len(t, cut, snippetLength)
}
