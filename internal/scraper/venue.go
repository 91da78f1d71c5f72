package scraper

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/calendar"
	"github.com/shehryarbajwa/courtscout/internal/poll"
	"github.com/shehryarbajwa/courtscout/internal/pricing"
	"github.com/shehryarbajwa/courtscout/internal/slots"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const (
	hydratedDivs   = 80
	snippetLength  = 2048
	waitInterval   = 250 * time.Millisecond
	consentPause   = 300 * time.Millisecond
	rootWaitFactor = 2
)

// VenueURL is the booking page of a venue.
func VenueURL(base, venue string) string {
	return strings.TrimSuffix(base, "/") + "/clubs/" + url.PathEscape(venue)
}

// landing is what loading a venue page established.
type landing struct {
	name     string
	rootDivs int
}

// land loads the venue page and gets it to an interactive state: app root
// present, consent dismissed, hydrated. ErrVenueNotFound is returned when the
// site renders its not-found page.
func (s *Service) land(ctx context.Context, page browser.Page, venue string, steps *[]string) (landing, error) {
	locs := s.cfg.Locators
	var out landing

	ctx, span := s.startSpan(ctx, "navigate")
	var err error
	defer func() { endSpan(span, err) }()

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigateTimeout)
	err = page.Navigate(navCtx, VenueURL(s.cfg.BaseURL, venue))
	cancel()
	if err != nil {
		err = fmt.Errorf("failed to load venue page: %w", err)
		return out, err
	}
	*steps = append(*steps, "navigated")

	if _, ok := poll.Until(ctx, rootWaitFactor*s.cfg.HydrateTimeout, waitInterval, func(ctx context.Context) (int, bool) {
		n, err := page.Count(ctx, locs.AppRoot)
		return n, err == nil && n > 0
	}); ok {
		*steps = append(*steps, "root")
	}

	for _, btn := range locs.ConsentButtons {
		if clicked, cerr := page.Click(ctx, btn); cerr == nil && clicked {
			*steps = append(*steps, "consent_dismissed")
			_ = poll.Sleep(ctx, consentPause)
			break
		}
	}

	divs, hydrated := poll.Until(ctx, s.cfg.HydrateTimeout, waitInterval, func(ctx context.Context) (int, bool) {
		n, err := page.Count(ctx, locs.RootElements)
		return n, err == nil && n > hydratedDivs
	})
	if hydrated {
		*steps = append(*steps, "hydrated")
	} else {
		*steps = append(*steps, "not_hydrated")
	}
	out.rootDivs = divs

	if n, cerr := page.Count(ctx, locs.NotFound); cerr == nil && n > 0 {
		err = ErrVenueNotFound
		return out, err
	}
	if name, ok, _ := page.Text(ctx, locs.VenueName); ok {
		out.name = name
	}

	if err = ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}

// navigateCalendar drives the picker to date.
func (s *Service) navigateCalendar(ctx context.Context, page browser.Page, date time.Time) (models.PickerDiagnostics, error) {
	ctx, span := s.startSpan(ctx, "calendar")
	nav := &calendar.Navigator{
		Page:          page,
		Locators:      s.cfg.Locators,
		CommitTimeout: s.cfg.CommitTimeout,
	}
	picker, err := nav.Navigate(ctx, date)
	endSpan(span, err)
	return picker, err
}

// visitVenue runs the full availability pipeline for one venue.
func (s *Service) visitVenue(ctx context.Context, page browser.Page, venue string, q *availabilityQuery) (venueVisit, error) {
	locs := s.cfg.Locators
	ymd := q.date.Format(dateLayout)
	diag := &models.Diagnostics{
		VenueID: venue,
		Date:    ymd,
		URL:     VenueURL(s.cfg.BaseURL, venue),
		Steps:   []string{},
	}
	visit := venueVisit{debug: diag}
	rec := page.Network()
	defer func() {
		rec.Fill(diag)
		diag.LastAvailabilityURL, diag.SawAvailability = rec.LastAvailabilityURL()
	}()

	land, err := s.land(ctx, page, venue, &diag.Steps)
	diag.RootDivs = land.rootDivs
	visit.name = land.name
	if err != nil {
		return visit, err
	}

	mark := rec.Mark()
	diag.Picker, err = s.navigateCalendar(ctx, page, q.date)
	if err != nil {
		return visit, err
	}
	if !diag.Picker.DayButtonFound {
		diag.Steps = append(diag.Steps, "day_not_found")
	}

	pctx, span := s.startSpan(ctx, "prices")
	acq := &pricing.Acquirer{
		Page:      page,
		Locators:  locs,
		BaseURL:   s.cfg.BaseURL,
		Pattern:   s.cfg.AvailabilityPattern,
		Settle:    s.cfg.CaptureSettle,
		Templates: s.cfg.ProbeTemplates,
		Log:       s.log,
	}
	index, priceDiag, err := acq.Acquire(pctx, mark, q.date)
	endSpan(span, err)
	diag.Prices = priceDiag
	if err != nil {
		return visit, err
	}

	hctx, span := s.startSpan(ctx, "harvest")
	visit.slots, err = s.harvest(hctx, page, venue, land.name, q, index, diag)
	endSpan(span, err)
	if err != nil {
		return visit, err
	}

	if q.screenshot {
		if shot, serr := page.Screenshot(ctx); serr == nil {
			diag.Screenshot = base64.StdEncoding.EncodeToString(shot)
		} else {
			s.log.Debug("screenshot failed", zap.String("venue", venue), zap.Error(serr))
		}
	}
	return visit, nil
}

// harvest waits for the grid (or the unbookable banner), then reads and
// normalizes every marker.
func (s *Service) harvest(ctx context.Context, page browser.Page, venue, venueName string, q *availabilityQuery, index *pricing.Index, diag *models.Diagnostics) ([]models.Slot, error) {
	locs := s.cfg.Locators

	_, sawBlocks := poll.Until(ctx, s.cfg.BlocksTimeout, waitInterval, func(ctx context.Context) (int, bool) {
		n, err := page.Count(ctx, locs.SlotMarker)
		return n, err == nil && n > 0
	})
	if !sawBlocks {
		if n, err := page.Count(ctx, locs.UnbookableBanner); err == nil && n > 0 {
			diag.BannerUnbookable = true
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	diag.HTMLSnippet = truncate(html, snippetLength)

	blocks, err := slots.Harvest(html, locs)
	if err != nil {
		return nil, err
	}
	diag.BlocksFound = len(blocks)

	resources, err := slots.Resources(html, locs)
	if err != nil {
		return nil, err
	}

	n := &slots.Normalizer{
		VenueID:     venue,
		VenueName:   venueName,
		Date:        q.date,
		Location:    s.cfg.Location(),
		Filter:      q.filter,
		Prices:      index,
		PriceSource: diag.Prices.Tier,
		Resources:   resources,
	}
	out, misses := n.Normalize(blocks)
	diag.Prices.Misses = misses
	return out, nil
}
