package scraper

import (
	"regexp"
	"strings"
	"time"

	"github.com/shehryarbajwa/courtscout/internal/clock"
	"github.com/shehryarbajwa/courtscout/internal/slots"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const dateLayout = "2006-01-02"

var (
	slugRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// availabilityQuery is a validated availability request.
type availabilityQuery struct {
	venues     []string
	date       time.Time
	filter     slots.Filter
	screenshot bool
}

// priceQuery is a validated single-slot request.
type priceQuery struct {
	venue    string
	date     time.Time
	resource string
	start    string
	end      string
	duration int
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !dateRe.MatchString(s) {
		return time.Time{}, invalid("date %q is not YYYY-MM-DD", s)
	}
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, invalid("date %q is not a calendar date", s)
	}
	return d, nil
}

func parseVenue(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", invalid("venue is required")
	}
	if !slugRe.MatchString(s) {
		return "", invalid("venue %q is malformed", s)
	}
	return s, nil
}

func parseAvailability(q models.AvailabilityQuery) (*availabilityQuery, error) {
	out := &availabilityQuery{screenshot: q.Screenshot}

	seen := map[string]bool{}
	for _, v := range q.Venues {
		venue, err := parseVenue(v)
		if err != nil {
			return nil, err
		}
		if !seen[venue] {
			seen[venue] = true
			out.venues = append(out.venues, venue)
		}
	}
	if len(out.venues) == 0 {
		return nil, invalid("at least one venue is required")
	}

	date, err := parseDate(q.Date)
	if err != nil {
		return nil, err
	}
	out.date = date

	filter, err := slots.ParseFilter(q.Duration, q.Earliest, q.Latest)
	if err != nil {
		return nil, invalid("%v", err)
	}
	out.filter = filter
	return out, nil
}

func parsePrice(q models.PriceQuery) (*priceQuery, error) {
	venue, err := parseVenue(q.VenueID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(q.Date)
	if err != nil {
		return nil, err
	}
	resource := strings.TrimSpace(q.ResourceID)
	if resource == "" {
		return nil, invalid("resource is required")
	}
	start, ok := clock.Norm(q.Start)
	if !ok {
		return nil, invalid("start %q is not HH:MM", q.Start)
	}
	end, ok := clock.Norm(q.End)
	if !ok {
		return nil, invalid("end %q is not HH:MM", q.End)
	}
	duration := clock.Duration(clock.Minutes(start), clock.Minutes(end))
	if duration == 0 {
		return nil, invalid("start and end must differ")
	}

	return &priceQuery{
		venue:    venue,
		date:     date,
		resource: resource,
		start:    start,
		end:      end,
		duration: duration,
	}, nil
}
