package scraper

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shehryarbajwa/courtscout/pkg/models"
)

var (
	// ErrInvalidInput marks requests rejected because of what the caller
	// sent.
	ErrInvalidInput = errors.New("invalid input")

	// ErrVenueNotFound is an input error only discoverable after the venue
	// page was loaded.
	ErrVenueNotFound = fmt.Errorf("%w: venue not found", ErrInvalidInput)
)

const maxErrorDetail = 300

// VenueError is a failed venue visit together with what was observed before
// it failed.
type VenueError struct {
	VenueID string
	Err     error
	Debug   interface{}
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("venue %s: %v", e.VenueID, e.Err)
}

func (e *VenueError) Unwrap() error {
	return e.Err
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Summarize derives the run summary from per-venue outcomes.
func Summarize(outcomes []models.VenueOutcome) models.RunSummary {
	sum := models.RunSummary{Requested: len(outcomes)}
	for _, o := range outcomes {
		if o.OK {
			sum.Succeeded++
			sum.TotalSlots += o.Slots
		} else {
			sum.Failed++
		}
	}

	switch {
	case sum.Succeeded == 0:
		sum.Verdict = models.VerdictError
	case sum.Failed == 0 && sum.TotalSlots == 0:
		sum.Verdict = models.VerdictEmptyOK
	case sum.Failed > 0 && sum.TotalSlots > 0:
		sum.Verdict = models.VerdictPartialOK
	default:
		sum.Verdict = models.VerdictOK
	}
	return sum
}
