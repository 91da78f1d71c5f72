package pricing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shehryarbajwa/courtscout/internal/clock"
)

// Index maps (resource, start[, end]) to a formatted price for one venue
// visit.
type Index struct {
	entries map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]string)}
}

// ExactKey addresses one slot by start and end.
func ExactKey(resource, start, end string) string {
	return resource + "|" + start + "|" + end
}

// FallbackKey addresses any slot of a resource starting at start.
func FallbackKey(resource, start string) string {
	return resource + "|" + start + "|"
}

// Put stores price under key unless the key is already present.
func (ix *Index) Put(key, price string) bool {
	if _, ok := ix.entries[key]; ok {
		return false
	}
	ix.entries[key] = price
	return true
}

// Lookup prefers the exact key and falls back to the start-only key.
func (ix *Index) Lookup(resource, start, end string) (string, bool) {
	if p, ok := ix.entries[ExactKey(resource, start, end)]; ok {
		return p, true
	}
	p, ok := ix.entries[FallbackKey(resource, start)]
	return p, ok
}

// Len is the number of keys.
func (ix *Index) Len() int {
	return len(ix.entries)
}

type section struct {
	ResourceID string       `json:"resource_id"`
	StartDate  string       `json:"start_date"`
	Slots      []slotRecord `json:"slots"`
}

type slotRecord struct {
	StartTime string          `json:"start_time"`
	Duration  json.Number     `json:"duration"`
	Price     json.RawMessage `json:"price"`
}

// IngestResult describes what one payload contributed.
type IngestResult struct {
	Sections     int
	Added        int
	DateFiltered bool
}

// Ingest indexes one availability payload. When date is set and any section
// carries exactly that date, sections for other dates are skipped.
func (ix *Index) Ingest(payload []byte, date string) (IngestResult, error) {
	var res IngestResult
	var sections []section
	if err := json.Unmarshal(payload, &sections); err != nil {
		return res, fmt.Errorf("failed to decode availability payload: %w", err)
	}
	res.Sections = len(sections)

	if date != "" {
		for _, s := range sections {
			if s.StartDate == date {
				res.DateFiltered = true
				break
			}
		}
	}

	for _, s := range sections {
		if s.ResourceID == "" || (res.DateFiltered && s.StartDate != date) {
			continue
		}
		for _, rec := range s.Slots {
			start, ok := clock.Norm(rec.StartTime)
			if !ok {
				continue
			}
			price, ok := formatPrice(rec.Price)
			if !ok {
				continue
			}
			if dur, err := rec.Duration.Int64(); err == nil && dur > 0 {
				end := clock.Format(clock.Minutes(start) + int(dur))
				if ix.Put(ExactKey(s.ResourceID, start, end), price) {
					res.Added++
				}
			}
			if ix.Put(FallbackKey(s.ResourceID, start), price) {
				res.Added++
			}
		}
	}
	return res, nil
}

// formatPrice accepts a string ("24 EUR") or a bare number.
func formatPrice(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}
