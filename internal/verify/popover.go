package verify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/shehryarbajwa/courtscout/internal/clock"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// number is an amount with optional grouped thousands and decimals:
// 7, 28.50, 24,00, 1,234.50, 1.234,50, 1 234,50.
const number = `(?:\d{1,3}(?:[.,\s]\d{3})+|\d+)(?:[.,]\d{1,2})?`

var (
	durationRe = regexp.MustCompile(`(?i)^\s*(?:(\d+)\s*h)?\s*(?:(\d+)\s*m(?:in)?)?\s*$`)
	amountRe   = regexp.MustCompile(`(?i)(?:[€$£]\s*` + number + `|` + number + `\s*(?:€|\$|£|EUR|USD|GBP))`)
	timeRe     = regexp.MustCompile(`\b(\d{1,2}:\d{2})\b`)
)

// ParseDuration reads "1h", "90m", "1h 30m" or "30min" as minutes.
func ParseDuration(s string) (int, bool) {
	m := durationRe.FindStringSubmatch(s)
	if m == nil || (m[1] == "" && m[2] == "") {
		return 0, false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	return h*60 + min, true
}

// ParseAmount extracts a currency-tagged amount.
func ParseAmount(s string) (string, bool) {
	m := amountRe.FindString(s)
	if m == "" {
		return "", false
	}
	return strings.TrimSpace(m), true
}

type popover struct {
	header string
	rows   []models.PopoverRow
}

// parsePopover reads a popover's two-column rows. ok is false unless a
// header row names the resource and the start time.
func parsePopover(html string, locs locator.Set, resourceName, start string) (popover, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return popover{}, false
	}

	var out popover
	matched := false
	doc.Find(locs.PopoverRow.CSS).Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		if cells.Length() < 2 {
			return
		}
		left := strings.TrimSpace(cells.First().Text())
		right := strings.TrimSpace(cells.Last().Text())

		if !matched && nameMatches(left, resourceName) && timeMatches(right, start) {
			matched = true
			out.header = left
			return
		}
		minutes, ok := ParseDuration(left)
		if !ok {
			return
		}
		price, ok := ParseAmount(right)
		if !ok {
			return
		}
		out.rows = append(out.rows, models.PopoverRow{Label: left, Minutes: minutes, Price: price})
	})
	return out, matched
}

// nameMatches compares case-insensitively in either direction. An unknown
// expected name matches any header.
func nameMatches(got, want string) bool {
	got, want = strings.ToLower(strings.TrimSpace(got)), strings.ToLower(strings.TrimSpace(want))
	if got == "" {
		return false
	}
	if want == "" {
		return true
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

// timeMatches compares the header's first time, the slot start, with start.
// A range header such as "06:30 - 08:00" belongs to the 06:30 slot.
func timeMatches(text, start string) bool {
	first := timeRe.FindString(text)
	if first == "" {
		return false
	}
	norm, ok := clock.Norm(first)
	return ok && norm == start
}
