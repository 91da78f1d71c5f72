// Package clock converts between the time-of-day forms the booking site uses.
package clock

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// MinutesPerDay is the length of a day in minutes.
const MinutesPerDay = 24 * 60

var hhmmRe = regexp.MustCompile(`^\s*(\d{1,2}):(\d{1,2})(?::\d{1,2})?\s*$`)

// Norm returns s as zero-padded HH:MM. It accepts H:M, HH:MM and HH:MM:SS.
// The end-of-day form 24:00 becomes 00:00.
func Norm(s string) (string, bool) {
	m := hhmmRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	if h == 24 && min == 0 {
		h = 0
	}
	if h > 23 || min > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, min), true
}

// Minutes converts a normalized HH:MM to minutes after midnight.
func Minutes(hhmm string) int {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:5])
	return h*60 + m
}

// Format renders minutes after midnight as HH:MM, wrapping around the day.
func Format(min int) string {
	v := ((min % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
	return fmt.Sprintf("%02d:%02d", v/60, v%60)
}

// Duration is the forward distance from start to end, wrapping midnight.
// Equal times yield zero.
func Duration(start, end int) int {
	return ((end - start) + MinutesPerDay) % MinutesPerDay
}

// Instant anchors a local HH:MM on date in loc.
func Instant(date time.Time, hhmm string, loc *time.Location) time.Time {
	min := Minutes(hhmm)
	return time.Date(date.Year(), date.Month(), date.Day(), min/60, min%60, 0, 0, loc)
}
