// Package calendar drives the booking page's date picker to a target day.
//
// Navigation is best-effort: every step that fails is recorded in the
// returned diagnostics and the remaining steps still run.
package calendar

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/internal/poll"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// State is a step of the picker state machine.
type State string

const (
	Closed       State = "closed"
	Opened       State = "opened"
	MonthAligned State = "month_aligned"
	DaySelected  State = "day_selected"
	Committed    State = "committed"
)

const (
	maxMonthClicks = 24
	openPause      = 150 * time.Millisecond
	monthPause     = 120 * time.Millisecond
)

// DateLayout is the wire format of a target date.
const DateLayout = "2006-01-02"

var headerRe = regexp.MustCompile(`(?i)\b(January|February|March|April|May|June|July|August|September|October|November|December)\b\s+(\d{4})`)

var months = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
}

// MonthDelta returns the signed number of months from the calendar header
// (e.g. "October 2025") to target. An unparsable header yields 0.
func MonthDelta(header string, target time.Time) int {
	m := headerRe.FindStringSubmatch(header)
	if m == nil {
		return 0
	}
	month := months[strings.ToLower(m[1])]
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0
	}
	return (target.Year()-year)*12 + int(target.Month()) - int(month)
}

// Navigator moves one page's picker.
type Navigator struct {
	Page          browser.Page
	Locators      locator.Set
	CommitTimeout time.Duration
}

// Navigate walks Closed → Opened → MonthAligned → DaySelected → Committed for
// the given date. Only ctx cancellation is returned as an error.
func (n *Navigator) Navigate(ctx context.Context, date time.Time) (models.PickerDiagnostics, error) {
	out := models.PickerDiagnostics{Reached: string(Closed), Day: date.Day()}

	// Closed → Opened
	out.Opened = n.open(ctx)
	if out.Opened {
		out.Reached = string(Opened)
	}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	// Opened → MonthAligned
	if header, ok, _ := n.Page.Text(ctx, n.Locators.CalendarHeader); ok {
		out.HeaderText = header
	}
	out.MonthDelta = MonthDelta(out.HeaderText, date)
	if out.MonthDelta != 0 {
		ctrl := n.Locators.NextMonth
		if out.MonthDelta < 0 {
			ctrl = n.Locators.PrevMonth
		}
		clicks := out.MonthDelta
		if clicks < 0 {
			clicks = -clicks
		}
		if clicks > maxMonthClicks {
			clicks = maxMonthClicks
		}
		for i := 0; i < clicks; i++ {
			clicked, err := n.Page.Click(ctx, ctrl)
			if err != nil || !clicked {
				break
			}
			out.MonthClicks++
			out.MonthClickSelector = ctrl.CSS
			if err := poll.Sleep(ctx, monthPause); err != nil {
				return out, err
			}
		}
	}
	out.Reached = string(MonthAligned)

	// MonthAligned → DaySelected
	mark := n.Page.Network().Mark()
	day := n.Locators.DayButton.WithText(strconv.Itoa(date.Day()))
	found, err := n.Page.Click(ctx, day)
	if err != nil || !found {
		return out, ctx.Err()
	}
	out.DayButtonFound = true
	out.Reached = string(DaySelected)

	// DaySelected → Committed
	_ = n.Page.PressKey(ctx, browser.KeyEscape)
	_ = n.Page.MouseClick(ctx, 10, 10)

	dateParam := "date=" + date.Format(DateLayout)
	saw := n.Page.Network().WaitFor(ctx, mark, n.CommitTimeout, func(u string) bool {
		return strings.Contains(u, dateParam)
	})
	out.XHRCommitted = &saw
	if saw {
		out.Reached = string(Committed)
	}

	if pill, ok, _ := n.Page.Text(ctx, n.Locators.DatePill); ok {
		out.Pill = pill
	}
	return out, ctx.Err()
}

func (n *Navigator) open(ctx context.Context) bool {
	for _, opener := range n.Locators.PickerOpeners {
		clicked, err := n.Page.Click(ctx, opener)
		if err != nil || !clicked {
			continue
		}
		_ = poll.Sleep(ctx, openPause)
		return true
	}
	return false
}
