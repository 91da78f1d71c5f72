package calendar

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/browser/browsertest"
	"github.com/shehryarbajwa/courtscout/internal/locator"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMonthDelta(t *testing.T) {
	tests := []struct {
		header string
		target string
		want   int
	}{
		{"October 2025", "2025-12-15", 2},
		{"October 2025", "2025-08-01", -2},
		{"october 2025", "2026-01-03", 3},
		{"Pick a date · December 2025", "2025-12-01", 0},
		{"", "2025-12-15", 0},
		{"Octobre 2025", "2025-12-15", 0},
	}

	for _, tt := range tests {
		t.Run(tt.header+"→"+tt.target, func(t *testing.T) {
			require.Equal(t, tt.want, MonthDelta(tt.header, day(tt.target)))
		})
	}
}

func pickerDoc(header string, withNext bool) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="__next">`)
	b.WriteString(`<button class="flex cursor-pointer items-center text-sm font-medium">Today</button>`)
	fmt.Fprintf(&b, `<div class="text-center font-medium">%s</div>`, header)
	if withNext {
		b.WriteString(`<button id="next"><svg><path d="M9 5l7 7-7 7"></path></svg></button>`)
	}
	b.WriteString(`<button id="prev"><svg><path d="M15 19l-7-7 7-7"></path></svg></button>`)
	for d := 1; d <= 31; d++ {
		fmt.Fprintf(&b, `<div class="text-center"><button class="rounded-full">%d</button></div>`, d)
	}
	b.WriteString(`</div></body></html>`)
	return b.String()
}

func TestNavigateCommitsTargetDay(t *testing.T) {
	locs := locator.Default()
	page := browsertest.NewPage(pickerDoc("October 2025", true))

	var dayClicks []string
	page.OnClick = func(sel locator.Selector) {
		if sel.CSS == locs.DayButton.CSS {
			dayClicks = append(dayClicks, sel.Text)
			page.Network().ResponseReceived("r1",
				"https://playtomic.com/api/clubs/availability?tenant_id=x&date=2025-12-05", 200)
		}
	}

	n := &Navigator{Page: page, Locators: locs, CommitTimeout: time.Second}
	out, err := n.Navigate(context.Background(), day("2025-12-05"))
	require.NoError(t, err)

	require.True(t, out.Opened)
	require.Equal(t, "October 2025", out.HeaderText)
	require.Equal(t, 2, out.MonthDelta)
	require.Equal(t, 2, out.MonthClicks)
	require.Equal(t, locs.NextMonth.CSS, out.MonthClickSelector)
	require.Equal(t, 5, out.Day)
	require.True(t, out.DayButtonFound)
	require.Equal(t, []string{"5"}, dayClicks)
	require.NotNil(t, out.XHRCommitted)
	require.True(t, *out.XHRCommitted)
	require.Equal(t, string(Committed), out.Reached)
	require.Equal(t, "Today", out.Pill)

	require.Equal(t, []string{browser.KeyEscape}, page.Keys())
	require.Equal(t, [][2]float64{{10, 10}}, page.MouseClicks())
}

func TestNavigateBackwards(t *testing.T) {
	locs := locator.Default()
	page := browsertest.NewPage(pickerDoc("October 2025", true))

	n := &Navigator{Page: page, Locators: locs, CommitTimeout: 50 * time.Millisecond}
	out, err := n.Navigate(context.Background(), day("2025-08-01"))
	require.NoError(t, err)

	require.Equal(t, -2, out.MonthDelta)
	require.Equal(t, 2, out.MonthClicks)
	require.Equal(t, locs.PrevMonth.CSS, out.MonthClickSelector)
	require.NotNil(t, out.XHRCommitted)
	require.False(t, *out.XHRCommitted)
	require.Equal(t, string(DaySelected), out.Reached)
}

func TestNavigateStopsWhenControlMissing(t *testing.T) {
	page := browsertest.NewPage(pickerDoc("October 2025", false))

	n := &Navigator{Page: page, Locators: locator.Default(), CommitTimeout: 10 * time.Millisecond}
	out, err := n.Navigate(context.Background(), day("2025-12-05"))
	require.NoError(t, err)

	require.Equal(t, 2, out.MonthDelta)
	require.Zero(t, out.MonthClicks)
	require.Empty(t, out.MonthClickSelector)
	require.True(t, out.DayButtonFound)
}

func TestNavigateWithoutDayControl(t *testing.T) {
	page := browsertest.NewPage(`<html><body><div class="text-center font-medium">garbled</div></body></html>`)

	n := &Navigator{Page: page, Locators: locator.Default(), CommitTimeout: time.Second}
	out, err := n.Navigate(context.Background(), day("2025-12-05"))
	require.NoError(t, err)

	require.False(t, out.Opened)
	require.Zero(t, out.MonthDelta)
	require.False(t, out.DayButtonFound)
	require.Nil(t, out.XHRCommitted)
	require.Empty(t, page.Keys())
	require.Equal(t, string(MonthAligned), out.Reached)
}

func TestNavigateHonoursCancellation(t *testing.T) {
	page := browsertest.NewPage(pickerDoc("October 2025", true))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &Navigator{Page: page, Locators: locator.Default(), CommitTimeout: time.Second}
	_, err := n.Navigate(ctx, day("2025-12-05"))
	require.ErrorIs(t, err, context.Canceled)
}
