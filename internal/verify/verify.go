// Package verify resolves the price of one exact slot by opening its info
// popover in the rendered grid.
package verify

import (
	"context"
	"errors"
	"time"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/internal/poll"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// Outcome tags
const (
	TagNotClicked      = "not_clicked"
	TagTooltipNotFound = "tooltip_not_found"
	TagRowNotFound     = "row_not_found"
	TagPopupRow        = models.SourcePopupRow
)

const (
	sweepStep    = 400
	sweepPause   = 150 * time.Millisecond
	popoverEvery = 200 * time.Millisecond
)

// Request names one exact slot. Start and End are normalized HH:MM.
type Request struct {
	ResourceID   string
	ResourceName string
	Start        string
	End          string
	Duration     int
}

// Result is the verified price, or the tag of the step that failed.
type Result struct {
	Price string
	Tag   string
}

// OK reports whether a price was read.
func (r Result) OK() bool {
	return r.Tag == TagPopupRow
}

// Verifier clicks slot markers and reads their popovers.
type Verifier struct {
	Page           browser.Page
	Locators       locator.Set
	MaxSweeps      int
	PopoverTimeout time.Duration
}

// Verify runs the click → popover → row sequence. Failures are reported as
// tags in the result; ctx bounds the whole sequence.
func (v *Verifier) Verify(ctx context.Context, req Request, diag *models.VerifyDiagnostics) Result {
	defer func() {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			diag.DeadlineHit = true
		}
	}()

	if !v.click(ctx, req, diag) {
		return Result{Price: models.PricePlaceholder, Tag: TagNotClicked}
	}
	diag.Clicked = true

	pop, ok := poll.Until(ctx, v.PopoverTimeout, popoverEvery, func(ctx context.Context) (popover, bool) {
		htmls, err := v.Page.OuterHTML(ctx, v.Locators.Popover)
		if err != nil {
			return popover{}, false
		}
		if len(htmls) > diag.PopoversSeen {
			diag.PopoversSeen = len(htmls)
		}
		for _, html := range htmls {
			if p, ok := parsePopover(html, v.Locators, req.ResourceName, req.Start); ok {
				return p, true
			}
		}
		return popover{}, false
	})
	if !ok {
		return Result{Price: models.PricePlaceholder, Tag: TagTooltipNotFound}
	}

	diag.ResourceName = pop.header
	diag.Rows = pop.rows
	for _, row := range pop.rows {
		if row.Minutes == req.Duration {
			return Result{Price: row.Price, Tag: TagPopupRow}
		}
	}
	return Result{Price: models.PricePlaceholder, Tag: TagRowNotFound}
}

// click tries every marker form, scrolling the virtualized grid down between
// attempts until the scroll position stops moving.
func (v *Verifier) click(ctx context.Context, req Request, diag *models.VerifyDiagnostics) bool {
	markers := v.Locators.MarkerFor(req.ResourceID, req.Start, req.End)
	last := -1.0

	for sweep := 0; ; sweep++ {
		for _, sel := range markers {
			if ctx.Err() != nil {
				return false
			}
			if clicked, err := v.Page.Click(ctx, sel); err == nil && clicked {
				return true
			}
		}
		if sweep >= v.MaxSweeps {
			return false
		}

		pos, err := v.Page.Scroll(ctx, v.Locators.ScrollContainer, sweepStep)
		diag.Sweeps++
		if err != nil || pos == last {
			return false
		}
		last = pos
		if poll.Sleep(ctx, sweepPause) != nil {
			return false
		}
	}
}
