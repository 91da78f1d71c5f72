package browser

import (
	"context"

	"github.com/shehryarbajwa/courtscout/internal/locator"
)

// KeyEscape is the key name understood by Page.PressKey.
const KeyEscape = "Escape"

// FetchResult is the outcome of a request issued from inside the page.
type FetchResult struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

// Page is the rendered-page capability the scraping pipeline drives. Every
// method is a suspension point bounded by ctx.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Count returns how many elements match sel.
	Count(ctx context.Context, sel locator.Selector) (int, error)
	// Text returns the trimmed text of the first match.
	Text(ctx context.Context, sel locator.Selector) (string, bool, error)
	// Click clicks the first match, scrolling it into view. It reports
	// false when nothing matched.
	Click(ctx context.Context, sel locator.Selector) (bool, error)
	// OuterHTML returns the markup of every match.
	OuterHTML(ctx context.Context, sel locator.Selector) ([]string, error)
	// Scroll scrolls the first match (or the document when nothing matches)
	// down by dy pixels and returns the resulting scroll offset.
	Scroll(ctx context.Context, sel locator.Selector, dy int) (float64, error)
	PressKey(ctx context.Context, key string) error
	MouseClick(ctx context.Context, x, y float64) error
	HTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	// ResourceURLs lists resource-timing entries whose URL contains the
	// given substring, oldest first.
	ResourceURLs(ctx context.Context, contains string) ([]string, error)
	// Fetch issues a GET from inside the page so it inherits cookies and
	// session state.
	Fetch(ctx context.Context, url string) (FetchResult, error)
	Network() *Recorder
}

// Session is a Page bound to its own isolated browsing context. Release
// closes the context and is safe to call more than once.
type Session interface {
	Page
	ID() string
	Release()
}
