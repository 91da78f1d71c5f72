// Package browsertest provides an in-memory browser.Page backed by a static
// HTML document, for exercising pipeline stages without a browser.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/locator"
)

// Page answers selector queries against Doc. Hooks let a test react to
// clicks and key presses the way the real page would.
type Page struct {
	mu  sync.Mutex
	doc string
	rec *browser.Recorder

	// OnClick runs after a successful click.
	OnClick func(sel locator.Selector)
	// OnKey runs after every key press.
	OnKey func(key string)
	// OnScroll runs after every scroll with the new offset.
	OnScroll func(pos float64)
	// FetchFn answers in-page fetches; unset means status 0.
	FetchFn func(url string) (browser.FetchResult, error)
	// NavigateErr is returned by Navigate when set.
	NavigateErr error

	Resources []string
	ScrollMax float64
	Shot      []byte

	scrollPos float64
	navigated []string
	clicks    []string
	keys      []string
	mouse     [][2]float64
	fetched   []string
}

// NewPage returns a page serving doc and recording availability traffic
// under the default pattern.
func NewPage(doc string) *Page {
	return &Page{
		doc: doc,
		rec: browser.NewRecorder("/api/clubs/availability", "playtomic.com"),
	}
}

// SetDoc replaces the served document.
func (p *Page) SetDoc(doc string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
}

// Navigated lists every URL passed to Navigate.
func (p *Page) Navigated() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.navigated...)
}

// Clicks lists every attempted click, matched or not.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.clicks...)
}

// Keys lists pressed keys.
func (p *Page) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.keys...)
}

// MouseClicks lists coordinate clicks.
func (p *Page) MouseClicks() [][2]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][2]float64{}, p.mouse...)
}

// Fetched lists URLs requested through Fetch.
func (p *Page) Fetched() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.fetched...)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navigated = append(p.navigated, url)
	return p.NavigateErr
}

func (p *Page) Count(ctx context.Context, sel locator.Selector) (int, error) {
	matches, err := p.find(sel)
	return len(matches), err
}

func (p *Page) Text(ctx context.Context, sel locator.Selector) (string, bool, error) {
	matches, err := p.find(sel)
	if err != nil || len(matches) == 0 {
		return "", false, err
	}
	return strings.TrimSpace(matches[0].Text()), true, nil
}

func (p *Page) Click(ctx context.Context, sel locator.Selector) (bool, error) {
	matches, err := p.find(sel)

	p.mu.Lock()
	p.clicks = append(p.clicks, sel.String())
	hook := p.OnClick
	p.mu.Unlock()

	if err != nil || len(matches) == 0 {
		return false, err
	}
	if hook != nil {
		hook(sel)
	}
	return true, nil
}

func (p *Page) OuterHTML(ctx context.Context, sel locator.Selector) ([]string, error) {
	matches, err := p.find(sel)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		html, err := goquery.OuterHtml(m)
		if err != nil {
			return nil, err
		}
		out = append(out, html)
	}
	return out, nil
}

func (p *Page) Scroll(ctx context.Context, sel locator.Selector, dy int) (float64, error) {
	p.mu.Lock()
	p.scrollPos += float64(dy)
	if p.scrollPos > p.ScrollMax {
		p.scrollPos = p.ScrollMax
	}
	pos := p.scrollPos
	hook := p.OnScroll
	p.mu.Unlock()

	if hook != nil {
		hook(pos)
	}
	return pos, nil
}

func (p *Page) PressKey(ctx context.Context, key string) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	hook := p.OnKey
	p.mu.Unlock()

	if hook != nil {
		hook(key)
	}
	return nil
}

func (p *Page) MouseClick(ctx context.Context, x, y float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mouse = append(p.mouse, [2]float64{x, y})
	return nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Shot == nil {
		return nil, fmt.Errorf("no screenshot configured")
	}
	return p.Shot, nil
}

func (p *Page) ResourceURLs(ctx context.Context, contains string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, u := range p.Resources {
		if strings.Contains(u, contains) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (p *Page) Fetch(ctx context.Context, url string) (browser.FetchResult, error) {
	p.mu.Lock()
	p.fetched = append(p.fetched, url)
	fn := p.FetchFn
	p.mu.Unlock()

	if fn == nil {
		return browser.FetchResult{}, nil
	}
	return fn(url)
}

func (p *Page) Network() *browser.Recorder {
	return p.rec
}

func (p *Page) find(sel locator.Selector) ([]*goquery.Selection, error) {
	p.mu.Lock()
	doc := p.doc
	p.mu.Unlock()

	if sel.Empty() {
		return nil, nil
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	var out []*goquery.Selection
	d.Find(sel.CSS).Each(func(_ int, s *goquery.Selection) {
		if sel.Matches(s.Text()) {
			out = append(out, s)
		}
	})
	return out, nil
}

// Session wraps a Page as a browser.Session and counts releases.
type Session struct {
	*Page
	id       string
	mu       sync.Mutex
	releases int
}

// NewSession wraps page.
func NewSession(id string, page *Page) *Session {
	return &Session{Page: page, id: id}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releases++
}

// Releases reports how many times Release was called.
func (s *Session) Releases() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releases
}

var _ browser.Session = (*Session)(nil)
