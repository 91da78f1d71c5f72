package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/locator"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// Session is one isolated browsing context on the shared engine.
type Session struct {
	mgr    *Manager
	info   *models.Session
	ctx    context.Context
	cancel context.CancelFunc
	rec    *browser.Recorder

	mu            sync.Mutex
	pendingBodies map[network.RequestID]bool
	releaseOnce   sync.Once
}

var _ browser.Session = (*Session)(nil)

func (s *Session) ID() string {
	return s.info.ID
}

// Info describes the session.
func (s *Session) Info() models.Session {
	return *s.info
}

// Release closes the browsing context and frees the slot. Later calls are
// no-ops.
func (s *Session) Release() {
	s.releaseOnce.Do(func() {
		s.mgr.release(s)
	})
}

func (s *Session) Network() *browser.Recorder {
	return s.rec
}

// run executes actions on the session's tab, bounded by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	if s.ctx == nil {
		return fmt.Errorf("session %s has no open tab", s.info.ID)
	}
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var stop context.CancelFunc
		runCtx, stop = context.WithDeadline(runCtx, deadline)
		defer stop()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (s *Session) eval(ctx context.Context, expr string, out interface{}) error {
	return s.run(ctx, chromedp.Evaluate(expr, out))
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	// the load event is enough; hydration is awaited separately
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *Session) Count(ctx context.Context, sel locator.Selector) (int, error) {
	var n int
	err := s.eval(ctx, fmt.Sprintf(`(%s).length`, queryJS(sel)), &n)
	return n, err
}

func (s *Session) Text(ctx context.Context, sel locator.Selector) (string, bool, error) {
	var res struct {
		Found bool   `json:"found"`
		Text  string `json:"text"`
	}
	expr := fmt.Sprintf(`(() => {
  const el = (%s)[0];
  return el ? { found: true, text: (el.textContent || '').trim() } : { found: false, text: '' };
})()`, queryJS(sel))
	if err := s.eval(ctx, expr, &res); err != nil {
		return "", false, err
	}
	return res.Text, res.Found, nil
}

// Click scrolls the first match into view and clicks its centre with a real
// mouse event, falling back to a DOM click for elements without a box.
func (s *Session) Click(ctx context.Context, sel locator.Selector) (bool, error) {
	var box struct {
		Found bool    `json:"found"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
		W     float64 `json:"w"`
		H     float64 `json:"h"`
	}
	expr := fmt.Sprintf(`(() => {
  const el = (%s)[0];
  if (!el) return { found: false };
  el.scrollIntoView({ block: 'center', inline: 'center' });
  const r = el.getBoundingClientRect();
  if (r.width === 0 || r.height === 0) { el.click(); }
  return { found: true, x: r.left + r.width / 2, y: r.top + r.height / 2, w: r.width, h: r.height };
})()`, queryJS(sel))
	if err := s.eval(ctx, expr, &box); err != nil {
		return false, err
	}
	if !box.Found {
		return false, nil
	}
	if box.W == 0 || box.H == 0 {
		return true, nil
	}
	if err := s.MouseClick(ctx, box.X, box.Y); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Session) OuterHTML(ctx context.Context, sel locator.Selector) ([]string, error) {
	var out []string
	err := s.eval(ctx, fmt.Sprintf(`(%s).map(el => el.outerHTML)`, queryJS(sel)), &out)
	return out, err
}

func (s *Session) Scroll(ctx context.Context, sel locator.Selector, dy int) (float64, error) {
	var pos float64
	expr := fmt.Sprintf(`(() => {
  const el = (%s)[0] || document.scrollingElement;
  el.scrollBy(0, %d);
  return el.scrollTop;
})()`, queryJS(sel), dy)
	err := s.eval(ctx, expr, &pos)
	return pos, err
}

func (s *Session) PressKey(ctx context.Context, key string) error {
	if key == browser.KeyEscape {
		key = kb.Escape
	}
	return s.run(ctx, chromedp.KeyEvent(key))
}

func (s *Session) MouseClick(ctx context.Context, x, y float64) error {
	return s.run(ctx, chromedp.MouseClickXY(x, y))
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := s.run(ctx, chromedp.FullScreenshot(&buf, 80))
	return buf, err
}

func (s *Session) ResourceURLs(ctx context.Context, contains string) ([]string, error) {
	var out []string
	expr := fmt.Sprintf(`performance.getEntriesByType('resource').map(e => e.name).filter(n => n.includes(%s))`, jsString(contains))
	err := s.eval(ctx, expr, &out)
	return out, err
}

func (s *Session) Fetch(ctx context.Context, url string) (browser.FetchResult, error) {
	var res browser.FetchResult
	expr := fmt.Sprintf(`fetch(%s, { credentials: 'include', headers: { accept: 'application/json' } })
  .then(async r => ({ status: r.status, body: await r.text() }))
  .catch(e => ({ status: 0, body: String(e) }))`, jsString(url))
	err := s.run(ctx, chromedp.Evaluate(expr, &res, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}))
	return res, err
}

// queryJS builds an expression yielding the array of elements matching sel.
// Invalid CSS yields an empty array.
func queryJS(sel locator.Selector) string {
	return fmt.Sprintf(`(() => {
  let els;
  try { els = Array.from(document.querySelectorAll(%s)); } catch (e) { return []; }
  const exact = %s, has = %s.toLowerCase();
  return els.filter(el => {
    const t = (el.textContent || '').trim();
    return (exact === '' || t === exact) && (has === '' || t.toLowerCase().includes(has));
  });
})()`, jsString(sel.CSS), jsString(sel.Text), jsString(sel.HasText))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
