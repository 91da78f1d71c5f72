package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shehryarbajwa/courtscout/internal/poll"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

const (
	maxFailedRequests = 10
	maxConsoleLines   = 50
	maxFailedURLLen   = 180
)

// Response is one observed response matching the availability pattern.
type Response struct {
	RequestID string
	URL       string
	Status    int64
	Body      []byte
	Seq       int
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Recorder keeps the network and console events of one page that the
// pipeline and diagnostics care about.
type Recorder struct {
	pattern     string
	assetMarker string
	siteHost    string

	mu            sync.Mutex
	seq           int
	entries       []*Response
	byID          map[string]*Response
	urls          map[string]string
	assetOK       int
	assetBlocked  int
	failed        []models.FailedRequest
	consoleErrors []string
	consoleInfos  []string
}

// NewRecorder tracks responses whose URL contains pattern. Requests to
// siteHost that fail are kept for diagnostics.
func NewRecorder(pattern, siteHost string) *Recorder {
	return &Recorder{
		pattern:     pattern,
		assetMarker: "/_next/",
		siteHost:    siteHost,
		byID:        make(map[string]*Response),
		urls:        make(map[string]string),
	}
}

// Pattern is the availability URL substring being tracked.
func (r *Recorder) Pattern() string {
	return r.pattern
}

// Mark returns a position; responses observed later have a greater Seq.
func (r *Recorder) Mark() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// RequestSent remembers the URL of a request for failure reporting.
func (r *Recorder) RequestSent(id, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls[id] = url
}

// ResponseReceived records response metadata. It returns true when the body
// should be fetched and passed to BodyLoaded.
func (r *Recorder) ResponseReceived(id, url string, status int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.Contains(url, r.assetMarker) {
		if status >= 200 && status < 300 {
			r.assetOK++
		} else {
			r.assetBlocked++
		}
	}
	if r.pattern == "" || !strings.Contains(url, r.pattern) {
		return false
	}

	r.seq++
	resp := &Response{RequestID: id, URL: url, Status: status, Seq: r.seq}
	r.entries = append(r.entries, resp)
	r.byID[id] = resp
	return resp.OK()
}

// BodyLoaded attaches a response body.
func (r *Recorder) BodyLoaded(id string, body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if resp, ok := r.byID[id]; ok {
		resp.Body = body
	}
}

// RequestFailed records a failed request to the site or its assets.
func (r *Recorder) RequestFailed(id, errText string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	url := r.urls[id]
	if url == "" || len(r.failed) >= maxFailedRequests {
		return
	}
	if !strings.Contains(url, r.siteHost) && !strings.Contains(url, r.assetMarker) {
		return
	}
	if errText == "" {
		errText = "unknown"
	}
	if len(url) > maxFailedURLLen {
		url = url[:maxFailedURLLen]
	}
	r.failed = append(r.failed, models.FailedRequest{URL: url, Error: errText})
}

// Console records a console message; errors and everything else are kept
// apart.
func (r *Recorder) Console(kind, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if kind == "error" {
		if len(r.consoleErrors) < maxConsoleLines {
			r.consoleErrors = append(r.consoleErrors, text)
		}
		return
	}
	if len(r.consoleInfos) < maxConsoleLines {
		r.consoleInfos = append(r.consoleInfos, kind+": "+text)
	}
}

// Captured returns successful availability responses with a body observed
// after the mark, in arrival order.
func (r *Recorder) Captured(since int) []Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Response
	for _, e := range r.entries {
		if e.Seq <= since || !e.OK() || len(e.Body) == 0 {
			continue
		}
		out = append(out, *e)
	}
	return out
}

// Seen reports whether a successful availability response matching match
// was observed after the mark.
func (r *Recorder) Seen(since int, match func(url string) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.Seq > since && e.OK() && (match == nil || match(e.URL)) {
			return true
		}
	}
	return false
}

// WaitFor polls until Seen succeeds or the timeout elapses.
func (r *Recorder) WaitFor(ctx context.Context, since int, timeout time.Duration, match func(url string) bool) bool {
	_, ok := poll.Until(ctx, timeout, 100*time.Millisecond, func(context.Context) (struct{}, bool) {
		return struct{}{}, r.Seen(since, match)
	})
	return ok
}

// LastAvailabilityURL is the most recent successful availability URL.
func (r *Recorder) LastAvailabilityURL() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].OK() {
			return r.entries[i].URL, true
		}
	}
	return "", false
}

// Fill copies the collected counters into d.
func (r *Recorder) Fill(d *models.Diagnostics) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d.Next = models.NetworkDiagnostics{
		OK:      r.assetOK,
		Blocked: r.assetBlocked,
		Failed:  append([]models.FailedRequest{}, r.failed...),
	}
	d.Errors = append([]string{}, r.consoleErrors...)
	d.Infos = append([]string{}, r.consoleInfos...)
}
