package session

import (
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
)

// onEvent runs on the target's event loop and must not block; CDP calls are
// issued from goroutines.
func (s *Session) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *fetch.EventRequestPaused:
		block := browser.ShouldBlock(ev.ResourceType, ev.Request.URL)
		go s.resolvePaused(ev.RequestID, block)

	case *network.EventRequestWillBeSent:
		s.rec.RequestSent(string(ev.RequestID), ev.Request.URL)

	case *network.EventResponseReceived:
		if s.rec.ResponseReceived(string(ev.RequestID), ev.Response.URL, ev.Response.Status) {
			s.mu.Lock()
			s.pendingBodies[ev.RequestID] = true
			s.mu.Unlock()
		}

	case *network.EventLoadingFinished:
		s.mu.Lock()
		wanted := s.pendingBodies[ev.RequestID]
		delete(s.pendingBodies, ev.RequestID)
		s.mu.Unlock()
		if wanted {
			go s.loadBody(ev.RequestID)
		}

	case *network.EventLoadingFailed:
		if !ev.Canceled {
			s.rec.RequestFailed(string(ev.RequestID), ev.ErrorText)
		}

	case *runtime.EventConsoleAPICalled:
		var parts []string
		for _, arg := range ev.Args {
			switch {
			case arg.Description != "":
				parts = append(parts, arg.Description)
			case len(arg.Value) > 0:
				parts = append(parts, strings.Trim(string(arg.Value), `"`))
			}
		}
		s.rec.Console(string(ev.Type), strings.Join(parts, " "))
	}
}

func (s *Session) resolvePaused(id fetch.RequestID, block bool) {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	ctx := cdp.WithExecutor(s.ctx, c.Target)

	var err error
	if block {
		err = fetch.FailRequest(id, network.ErrorReasonBlockedByClient).Do(ctx)
	} else {
		err = fetch.ContinueRequest(id).Do(ctx)
	}
	if err != nil && s.ctx.Err() == nil {
		s.mgr.log.Debug("failed to resolve paused request", zap.Error(err))
	}
}

func (s *Session) loadBody(id network.RequestID) {
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	body, err := network.GetResponseBody(id).Do(cdp.WithExecutor(s.ctx, c.Target))
	if err != nil {
		if s.ctx.Err() == nil {
			s.mgr.log.Debug("failed to read availability body", zap.Error(err))
		}
		return
	}
	s.rec.BodyLoaded(string(id), body)
}
