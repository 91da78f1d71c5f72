package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/config"
	"github.com/shehryarbajwa/courtscout/pkg/models"
)

// ErrManagerClosed is returned by Acquire after Close.
var ErrManagerClosed = errors.New("session manager closed")

// BrowserSource hands out the shared browser context.
type BrowserSource interface {
	Browser(ctx context.Context) (context.Context, error)
}

// Manager hands out isolated sessions on the shared engine, at most
// MAX_SESSIONS at a time.
type Manager struct {
	engine   BrowserSource
	cfg      *config.Config
	log      *zap.Logger
	slots    *semaphore.Weighted
	sessions sync.Map

	mu     sync.RWMutex
	closed bool

	// open builds the tab for a session; swapped out in tests.
	open func(ctx context.Context, s *Session) error
}

// NewManager creates a session manager on top of engine.
func NewManager(engine BrowserSource, cfg *config.Config, log *zap.Logger) *Manager {
	m := &Manager{
		engine: engine,
		cfg:    cfg,
		log:    log,
		slots:  semaphore.NewWeighted(cfg.MaxSessions),
	}
	m.open = m.openTab
	return m
}

// Acquire waits for a free slot, then opens a fresh browsing context with the
// fixed fingerprint applied. The caller must Release the session.
func (m *Manager) Acquire(ctx context.Context) (browser.Session, error) {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()
	if closed {
		return nil, ErrManagerClosed
	}

	if err := m.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("failed to acquire session slot: %w", err)
	}

	s := &Session{
		mgr:  m,
		info: &models.Session{
			ID:     uuid.New().String(),
			Status: models.StatusActive,
			Viewport: models.Viewport{
				Width:  browser.ViewportWidth,
				Height: browser.ViewportHeight,
			},
			Locale:    browser.Locale,
			Timezone:  m.cfg.Timezone,
			UserAgent: browser.UserAgent,
			StartedAt: time.Now(),
		},
		rec:           browser.NewRecorder(m.cfg.AvailabilityPattern, siteHost(m.cfg.BaseURL)),
		pendingBodies: make(map[network.RequestID]bool),
	}

	if err := m.open(ctx, s); err != nil {
		s.Release()
		return nil, err
	}

	m.sessions.Store(s.info.ID, *s.info)
	m.log.Debug("session acquired", zap.String("session", s.info.ID))
	return s, nil
}

// ListSessions returns the sessions currently open.
func (m *Manager) ListSessions() []models.Session {
	out := []models.Session{}
	m.sessions.Range(func(_, value interface{}) bool {
		out = append(out, value.(models.Session))
		return true
	})
	return out
}

// Close refuses further acquisitions. Open sessions stay valid until
// released.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *Manager) release(s *Session) {
	if s.cancel != nil {
		s.cancel()
	}
	m.sessions.Delete(s.info.ID)
	s.info.Status = models.StatusReleased
	m.slots.Release(1)
	m.log.Debug("session released", zap.String("session", s.info.ID))
}

func (m *Manager) openTab(ctx context.Context, s *Session) error {
	browserCtx, err := m.engine.Browser(ctx)
	if err != nil {
		return err
	}

	tabCtx, cancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
	s.ctx = tabCtx
	s.cancel = cancel

	chromedp.ListenTarget(tabCtx, s.onEvent)

	// the first Run creates the target and binds its lifetime, so it gets no
	// deadline of its own
	if err := chromedp.Run(tabCtx); err != nil {
		return fmt.Errorf("failed to open browsing context: %w", err)
	}

	setupCtx, stop := context.WithTimeout(ctx, 30*time.Second)
	defer stop()
	if err := s.run(setupCtx, setupActions(m.cfg.Timezone)...); err != nil {
		return fmt.Errorf("failed to prepare browsing context: %w", err)
	}
	return nil
}

func siteHost(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	return u.Host
}
