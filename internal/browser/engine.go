package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/config"
)

// ErrEngineLaunch is returned when the shared engine cannot be started or
// reached.
var ErrEngineLaunch = errors.New("rendering engine launch failed")

type instance struct {
	browserCtx context.Context
	cancel     func()
	endpoint   string
	healthy    func(ctx context.Context) bool
}

// Engine owns the one browser process shared by every session. It is
// started lazily and restarted when the previous process went away.
type Engine struct {
	cfg  *config.Config
	log  *zap.Logger
	http *resty.Client

	mu       sync.Mutex
	current  *instance
	launches int

	launch func(ctx context.Context) (*instance, error)
	alive  func(ctx context.Context, in *instance) bool
}

// NewEngine creates an engine; nothing is launched until Browser is called.
func NewEngine(cfg *config.Config, log *zap.Logger) *Engine {
	e := &Engine{
		cfg:  cfg,
		log:  log,
		http: resty.New().SetTimeout(5 * time.Second),
	}
	e.launch = e.start
	e.alive = e.ping
	return e
}

// Browser returns the live browser context, launching the engine if none is
// connected. A failed launch is reported as ErrEngineLaunch and is not
// retried within the call.
func (e *Engine) Browser(ctx context.Context) (context.Context, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		if e.alive(ctx, e.current) {
			return e.current.browserCtx, nil
		}
		e.log.Warn("⚠️ engine disconnected, relaunching")
		e.current.cancel()
		e.current = nil
	}

	started := time.Now()
	in, err := e.launch(ctx)
	if err != nil {
		e.log.Error("❌ engine launch failed", zap.String("mode", e.cfg.EngineMode), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrEngineLaunch, err)
	}
	e.current = in
	e.launches++
	e.log.Info("🚀 engine launched",
		zap.String("mode", e.cfg.EngineMode),
		zap.Int("launches", e.launches),
		zap.Duration("took", time.Since(started)))
	return in.browserCtx, nil
}

// Launches is the number of engine processes started so far.
func (e *Engine) Launches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.launches
}

// DevtoolsURL returns a websocket URL a devtools client can attach to.
func (e *Engine) DevtoolsURL(ctx context.Context) (string, error) {
	if _, err := e.Browser(ctx); err != nil {
		return "", err
	}

	e.mu.Lock()
	endpoint := e.current.endpoint
	e.mu.Unlock()

	if endpoint == "" {
		return "", fmt.Errorf("engine does not expose a devtools endpoint")
	}
	if strings.HasPrefix(endpoint, "ws") {
		return endpoint, nil
	}

	var version struct {
		WebSocketDebuggerURL string `json:"webSocketDebuggerUrl"`
	}
	resp, err := e.http.R().
		SetContext(ctx).
		SetResult(&version).
		Get(strings.TrimSuffix(endpoint, "/") + "/json/version")
	if err != nil {
		return "", fmt.Errorf("failed to resolve devtools endpoint: %w", err)
	}
	if resp.IsError() || version.WebSocketDebuggerURL == "" {
		return "", fmt.Errorf("devtools endpoint answered %d", resp.StatusCode())
	}
	return version.WebSocketDebuggerURL, nil
}

// Shutdown closes the browser and everything started for it.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		e.current.cancel()
		e.current = nil
		e.log.Info("✓ engine stopped")
	}
}

func (e *Engine) start(ctx context.Context) (*instance, error) {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
		endpoint    string
		cleanup     func()
		healthy     func(ctx context.Context) bool
	)

	switch e.cfg.EngineMode {
	case config.EngineRemote:
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), e.cfg.EngineURL)
		endpoint = e.cfg.EngineURL
	case config.EngineDocker:
		launcher, err := NewContainerLauncher(e.cfg.EngineImage, e.cfg.MaxSessions, e.log)
		if err != nil {
			return nil, err
		}
		inst, err := launcher.Launch(ctx)
		if err != nil {
			launcher.Close()
			return nil, err
		}
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), inst.ConnectURL)
		endpoint = inst.ConnectURL
		healthy = func(ctx context.Context) bool {
			return launcher.IsHealthy(ctx, inst.ContainerID)
		}
		cleanup = func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := launcher.Stop(stopCtx, inst.ContainerID); err != nil {
				e.log.Warn("failed to stop engine container", zap.Error(err))
			}
			launcher.Close()
		}
	default:
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), e.execOptions()...)
		if e.cfg.DebugPort > 0 {
			endpoint = fmt.Sprintf("http://127.0.0.1:%d", e.cfg.DebugPort)
		}
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
		if cleanup != nil {
			cleanup()
		}
	}

	// the first Run allocates the browser; it must not carry a deadline
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, err
	}

	return &instance{browserCtx: browserCtx, cancel: cancel, endpoint: endpoint, healthy: healthy}, nil
}

func (e *Engine) execOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-zygote", true),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(UserAgent),
		chromedp.WindowSize(ViewportWidth, ViewportHeight),
	)
	if e.cfg.DebugPort > 0 {
		opts = append(opts, chromedp.Flag("remote-debugging-port", strconv.Itoa(e.cfg.DebugPort)))
	}
	if e.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(e.cfg.ChromePath))
	}
	return opts
}

func (e *Engine) ping(ctx context.Context, in *instance) bool {
	if in.browserCtx.Err() != nil {
		return false
	}
	c := chromedp.FromContext(in.browserCtx)
	if c == nil || c.Browser == nil {
		return false
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if in.healthy != nil && !in.healthy(pingCtx) {
		return false
	}
	_, _, _, _, _, err := cdpbrowser.GetVersion().Do(cdp.WithExecutor(pingCtx, c.Browser))
	return err == nil
}
