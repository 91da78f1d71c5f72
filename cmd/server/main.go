package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/api"
	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/config"
	"github.com/shehryarbajwa/courtscout/internal/logging"
	"github.com/shehryarbajwa/courtscout/internal/proxy"
	"github.com/shehryarbajwa/courtscout/internal/ratelimit"
	"github.com/shehryarbajwa/courtscout/internal/scraper"
	"github.com/shehryarbajwa/courtscout/internal/session"
)

const (
	limiterPruneEvery = 10 * time.Minute
	limiterIdle       = time.Hour
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting CourtScout...", zap.String("env", cfg.Env), zap.String("engine", cfg.EngineMode))

	// The engine launches lazily on the first session
	engine := browser.NewEngine(cfg, log.Named("engine"))
	log.Info("✓ Engine configured", zap.String("mode", cfg.EngineMode))

	sessionMgr := session.NewManager(engine, cfg, log.Named("session"))
	log.Info("✓ Session manager initialized", zap.Int64("max_sessions", cfg.MaxSessions))

	svc := scraper.NewService(sessionMgr, cfg, log.Named("scraper"))

	proxyServer := proxy.NewServer(engine, log.Named("proxy"))
	log.Info("✓ WebSocket proxy initialized")

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerHour, cfg.RateLimitBurst)
	log.Info("✓ Rate limiter initialized",
		zap.Int("per_hour", cfg.RateLimitPerHour),
		zap.Int("burst", cfg.RateLimitBurst))

	handler := api.NewHandler(svc, sessionMgr, cfg.Location(), log)
	router := handler.SetupRoutes(proxyServer, rateLimiter, cfg.RateLimitPerHour)
	log.Info("✓ HTTP routes configured")

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	pruneCtx, stopPrune := context.WithCancel(context.Background())
	defer stopPrune()
	go func() {
		ticker := time.NewTicker(limiterPruneEvery)
		defer ticker.Stop()
		for {
			select {
			case <-pruneCtx.Done():
				return
			case <-ticker.C:
				if n := rateLimiter.Prune(limiterIdle); n > 0 {
					log.Debug("pruned idle rate limit clients", zap.Int("count", n))
				}
			}
		}
	}()

	go func() {
		log.Info("🚀 Server starting", zap.String("addr", "http://localhost:"+cfg.Port))
		log.Info("📍 API endpoints available", zap.String("base", "http://localhost:"+cfg.Port+"/v1"))
		log.Info("🔍 Debug: live WebSocket proxy at /v1/engine/ws")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("⏳ Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sessionMgr.Close()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	engine.Shutdown()

	log.Info("✅ Server stopped cleanly")
}
