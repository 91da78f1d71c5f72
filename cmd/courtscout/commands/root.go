package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shehryarbajwa/courtscout/internal/browser"
	"github.com/shehryarbajwa/courtscout/internal/config"
	"github.com/shehryarbajwa/courtscout/internal/logging"
	"github.com/shehryarbajwa/courtscout/internal/scraper"
	"github.com/shehryarbajwa/courtscout/internal/session"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "courtscout",
	Short:         "courtscout reads court availability and prices from the booking site.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress to stderr.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is one engine with the scraper on top of it, torn down on close.
type app struct {
	svc    *scraper.Service
	engine *browser.Engine
	log    *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log, err := logging.New(false, level)
	if err != nil {
		return nil, err
	}

	engine := browser.NewEngine(cfg, log.Named("engine"))
	sessions := session.NewManager(engine, cfg, log.Named("session"))
	return &app{
		svc:    scraper.NewService(sessions, cfg, log.Named("scraper")),
		engine: engine,
		log:    log,
	}, nil
}

func (a *app) close() {
	a.engine.Shutdown()
	_ = a.log.Sync()
}
