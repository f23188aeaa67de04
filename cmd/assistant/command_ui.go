package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"assistant/internal/app"
	"assistant/internal/config"
	"assistant/internal/journal"
	"assistant/internal/logging"
)

type uiRunner func(ctx context.Context, session app.Session, opts app.Options) error

func runTerminalUI(ctx context.Context, session app.Session, opts app.Options) error {
	return app.Run(ctx, session, opts)
}

type UICommand struct {
	stderr io.Writer
	deps   commandDeps
	runUI  uiRunner
	// openLog returns the writer the UI logs to; the terminal itself is
	// owned by the UI while it runs.
	openLog func(cfg config.Config) (io.WriteCloser, error)
}

func NewUICommand(stderr io.Writer, deps commandDeps, runUI uiRunner) *UICommand {
	return &UICommand{
		stderr:  stderr,
		deps:    deps,
		runUI:   runUI,
		openLog: openUILog,
	}
}

func (c *UICommand) Run(args []string) error {
	fs := flag.NewFlagSet("ui", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	pageSize := fs.Int("page-size", 0, "messages per page (overrides ui.page_size)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.deps.loadConfig()
	if err != nil {
		return err
	}
	if *pageSize > 0 {
		cfg.UI.PageSize = *pageSize
	}
	logger := logging.Nop()
	if c.openLog != nil {
		logFile, err := c.openLog(cfg)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger = logging.NewWithFormat(logFile, logging.ParseLevel(cfg.LogLevel()), cfg.LogFormat())
	}

	client, err := c.deps.newClient(cfg, logger)
	if err != nil {
		return err
	}
	snapshots, err := c.deps.openStore(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(snapshots, logger)

	session := journal.New(client, snapshots, journal.Options{
		PageSize: cfg.UI.PageSizeOrDefault(),
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info("ui_start", logging.F("base_url", cfg.BaseURL()), logging.F("storage", snapshots.Backend()))
	return c.runUI(ctx, session, app.Options{
		UI:     cfg.UI,
		Logger: logger,
	})
}

func openUILog(cfg config.Config) (io.WriteCloser, error) {
	logPath, err := config.UILogPath()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return nil, err
	}
	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
}
