package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/salahplan/internal/aiparse"
	"github.com/sandeepkv93/salahplan/internal/config"
	"github.com/sandeepkv93/salahplan/internal/notify"
	"github.com/sandeepkv93/salahplan/internal/planner"
	"github.com/sandeepkv93/salahplan/internal/prayertimes"
	"github.com/sandeepkv93/salahplan/internal/storage"
)

// app is one running planner with everything it was built from.
type app struct {
	cfg    config.RuntimeConfig
	logger *log.Logger
	store  storage.Store
	rt     *planner.Runtime
	parser aiparse.Parser

	stop    context.CancelFunc
	done    chan error
	logFile *os.File
}

// newLogger writes to stderr, or to the configured log file when the
// terminal belongs to the TUI.
func newLogger(cfg config.RuntimeConfig, tui bool) (*log.Logger, *os.File, error) {
	var out io.Writer = os.Stderr
	var file *os.File
	if tui {
		out = io.Discard
		if cfg.LogFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
				return nil, nil, fmt.Errorf("create log dir: %w", err)
			}
			f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				return nil, nil, fmt.Errorf("open log file: %w", err)
			}
			out, file = f, f
		}
	}
	logger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "salahplan",
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger, file, nil
}

func openStore(ctx context.Context, cfg config.RuntimeConfig) (storage.Store, error) {
	if cfg.StorageDriver != "memory" && cfg.StorageDriver != "postgres" && cfg.StoragePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	return storage.Open(ctx, storage.Options{
		Driver: cfg.StorageDriver,
		Path:   cfg.StoragePath,
		DSN:    cfg.PostgresDSN,
	})
}

// startApp wires the planner from cfg and starts its loop.
func startApp(cmd *cobra.Command, opts *rootOptions, tui bool) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	logger, logFile, err := newLogger(cfg, tui)
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, errors.Join(err, closeFile(logFile))
	}

	var notifier notify.DesktopNotifier = notify.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = notify.ExecDesktopNotifier{Timeout: cfg.HTTPTimeout}
	}
	rt, err := planner.NewRuntime(ctx, planner.Options{
		Store:                store,
		Provider:             prayertimes.NewAladhanClient(cfg.PrayerAPIBaseURL, cfg.HTTPTimeout),
		Sink:                 notify.NewSink(notifier, cfg.DesktopNotifications, logger),
		Logger:               logger,
		SchedulerBuffer:      cfg.SchedulerBuffer,
		PollInterval:         cfg.PollInterval,
		AutoCompleteInterval: cfg.AutoCompleteInterval,
		FetchTimeout:         cfg.HTTPTimeout,
	})
	if err != nil {
		return nil, errors.Join(err, store.Close(), closeFile(logFile))
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		rt:      rt,
		done:    make(chan error, 1),
		logFile: logFile,
	}
	if cfg.GeminiAPIKey != "" {
		a.parser = aiparse.NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.HTTPTimeout)
	}

	runCtx, stop := context.WithCancel(context.Background())
	a.stop = stop
	go func() { a.done <- rt.Run(runCtx) }()
	logger.Debug("planner started", "storage", cfg.StorageDriver, "path", cfg.StoragePath)
	return a, nil
}

// Close stops the loop, which saves the last state, then releases the store.
func (a *app) Close() error {
	a.stop()
	runErr := <-a.done
	return errors.Join(runErr, a.store.Close(), closeFile(a.logFile))
}

func closeFile(f *os.File) error {
	if f == nil {
		return nil
	}
	return f.Close()
}

// withApp runs fn against a started planner and always shuts it down.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) (err error) {
	a, err := startApp(cmd, opts, false)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout+requestSlack)
	defer cancel()
	return fn(ctx, a)
}
