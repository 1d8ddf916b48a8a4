package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/newthinker/smaprob/internal/backtest"
	"github.com/newthinker/smaprob/internal/collector"
	"github.com/newthinker/smaprob/internal/collector/cache"
	"github.com/newthinker/smaprob/internal/collector/csvfile"
	"github.com/newthinker/smaprob/internal/collector/yahoo"
	"github.com/newthinker/smaprob/internal/config"
	"github.com/newthinker/smaprob/internal/core"
	"github.com/newthinker/smaprob/internal/logger"
	"github.com/newthinker/smaprob/internal/metrics"
	"github.com/newthinker/smaprob/internal/notifier"
	"github.com/newthinker/smaprob/internal/notifier/telegram"
	"github.com/newthinker/smaprob/internal/notifier/webhook"
	"github.com/newthinker/smaprob/internal/storage/archive"
	"github.com/newthinker/smaprob/internal/storage/results"
	"github.com/newthinker/smaprob/internal/trace"
)

// env bundles the collaborators a command needs
type env struct {
	cfg        *config.Config
	log        *zap.Logger
	provider   collector.Collector
	backtester *backtest.Backtester
	archiver   *archive.Archiver
	results    results.Store
	metrics    *metrics.Registry
	notifiers  *notifier.Registry
	closers    []func() error
}

// loadConfig reads .env and the config file. Flags are applied by the caller
// before validation.
func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newEnv validates cfg and builds the provider chain, storage and telemetry
func newEnv(ctx context.Context, cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Development: debug, Level: level, Output: cfg.Log.Output})
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log, metrics: metrics.NewRegistry()}

	if err := e.initTracing(); err != nil {
		e.close()
		return nil, err
	}

	provider, err := e.buildProvider()
	if err != nil {
		e.close()
		return nil, err
	}
	e.provider = provider
	e.backtester = backtest.New(provider, cfg.MovingAverageWindow, log)

	store, err := archive.New(archive.Config{
		Type: cfg.Storage.Archive.Type,
		Path: cfg.Storage.Archive.Path,
		S3: archive.S3Config{
			Bucket:    cfg.Storage.Archive.S3.Bucket,
			Endpoint:  cfg.Storage.Archive.S3.Endpoint,
			Region:    cfg.Storage.Archive.S3.Region,
			AccessKey: cfg.Storage.Archive.S3.AccessKey,
			SecretKey: cfg.Storage.Archive.S3.SecretKey,
			Prefix:    cfg.Storage.Archive.S3.Prefix,
		},
	})
	if err != nil {
		e.close()
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	if store != nil {
		e.archiver = archive.NewArchiver(store, log)
	}

	if err := e.buildResults(ctx); err != nil {
		e.close()
		return nil, err
	}

	if err := e.buildNotifiers(); err != nil {
		e.close()
		return nil, err
	}

	log.Debug("environment ready",
		zap.String("provider", provider.Name()),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.String("archive", cfg.Storage.Archive.Type),
		zap.Bool("postgres", cfg.Storage.Results.DSN != ""),
		zap.Strings("notifiers", e.notifiers.Names()),
	)
	return e, nil
}

func (e *env) initTracing() error {
	if !e.cfg.Tracing.Enabled {
		return nil
	}
	var out io.Writer
	if e.cfg.Tracing.Output != "" {
		f, err := os.OpenFile(e.cfg.Tracing.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("opening trace output: %w", err)
		}
		e.closers = append(e.closers, f.Close)
		out = f
	}
	if err := trace.Init(trace.Config{Enabled: true, ServiceName: "smaprob", Version: Version, Output: out}); err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	// Registered after the file so spans are flushed before it is closed.
	e.closers = append(e.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return trace.Shutdown(ctx)
	})
	return nil
}

func (e *env) buildProvider() (collector.Collector, error) {
	reg := collector.NewRegistry()
	reg.Register(yahoo.New())
	reg.Register(csvfile.New())

	pc := e.cfg.Provider
	provider, err := reg.Open(pc.Name, collector.Config{
		BaseURL:  pc.BaseURL,
		Timeout:  pc.Timeout,
		Dir:      pc.Dir,
		Adjusted: pc.Adjusted,
	})
	if err != nil {
		return nil, err
	}

	if !e.cfg.Cache.Enabled {
		return provider, nil
	}
	opts := cache.Options{
		Addr:     e.cfg.Cache.Addr,
		Password: e.cfg.Cache.Password,
		DB:       e.cfg.Cache.DB,
		Prefix:   e.cfg.Cache.Prefix,
		TTL:      e.cfg.Cache.TTL,
	}
	client := cache.NewClient(opts)
	e.closers = append(e.closers, client.Close)
	return cache.New(provider, client, opts, e.log), nil
}

func (e *env) buildResults(ctx context.Context) error {
	dsn := e.cfg.Storage.Results.DSN
	if dsn == "" {
		e.results = results.NewMemoryStore(e.cfg.Storage.Results.MaxRuns)
		return nil
	}

	store, err := results.OpenPostgres(ctx, dsn)
	if err != nil {
		return err
	}
	e.closers = append(e.closers, store.Close)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	e.results = store
	return nil
}

func (e *env) buildNotifiers() error {
	e.notifiers = notifier.NewRegistry()
	nc := e.cfg.Notify

	if nc.Webhook.URL != "" {
		w, err := webhook.New(nc.Webhook.URL, nc.Webhook.Headers)
		if err != nil {
			return err
		}
		if err := e.notifiers.Register(w); err != nil {
			return err
		}
	}
	if nc.Telegram.BotToken != "" {
		tg, err := telegram.New(nc.Telegram.BotToken, nc.Telegram.ChatID)
		if err != nil {
			return err
		}
		if err := e.notifiers.Register(tg); err != nil {
			return err
		}
	}
	return nil
}

// close writes the metrics textfile and releases resources
func (e *env) close() {
	if path := e.cfg.Metrics.Textfile; path != "" {
		if err := e.metrics.WriteTextfile(path); err != nil {
			e.log.Warn("writing metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("closing resource", zap.Error(err))
		}
	}
	_ = e.log.Sync()
}

// period returns the evaluation range in UTC: end is the day before now and
// start is pastDays calendar days earlier.
func period(now time.Time, pastDays int) (start, end time.Time) {
	end = core.TruncateDay(now.UTC()).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -pastDays)
	return start, end
}
