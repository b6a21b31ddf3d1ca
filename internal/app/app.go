// Package app wires configuration, dataset, search engine, cache and coach
// into one value shared by the API server and the CLI.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/BrainPreserve/supplements/internal/cache"
	"github.com/BrainPreserve/supplements/internal/coach"
	"github.com/BrainPreserve/supplements/internal/config"
	"github.com/BrainPreserve/supplements/internal/observability"
	"github.com/BrainPreserve/supplements/internal/search"
)

const purgeTimeout = 5 * time.Second

// App holds the wired services.
type App struct {
	Config  *config.Config
	Logger  *observability.Logger
	Metrics *observability.Metrics
	Engine  *Catalog
	Cache   cache.Client
	Coach   *coach.Service
}

// Options tune how New builds the logger.
type Options struct {
	// LogOutput overrides the logger destination (stdout when nil).
	LogOutput io.Writer
	// LogLevel overrides the configured level when set.
	LogLevel string
	// LogFormat overrides the configured format when set.
	LogFormat string
}

// New builds an App from an already loaded configuration.
func New(cfg *config.Config, opts Options) (*App, error) {
	level := cfg.Observability.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	format := cfg.Observability.LogFormat
	if opts.LogFormat != "" {
		format = opts.LogFormat
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       level,
		Format:      format,
		Output:      opts.LogOutput,
		ServiceName: cfg.Observability.ServiceName,
	})

	metrics := observability.NewMetrics()

	catalog, err := NewCatalog(cfg.Dataset, search.Options{MechanismMatch: cfg.Search.MechanismMatch}, metrics, logger)
	if err != nil {
		return nil, err
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	var completer coach.Completer
	switch {
	case !cfg.Coach.Enabled:
		logger.Info().Msg("Coaching text disabled")
	case cfg.Coach.APIKey == "":
		logger.Warn().Msg("OPENAI_API_KEY not set; coaching text unavailable")
	default:
		completer = coach.NewLLMClient(cfg.Coach, logger)
	}

	svc := coach.NewService(cfg.Coach, completer, c, cfg.Cache.TTL, metrics, logger)
	catalog.OnReload(func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if err := svc.Purge(ctx); err != nil {
			logger.Warn().Err(err).Msg("Coach cache not purged after reload")
		}
	})

	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Engine:  catalog,
		Cache:   c,
		Coach:   svc,
	}, nil
}

// WatchDataset starts reloading the dataset on file changes when
// dataset.watch is enabled. The returned stop function is never nil.
func (a *App) WatchDataset(ctx context.Context) (stop func(), err error) {
	if !a.Config.Dataset.Watch {
		return func() {}, nil
	}
	w, err := NewDatasetWatcher(a.Engine, a.Config.Dataset.WatchDebounce, a.Logger)
	if err != nil {
		return func() {}, err
	}
	if err := w.Start(ctx); err != nil {
		w.Stop()
		return func() {}, err
	}
	return w.Stop, nil
}

// Close releases the cache connection.
func (a *App) Close() error {
	if a.Cache == nil {
		return nil
	}
	return a.Cache.Close()
}
