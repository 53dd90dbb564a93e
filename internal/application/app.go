package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pep299/trends-dashboard/internal/archive"
	"github.com/pep299/trends-dashboard/internal/cache"
	"github.com/pep299/trends-dashboard/internal/config"
	"github.com/pep299/trends-dashboard/internal/gtrends"
	"github.com/pep299/trends-dashboard/internal/handlers"
	"github.com/pep299/trends-dashboard/internal/service"
	"github.com/pep299/trends-dashboard/internal/session"
	"github.com/pep299/trends-dashboard/internal/slack"
	"github.com/pep299/trends-dashboard/internal/watchlist"
)

// Application wires every component the server and the Cloud Function need
type Application struct {
	Config  *config.Config
	Service *service.Service
	Runner  *watchlist.Runner
	Server  *handlers.Server
	handler http.Handler
	cleanup []func() error
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config, version string) (*Application, error) {
	return NewWithFetcher(ctx, cfg, version, gtrends.NewClient(gtrends.Options{
		BaseURL:           cfg.TrendsBaseURL,
		Language:          cfg.TrendsLanguage,
		TZOffset:          cfg.TrendsTZ,
		Timeout:           cfg.TrendsTimeout(),
		RequestsPerMinute: cfg.TrendsRequestsPerMinute,
	}))
}

// NewWithFetcher is New with a custom trends source
func NewWithFetcher(ctx context.Context, cfg *config.Config, version string, fetcher service.Fetcher) (*Application, error) {
	app := &Application{Config: cfg}

	// Initialize cache manager
	cacheManager, err := cache.NewManager(ctx, cache.Options{
		Type:     cfg.CacheType,
		Duration: cfg.CacheTTL(),
		Bucket:   cfg.CacheBucket,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}
	app.cleanup = append(app.cleanup, cacheManager.Close)

	app.Service = service.New(fetcher, cacheManager, service.Options{
		DropPartialRows: cfg.DropPartialRows,
	})

	// Export archive
	var store archive.Store = archive.Noop{}
	if cfg.ArchiveBucket != "" {
		gcs, err := archive.NewGCSStore(ctx, cfg.ArchiveBucket)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("creating export archive: %w", err)
		}
		store = gcs
		app.cleanup = append(app.cleanup, gcs.Close)
	}

	// Slack is optional
	var notifier watchlist.Notifier
	if cfg.SlackEnabled() {
		notifier = slack.NewClient(cfg.SlackBotToken, cfg.SlackChannel)
	}

	app.Runner = watchlist.NewRunner(app.Service, store, notifier, cfg.Watchlists)

	server, err := handlers.NewServer(handlers.Options{
		Config:   cfg,
		Service:  app.Service,
		Sessions: session.NewMemoryStore(cfg.SessionTTL()),
		Cache:    cacheManager,
		Archive:  store,
		Runner:   app.Runner,
		Version:  version,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("creating server: %w", err)
	}
	app.Server = server
	app.handler = server.SetupRoutes()

	log.Info().
		Str("cache", cfg.CacheType).
		Bool("archive", cfg.ArchiveBucket != "").
		Bool("slack", notifier != nil).
		Int("watchlists", len(cfg.Watchlists)).
		Msg("Application initialized")

	return app, nil
}

// Handler returns the HTTP handler serving the dashboard and the API
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Close cleans up application resources
func (a *Application) Close() error {
	var errs []error
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		if err := a.cleanup[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanup = nil
	return errors.Join(errs...)
}
