// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/scrapejob/internal/backend"
	"github.com/law-makers/scrapejob/internal/batch"
	"github.com/law-makers/scrapejob/internal/cache"
	"github.com/law-makers/scrapejob/internal/config"
	"github.com/law-makers/scrapejob/internal/engine"
	"github.com/law-makers/scrapejob/internal/engine/static"
	"github.com/law-makers/scrapejob/internal/proxy"
	"github.com/law-makers/scrapejob/internal/ratelimit"
	"github.com/law-makers/scrapejob/internal/session"
	"github.com/law-makers/scrapejob/internal/submit"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Sessions created from it share the backend client and nothing else.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config  *config.Config
	Logger  *zerolog.Logger
	Backend *backend.HTTPClient

	// Development backend
	Cache       *cache.MemoryCache
	RateLimiter *ratelimit.DomainLimiter
	Proxies     *proxy.ProxyPool
	Fetcher     *static.Fetcher
	Engine      *engine.Engine

	startTime time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the backend client used for job submission
//   - Creates the page cache, rate limiter and proxy pool of the development backend
//   - Creates the reference extraction engine over a static fetcher
//
// If any step fails, an error is returned and no resources are allocated.
func New(ctx context.Context, cfg *config.Config, opts ...backend.Option) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg, os.Stderr)

	proxies, err := proxy.NewProxyPool(cfg.Proxies)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy configuration: %w", err)
	}

	clientOpts := append([]backend.Option{
		backend.WithTimeout(cfg.HTTPTimeout),
		backend.WithUserAgent(cfg.UserAgent),
	}, opts...)
	backendClient := backend.NewClient(cfg.BackendURL, clientOpts...)
	logger.Debug().
		Str("endpoint", backendClient.Endpoint()).
		Dur("timeout", cfg.HTTPTimeout).
		Msg("Backend client initialized")

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes, cfg.CacheTTL)
	rateLimiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	for host, rps := range cfg.HostRateLimits {
		rateLimiter.SetLimit(host, rps, cfg.RateLimitBurst)
	}

	fetchClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	fetcher := static.New(memCache, rateLimiter, fetchClient, cfg.UserAgent,
		static.WithCacheTTL(cfg.CacheTTL),
		static.WithProxies(proxies),
	)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Int64("cache_max_bytes", cfg.CacheMaxSizeBytes).
		Int("proxies", proxies.Size()).
		Msg("Development backend initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Backend:     backendClient,
		Cache:       memCache,
		RateLimiter: rateLimiter,
		Proxies:     proxies,
		Fetcher:     fetcher,
		Engine:      engine.New(fetcher),
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// SetupLogging configures the global zerolog logger from cfg and returns it
func SetupLogging(cfg *config.Config, w io.Writer) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var logWriter io.Writer = w
	if !cfg.JSONLog {
		logWriter = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(logWriter).With().Timestamp().Logger()
	log.Logger = logger

	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return logger
}

// NewSession creates an independent editing session submitting to the configured backend
func (a *Application) NewSession(opts ...submit.Option) *session.Session {
	return session.New(a.Backend, opts...)
}

// NewBatchRunner creates a runner submitting jobs with the configured concurrency
func (a *Application) NewBatchRunner() *batch.Runner {
	return batch.New(a.Backend, a.Config.Concurrency)
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	if a.Cache != nil {
		a.Logger.Debug().Fields(a.Cache.Stats()).Msg("Page cache statistics")
		a.Cache.Close()
	}
	if a.RateLimiter != nil {
		a.Logger.Debug().Int("hosts", a.RateLimiter.Hosts()).Msg("Rate limiter statistics")
	}
	if a.Fetcher != nil {
		a.Fetcher.CloseIdleConnections()
	}
	if a.Backend != nil {
		a.Backend.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
