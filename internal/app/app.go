// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/cache"
	"github.com/maialino123/ecomate-extract/internal/config"
	"github.com/maialino123/ecomate-extract/internal/downloader"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/engine/dynamic"
	"github.com/maialino123/ecomate-extract/internal/engine/hybrid"
	"github.com/maialino123/ecomate-extract/internal/engine/static"
	"github.com/maialino123/ecomate-extract/internal/pagectx"
	"github.com/maialino123/ecomate-extract/internal/pipeline"
	"github.com/maialino123/ecomate-extract/internal/proxy"
	"github.com/maialino123/ecomate-extract/internal/ratelimit"
	"github.com/maialino123/ecomate-extract/internal/retry"
	"github.com/maialino123/ecomate-extract/internal/settings"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command and shared by everything the command runs.
// Use Close() to release the browser pool and cache.
type Application struct {
	Config       *config.Config
	Cache        *cache.MemoryCache
	Limiter      *ratelimit.DomainLimiter
	ImageLimiter *ratelimit.DomainLimiter
	Robots       *ratelimit.RobotsChecker
	Proxies      *proxy.Pool
	Static       *static.Fetcher
	Browser      *dynamic.Fetcher
	Hybrid       *hybrid.Fetcher
	Downloader   *downloader.Downloader
	Settings     *settings.Store
	startTime    time.Time
}

// New creates and initializes a new Application from cfg.
//
// Chrome is not started here. The browser pool is created the first time a
// capture needs it.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	proxies, err := proxy.NewPool(cfg.Proxies)
	if err != nil {
		return nil, fmt.Errorf("proxy pool: %w", err)
	}

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	log.Debug().Int64("max_size_bytes", cfg.CacheMaxSizeBytes).Dur("ttl", cfg.CacheTTL).Msg("Memory cache initialized")

	limiter := ratelimit.NewDomainLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	imageLimiter := ratelimit.NewDomainLimiter(cfg.ImageRateLimitRPS, cfg.RateLimitBurst)
	log.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Float64("image_rps", cfg.ImageRateLimitRPS).
		Msg("Rate limiters initialized")

	robots := ratelimit.NewRobotsChecker(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.RespectRobots)

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.MaxRetries

	staticFetcher := static.New(static.Options{
		Cache:     memCache,
		CacheTTL:  cfg.CacheTTL,
		Limiter:   limiter,
		Robots:    robots,
		Proxies:   proxies,
		Retry:     retryCfg,
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
	})

	allocator := dynamic.AllocatorConfig{
		ExecPath:  cfg.ChromePath,
		Headless:  cfg.BrowserHeadless,
		UserAgent: cfg.UserAgent,
	}
	if p := proxies.Next(); p != nil {
		allocator.Proxy = p.String()
	}
	browserFetcher := dynamic.New(dynamic.Options{
		NewPool: func() (*dynamic.BrowserPool, error) {
			return dynamic.NewBrowserPool(cfg.BrowserPoolSize, allocator)
		},
		Allocator: allocator,
		Cache:     memCache,
		CacheTTL:  cfg.CacheTTL,
		Limiter:   limiter,
		Timeout:   cfg.BrowserTimeout,
	})

	dl := downloader.New(downloader.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Limiter:   imageLimiter,
		Proxies:   proxies,
		Retry:     retryCfg,
	})

	settingsDir := cfg.SettingsDir
	if settingsDir == "" {
		settingsDir = settings.DefaultDir()
	}

	a := &Application{
		Config:       cfg,
		Cache:        memCache,
		Limiter:      limiter,
		ImageLimiter: imageLimiter,
		Robots:       robots,
		Proxies:      proxies,
		Static:       staticFetcher,
		Browser:      browserFetcher,
		Hybrid:       hybrid.New(staticFetcher, browserFetcher),
		Downloader:   dl,
		Settings:     settings.NewStore(settingsDir),
		startTime:    time.Now(),
	}

	log.Debug().Int("proxies", proxies.Len()).Bool("robots", robots.Enabled()).Msg("Application initialized")
	return a, nil
}

// FetcherFor returns the capture engine for mode. An empty mode uses the
// configured default.
func (a *Application) FetcherFor(mode models.FetchMode) (engine.Fetcher, error) {
	if mode == "" {
		mode = models.FetchMode(a.Config.Mode)
	}
	switch mode {
	case models.ModeStatic:
		return a.Static, nil
	case models.ModeBrowser:
		return a.Browser, nil
	case models.ModeAuto:
		return a.Hybrid, nil
	default:
		return nil, fmt.Errorf("unknown mode %q (want auto, static or browser)", mode)
	}
}

// Pipeline returns an extraction pipeline capturing pages in mode.
func (a *Application) Pipeline(mode models.FetchMode) (*pipeline.Pipeline, error) {
	f, err := a.FetcherFor(mode)
	if err != nil {
		return nil, err
	}
	return pipeline.New(f, pipeline.WithContextOptions(pagectx.WithScriptTimeout(a.Config.ScriptTimeout))), nil
}

// OfflinePipeline returns a pipeline for already captured pages.
func (a *Application) OfflinePipeline() *pipeline.Pipeline {
	return pipeline.New(nil, pipeline.WithContextOptions(pagectx.WithScriptTimeout(a.Config.ScriptTimeout)))
}

// Close gracefully shuts down the application and all its resources.
// Errors are logged and do not stop later steps.
func (a *Application) Close(_ context.Context) error {
	if a.Browser != nil {
		if err := a.Browser.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing browser pool")
		}
	}
	if a.Cache != nil {
		stats := a.Cache.Stats()
		log.Debug().Uint64("hits", stats.Hits).Uint64("misses", stats.Misses).Msg("Cache statistics")
		a.Cache.Close()
	}

	log.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
