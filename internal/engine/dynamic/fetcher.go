package dynamic

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/cache"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/ratelimit"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Name identifies snapshots captured by this package.
const Name = "browser"

// DefaultSettle is how long scripts get to populate globals after load.
const DefaultSettle = 500 * time.Millisecond

// Options wires a Fetcher. Without a Pool or NewPool every fetch starts its
// own browser.
type Options struct {
	Pool *BrowserPool
	// NewPool builds the shared pool on first use when Pool is nil.
	NewPool   func() (*BrowserPool, error)
	Allocator AllocatorConfig
	Cache     cache.Cache
	CacheTTL  time.Duration
	Limiter   ratelimit.RateLimiter
	Timeout   time.Duration
	Settle    time.Duration
}

// Fetcher implements engine.Fetcher with chromedp.
type Fetcher struct {
	opts Options

	poolMu sync.Mutex
	pool   *BrowserPool
	owned  bool
}

// New returns a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	return &Fetcher{opts: opts, pool: opts.Pool}
}

// Close shuts down a pool the fetcher created through NewPool.
func (f *Fetcher) Close() error {
	f.poolMu.Lock()
	defer f.poolMu.Unlock()
	if f.pool == nil || !f.owned {
		return nil
	}
	err := f.pool.Close()
	f.pool = nil
	return err
}

func (f *Fetcher) browserPool() (*BrowserPool, error) {
	f.poolMu.Lock()
	defer f.poolMu.Unlock()
	if f.pool != nil || f.opts.NewPool == nil {
		return f.pool, nil
	}
	pool, err := f.opts.NewPool()
	if err != nil {
		return nil, err
	}
	log.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized on demand")
	f.pool, f.owned = pool, true
	return pool, nil
}

// Name implements engine.Fetcher.
func (f *Fetcher) Name() string {
	return Name
}

// Fetch implements engine.Fetcher.
func (f *Fetcher) Fetch(ctx context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	if err := urlutil.ValidateURL(opts.URL); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeParseError, "invalid page URL", errors.Join(engine.ErrInvalidURL, err))
	}

	key := cache.Key(opts.URL, models.ModeBrowser)
	if f.opts.Cache != nil {
		if snap, ok := f.opts.Cache.Get(key); ok {
			return snap, nil
		}
	}
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, opts.URL); err != nil {
			return nil, err
		}
	}

	timeout := f.opts.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}

	tabCtx, release, err := f.tab(ctx, opts.Proxy)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "could not start browser", errors.Join(engine.ErrBrowserCrash, err))
	}
	defer release()

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	snap, err := f.capture(runCtx, opts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, engine.NewEngineError(engine.ErrCodeTimeout, "page capture timed out", errors.Join(engine.ErrTimeout, err)).
				WithRetry().WithDetail("url", opts.URL)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "browser capture failed", errors.Join(engine.ErrBrowserCrash, err)).
			WithDetail("url", opts.URL)
	}
	snap.ResponseTime = time.Since(start).Milliseconds()

	log.Debug().
		Str("url", opts.URL).
		Int("status", snap.StatusCode).
		Int("globals", len(snap.Globals)).
		Int64("response_time_ms", snap.ResponseTime).
		Msg("Browser capture completed")

	if f.opts.Cache != nil {
		if err := f.opts.Cache.Set(key, snap, f.opts.CacheTTL); err != nil {
			log.Debug().Err(err).Msg("Snapshot not cached")
		}
	}
	return snap, nil
}

// tab returns a browser context and its release func. A per-request proxy
// always gets a dedicated browser.
func (f *Fetcher) tab(ctx context.Context, proxy string) (context.Context, func(), error) {
	if proxy == "" {
		pool, err := f.browserPool()
		if err != nil {
			return nil, nil, err
		}
		if pool != nil {
			t, err := pool.Acquire(ctx)
			if err != nil {
				return nil, nil, err
			}
			return t.Ctx, func() { pool.Release(t) }, nil
		}
	}

	cfg := f.opts.Allocator
	if proxy != "" {
		cfg.Proxy = proxy
	}
	if cfg.ExecPath == "" {
		p, err := FindChrome()
		if err != nil {
			return nil, nil, err
		}
		cfg.ExecPath = p
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	return browserCtx, func() {
		browserCancel()
		allocCancel()
	}, nil
}

func (f *Fetcher) capture(ctx context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	var status atomic.Int64
	chromedp.ListenTarget(ctx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, e.Response.Status)
		}
	})

	settle := f.opts.Settle + time.Duration(opts.WaitSeconds)*time.Second

	var title, html, rawGlobals string
	tasks := chromedp.Tasks{network.Enable()}
	if len(opts.Headers) > 0 {
		h := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			h[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(h))
	}
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.Sleep(settle),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Evaluate(globalsScript(engine.ProductGlobals), &rawGlobals),
	)
	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, err
	}

	var pageURL string
	if err := chromedp.Run(ctx, chromedp.Location(&pageURL)); err != nil || pageURL == "" {
		pageURL = opts.URL
	}

	globals, err := decodeGlobals(rawGlobals)
	if err != nil {
		log.Debug().Err(err).Str("url", opts.URL).Msg("Ignoring page globals")
	}

	return &models.PageSnapshot{
		URL:        pageURL,
		StatusCode: int(status.Load()),
		Title:      title,
		HTML:       html,
		Globals:    globals,
		Engine:     Name,
		FetchedAt:  time.Now(),
	}, nil
}
