// Package static captures offer pages with plain HTTP requests. Globals are
// later evaluated from the inline scripts by the page context sandbox.
package static

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/cache"
	"github.com/maialino123/ecomate-extract/internal/engine"
	"github.com/maialino123/ecomate-extract/internal/proxy"
	"github.com/maialino123/ecomate-extract/internal/ratelimit"
	"github.com/maialino123/ecomate-extract/internal/retry"
	"github.com/maialino123/ecomate-extract/internal/utils/headers"
	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
	"github.com/maialino123/ecomate-extract/pkg/models"
)

// Name identifies snapshots captured by this package.
const Name = "static"

// Options wires a Fetcher's collaborators. Nil fields disable the concern.
type Options struct {
	Cache     cache.Cache
	CacheTTL  time.Duration
	Limiter   ratelimit.RateLimiter
	Robots    *ratelimit.RobotsChecker
	Proxies   *proxy.Pool
	Retry     retry.Config
	Timeout   time.Duration
	UserAgent string
	// Transport is used for direct connections; tests inject httptest's.
	Transport http.RoundTripper
}

// Fetcher implements engine.Fetcher over net/http.
type Fetcher struct {
	opts Options

	mu      sync.Mutex
	clients map[string]*http.Client
}

// New returns a Fetcher.
func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultConfig()
	}
	if opts.UserAgent == "" {
		opts.UserAgent = headers.DefaultUserAgent
	}
	return &Fetcher{opts: opts, clients: make(map[string]*http.Client)}
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

	key := cache.Key(opts.URL, models.ModeStatic)
	if f.opts.Cache != nil {
		if snap, ok := f.opts.Cache.Get(key); ok {
			return snap, nil
		}
	}

	if err := f.checkRobots(ctx, opts.URL); err != nil {
		return nil, err
	}

	log.Debug().Str("url", opts.URL).Str("fetcher", Name).Msg("Starting fetch")

	var snap *models.PageSnapshot
	err := retry.Do(ctx, f.opts.Retry, func(int) error {
		s, err := f.attempt(ctx, opts)
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, classify(opts.URL, err)
	}

	if f.opts.Cache != nil {
		if err := f.opts.Cache.Set(key, snap, f.opts.CacheTTL); err != nil {
			log.Debug().Err(err).Str("url", opts.URL).Msg("Snapshot not cached")
		}
	}
	return snap, nil
}

func (f *Fetcher) attempt(ctx context.Context, opts models.FetchOptions) (*models.PageSnapshot, error) {
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, opts.URL); err != nil {
			return nil, retry.Permanent(err)
		}
	}

	timeout := f.opts.Timeout
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header = headers.Browser(f.opts.UserAgent)
	headers.Apply(req, opts.Headers)

	proxyURL, err := f.pickProxy(opts.Proxy)
	if err != nil {
		return nil, retry.Permanent(err)
	}

	start := time.Now()
	resp, err := f.client(proxyURL).Do(req)
	if err != nil {
		if proxyURL != nil && f.opts.Proxies != nil {
			f.opts.Proxies.MarkFailed(proxyURL)
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, retry.NewHTTPError(resp)
	}

	body, err := ReadBody(resp)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("read body: %w", err))
	}
	if proxyURL != nil && f.opts.Proxies != nil {
		f.opts.Proxies.MarkHealthy(proxyURL)
	}

	html := string(body)
	snap := &models.PageSnapshot{
		URL:          resp.Request.URL.String(),
		StatusCode:   resp.StatusCode,
		Title:        pageTitle(html),
		HTML:         html,
		Headers:      make(map[string]string, len(resp.Header)),
		Engine:       Name,
		FetchedAt:    time.Now(),
		ResponseTime: time.Since(start).Milliseconds(),
	}
	for k, v := range resp.Header {
		if len(v) > 0 {
			snap.Headers[k] = v[0]
		}
	}

	log.Debug().
		Str("url", snap.URL).
		Int("status", snap.StatusCode).
		Int64("response_time_ms", snap.ResponseTime).
		Int("bytes", len(body)).
		Msg("Fetch completed")
	return snap, nil
}

func (f *Fetcher) checkRobots(ctx context.Context, pageURL string) error {
	if !f.opts.Robots.Enabled() {
		return nil
	}
	ok, err := f.opts.Robots.IsAllowed(ctx, f.opts.UserAgent, pageURL)
	if err != nil {
		return engine.NewEngineError(engine.ErrCodeParseError, "invalid page URL", err)
	}
	if !ok {
		return engine.NewEngineError(engine.ErrCodeRobotsDisallowed, "page disallowed by robots.txt", engine.ErrRobotsDisallowed).
			WithDetail("url", pageURL)
	}

	if dl, isDomain := f.opts.Limiter.(*ratelimit.DomainLimiter); isDomain {
		u, _ := url.Parse(pageURL)
		if delay := f.opts.Robots.CrawlDelay(ctx, f.opts.UserAgent, u.Scheme+"://"+u.Host); delay > 0 {
			dl.SetLimit(u.Host, 1/delay.Seconds(), 1)
		}
	}
	return nil
}

func (f *Fetcher) pickProxy(override string) (*url.URL, error) {
	if override != "" {
		if !strings.Contains(override, "://") {
			override = "http://" + override
		}
		u, err := url.Parse(override)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", override)
		}
		return u, nil
	}
	if f.opts.Proxies == nil {
		return nil, nil
	}
	return f.opts.Proxies.Next(), nil
}

// client returns one keep-alive client per proxy.
func (f *Fetcher) client(proxyURL *url.URL) *http.Client {
	key := ""
	if proxyURL != nil {
		key = proxyURL.String()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[key]; ok {
		return c
	}

	var rt http.RoundTripper
	switch {
	case proxyURL != nil:
		rt = &http.Transport{
			Proxy:               http.ProxyURL(proxyURL),
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
		}
	case f.opts.Transport != nil:
		rt = f.opts.Transport
	default:
		rt = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	c := &http.Client{Transport: rt}
	f.clients[key] = c
	return c
}

func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// classify maps transport failures onto engine error codes.
func classify(pageURL string, err error) error {
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return err
	}

	var httpErr *retry.HTTPError
	var ne net.Error
	switch {
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound:
		return engine.NewEngineError(engine.ErrCodeNotFound, "offer page not found", err).WithDetail("url", pageURL)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &ne) && ne.Timeout():
		return engine.NewEngineError(engine.ErrCodeTimeout, "page capture timed out", errors.Join(engine.ErrTimeout, err)).
			WithRetry().WithDetail("url", pageURL)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return engine.NewEngineError(engine.ErrCodeNetworkError, "page capture failed", errors.Join(engine.ErrNetworkError, err)).
			WithRetry().WithDetail("url", pageURL)
	}
}
