// Package ratelimit paces requests per marketplace host and honours robots.txt.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	urlutil "github.com/maialino123/ecomate-extract/internal/utils/url"
)

// Defaults used when the caller passes zero values.
const (
	DefaultRPS   = 1.0
	DefaultBurst = 2
)

// RateLimiter paces requests by the host of their URL.
type RateLimiter interface {
	// Wait blocks until a request for urlStr may proceed or ctx is done.
	Wait(ctx context.Context, urlStr string) error
	// Allow reports whether a request for urlStr may proceed right now.
	Allow(urlStr string) bool
}

// DomainLimiter keeps one token bucket per host. Product pages, image CDNs and
// robots.txt fetches each get their own bucket.
type DomainLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewDomainLimiter returns a limiter allowing requestsPerSecond per host.
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait implements RateLimiter. Unparseable URLs are not paced.
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	host := urlutil.Host(urlStr)
	if host == "" {
		return nil
	}
	return dl.limiter(host).Wait(ctx)
}

// Allow implements RateLimiter.
func (dl *DomainLimiter) Allow(urlStr string) bool {
	host := urlutil.Host(urlStr)
	if host == "" {
		return true
	}
	return dl.limiter(host).Allow()
}

// SetLimit overrides the rate for one host, e.g. from a robots.txt crawl delay.
func (dl *DomainLimiter) SetLimit(host string, requestsPerSecond float64, burst int) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	if l, ok := dl.limiters[host]; ok {
		l.SetLimit(rate.Limit(requestsPerSecond))
		l.SetBurst(burst)
		return
	}
	dl.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (dl *DomainLimiter) limiter(host string) *rate.Limiter {
	dl.mu.RLock()
	l, ok := dl.limiters[host]
	dl.mu.RUnlock()
	if ok {
		return l
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()
	if l, ok := dl.limiters[host]; ok {
		return l
	}
	l = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[host] = l
	return l
}
