// Package proxy rotates outbound proxies for marketplace fetches.
package proxy

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultCooldown is how long a failed proxy is skipped.
const DefaultCooldown = 5 * time.Minute

// Pool hands out proxies round-robin, skipping ones that failed recently.
type Pool struct {
	mu       sync.Mutex
	proxies  []*url.URL
	index    int
	failed   map[string]time.Time
	cooldown time.Duration
	now      func() time.Time
}

// NewPool parses raw proxy URLs. Bare host:port entries are taken as http.
func NewPool(raw []string) (*Pool, error) {
	p := &Pool{
		failed:   make(map[string]time.Time),
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if !strings.Contains(r, "://") {
			r = "http://" + r
		}
		u, err := url.Parse(r)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid proxy %q", r)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		p.proxies = append(p.proxies, u)
	}
	return p, nil
}

// Len returns the number of configured proxies.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil when the pool is empty. When every
// proxy is cooling down the next one in order is returned anyway.
func (p *Pool) Next() *url.URL {
	if p.Len() == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.proxies {
		u := p.proxies[p.index]
		p.index = (p.index + 1) % len(p.proxies)

		failedAt, ok := p.failed[u.String()]
		if !ok {
			return u
		}
		if now.Sub(failedAt) >= p.cooldown {
			delete(p.failed, u.String())
			return u
		}
	}
	u := p.proxies[p.index]
	p.index = (p.index + 1) % len(p.proxies)
	return u
}

// MarkFailed benches u for the cooldown period.
func (p *Pool) MarkFailed(u *url.URL) {
	if p.Len() == 0 || u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed[u.String()] = p.now()
}

// MarkHealthy clears a failure mark.
func (p *Pool) MarkHealthy(u *url.URL) {
	if p.Len() == 0 || u == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.failed, u.String())
}

// ProxyFunc adapts the pool to http.Transport.Proxy. An empty pool falls back
// to the environment.
func (p *Pool) ProxyFunc() func(*http.Request) (*url.URL, error) {
	if p.Len() == 0 {
		return http.ProxyFromEnvironment
	}
	return func(*http.Request) (*url.URL, error) {
		return p.Next(), nil
	}
}
