// Package downloader saves offer images to disk.
package downloader

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/maialino123/ecomate-extract/internal/proxy"
	"github.com/maialino123/ecomate-extract/internal/ratelimit"
	"github.com/maialino123/ecomate-extract/internal/retry"
	"github.com/maialino123/ecomate-extract/internal/utils/headers"
)

// Referer is sent with image requests; the CDN rejects hotlinks without it.
const Referer = "https://detail.1688.com/"

// Result is the outcome of one Job.
type Result struct {
	Job      Job
	Path     string
	Size     int64
	Err      error
	Duration time.Duration
}

// Options configures a Downloader.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Limiter   ratelimit.RateLimiter
	Proxies   *proxy.Pool
	Retry     retry.Config
	Transport http.RoundTripper
}

// Downloader streams images to disk.
type Downloader struct {
	client    *http.Client
	userAgent string
	limiter   ratelimit.RateLimiter
	retry     retry.Config
}

// New returns a Downloader.
func New(opts Options) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = retry.DefaultConfig()
	}
	rt := opts.Transport
	if rt == nil {
		rt = &http.Transport{
			Proxy:               opts.Proxies.ProxyFunc(),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		}
	}
	return &Downloader{
		client:    &http.Client{Timeout: opts.Timeout, Transport: rt},
		userAgent: opts.UserAgent,
		limiter:   opts.Limiter,
		retry:     opts.Retry,
	}
}

// Download fetches job into dir. The file appears only once fully written.
func (d *Downloader) Download(ctx context.Context, job Job, dir string) *Result {
	res := &Result{Job: job}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Err = fmt.Errorf("create output directory: %w", err)
		return res
	}
	name := job.Filename
	if name == "" {
		name = job.URL
	}
	res.Path = filepath.Join(dir, sanitizeFilename(name))

	res.Err = retry.Do(ctx, d.retry, func(int) error {
		n, err := d.fetch(ctx, job.URL, res.Path)
		res.Size = n
		return err
	})
	if res.Err == nil {
		log.Debug().Str("url", job.URL).Str("file", res.Path).Int64("bytes", res.Size).Msg("Image saved")
	}
	return res
}

func (d *Downloader) fetch(ctx context.Context, url, dest string) (int64, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, url); err != nil {
			return 0, retry.Permanent(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, retry.Permanent(err)
	}
	req.Header.Set("User-Agent", headers.Browser(d.userAgent).Get("User-Agent"))
	req.Header.Set("Accept", "image/avif,image/webp,image/*,*/*;q=0.8")
	req.Header.Set("Referer", Referer)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, retry.NewHTTPError(resp)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".part-*")
	if err != nil {
		return 0, retry.Permanent(err)
	}
	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("write image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name())
		return 0, retry.Permanent(err)
	}
	return n, nil
}

var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", "..", "_", ":", "_", "*", "_",
	"?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

// sanitizeFilename keeps downloads inside the output directory. URLs are
// reduced to their last path segment, with a query hash to keep variants apart.
func sanitizeFilename(input string) string {
	var suffix string
	if i := strings.Index(input, "://"); i > 0 {
		rest := input[i+3:]
		if q := strings.IndexByte(rest, '?'); q >= 0 {
			suffix = "_" + shortHash(rest[q+1:])
			rest = rest[:q]
		}
		input = rest[strings.LastIndexByte(rest, '/')+1:]
	}

	input = strings.Trim(strings.TrimSpace(unsafeChars.Replace(input)), ".")
	if suffix != "" {
		ext := filepath.Ext(input)
		input = strings.TrimSuffix(input, ext) + suffix + ext
	}
	if input == "" {
		input = "image_" + shortHash(fmt.Sprint(time.Now().UnixNano()))
	}
	if len(input) > 200 {
		input = input[:200]
	}
	return input
}

func shortHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}
