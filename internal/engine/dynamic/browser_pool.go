package dynamic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// Pool sizing bounds.
const (
	DefaultPoolSize = 2
	MaxPoolSize     = 8
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("browser pool is closed")

// Tab is one reusable browser tab.
type Tab struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserPool keeps warm tabs of one Chrome process.
type BrowserPool struct {
	size        int
	tabs        chan *Tab
	allocCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewBrowserPool starts Chrome and opens size tabs.
func NewBrowserPool(size int, cfg AllocatorConfig) (*BrowserPool, error) {
	if size <= 0 {
		size = DefaultPoolSize
	}
	if size > MaxPoolSize {
		size = MaxPoolSize
	}
	if cfg.ExecPath == "" {
		if p, err := FindChrome(); err == nil {
			cfg.ExecPath = p
		}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	bp := &BrowserPool{
		size:        size,
		tabs:        make(chan *Tab, size),
		allocCancel: allocCancel,
	}

	for i := 0; i < size; i++ {
		ctx, cancel := chromedp.NewContext(allocCtx)
		if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
			cancel()
			bp.Close()
			return nil, fmt.Errorf("warm up browser tab %d: %w", i, err)
		}
		bp.tabs <- &Tab{Ctx: ctx, Cancel: cancel}
	}

	log.Info().Int("pool_size", size).Msg("Browser pool ready")
	return bp, nil
}

// Acquire blocks until a tab is free or ctx is done.
func (bp *BrowserPool) Acquire(ctx context.Context) (*Tab, error) {
	select {
	case tab, ok := <-bp.tabs:
		if !ok {
			return nil, ErrPoolClosed
		}
		bp.mu.Lock()
		defer bp.mu.Unlock()
		if bp.closed {
			tab.Cancel()
			return nil, ErrPoolClosed
		}
		return tab, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for browser tab: %w", ctx.Err())
	}
}

// Release blanks the tab and returns it to the pool.
func (bp *BrowserPool) Release(tab *Tab) {
	_ = chromedp.Run(tab.Ctx, chromedp.Navigate("about:blank"))

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		tab.Cancel()
		return
	}
	select {
	case bp.tabs <- tab:
	default:
		tab.Cancel()
		log.Warn().Msg("Browser pool full, discarding tab")
	}
}

// Close stops every tab and the browser process.
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return nil
	}
	bp.closed = true

	close(bp.tabs)
	for tab := range bp.tabs {
		tab.Cancel()
	}
	bp.allocCancel()
	log.Debug().Msg("Browser pool closed")
	return nil
}

// Size returns the number of tabs.
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle tabs.
func (bp *BrowserPool) Available() int {
	return len(bp.tabs)
}
