// internal/engine/dynamic/browser_pool.go
package dynamic

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/rs/zerolog/log"
)

// BrowserPool manages reusable Chrome tabs that share one browser process
type BrowserPool struct {
	size        int
	contexts    chan *BrowserContext
	allocCtx    context.Context
	allocCancel context.CancelFunc
	mu          sync.Mutex
	closed      bool
}

// BrowserContext wraps a chromedp tab context with its cancel function
type BrowserContext struct {
	Ctx    context.Context
	Cancel context.CancelFunc
}

// BrowserPoolOptions configures the browser pool
type BrowserPoolOptions struct {
	Size int
	LaunchOptions
}

// NewBrowserPool starts Chrome and pre-creates Size tabs
func NewBrowserPool(opts BrowserPoolOptions) (*BrowserPool, error) {
	if opts.Size <= 0 {
		opts.Size = config.DefaultBrowserPoolSize
	}
	if opts.Size > config.DefaultMaxBrowserPoolSize {
		opts.Size = config.DefaultMaxBrowserPoolSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}

	log.Debug().Int("size", opts.Size).Bool("headless", opts.Headless).Msg("Creating browser pool")

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts.LaunchOptions)...)

	pool := &BrowserPool{
		size:        opts.Size,
		contexts:    make(chan *BrowserContext, opts.Size),
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}

	for i := 0; i < opts.Size; i++ {
		browserCtx, browserCancel := chromedp.NewContext(allocCtx)

		// The first Run launches the browser process
		if err := chromedp.Run(browserCtx, chromedp.Navigate("about:blank")); err != nil {
			browserCancel()
			pool.Close()
			return nil, fmt.Errorf("failed to warm up browser context %d: %w", i, err)
		}

		pool.contexts <- &BrowserContext{Ctx: browserCtx, Cancel: browserCancel}
		log.Debug().Int("context_id", i).Msg("Browser context initialized")
	}

	log.Info().Int("pool_size", opts.Size).Msg("Browser pool ready")

	return pool, nil
}

// Acquire takes a tab from the pool, blocking until one is free or ctx ends
func (bp *BrowserPool) Acquire(ctx context.Context) (*BrowserContext, error) {
	select {
	case bc, ok := <-bp.contexts:
		if !ok {
			return nil, fmt.Errorf("browser pool is closed")
		}
		bp.mu.Lock()
		defer bp.mu.Unlock()
		if bp.closed {
			bc.Cancel()
			return nil, fmt.Errorf("browser pool is closed")
		}
		log.Debug().Msg("Browser context acquired from pool")
		return bc, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("timeout waiting for available browser context: %w", ctx.Err())
	}
}

// Release navigates the tab back to about:blank and returns it to the pool
func (bp *BrowserPool) Release(bc *BrowserContext) {
	bp.mu.Lock()
	if bp.closed {
		bc.Cancel()
		bp.mu.Unlock()
		return
	}
	bp.mu.Unlock()

	// Best effort; a tab that cannot be reset is still reusable for Navigate
	if err := chromedp.Run(bc.Ctx, chromedp.Navigate("about:blank")); err != nil {
		log.Debug().Err(err).Msg("Failed to reset browser context")
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		bc.Cancel()
		return
	}

	select {
	case bp.contexts <- bc:
		log.Debug().Msg("Browser context released to pool")
	default:
		bc.Cancel()
		log.Warn().Msg("Browser pool full, discarding context")
	}
}

// Close shuts down all tabs and the browser process
func (bp *BrowserPool) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true

	log.Debug().Msg("Closing browser pool")

	close(bp.contexts)
	for bc := range bp.contexts {
		bc.Cancel()
	}
	bp.allocCancel()

	log.Info().Msg("Browser pool closed")

	return nil
}

// Size returns the pool size
func (bp *BrowserPool) Size() int {
	return bp.size
}

// Available returns the number of idle tabs
func (bp *BrowserPool) Available() int {
	return len(bp.contexts)
}
