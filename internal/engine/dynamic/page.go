// internal/engine/dynamic/page.go
package dynamic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Options configures how a page is opened
type Options struct {
	URL        string
	Timeout    time.Duration // navigation timeout
	Headers    map[string]string
	Cookies    []*network.CookieParam
	Heuristics config.Heuristics
	LaunchOptions
}

// Page is a live Chrome tab implementing engine.Page.
// Methods must not be called concurrently.
type Page struct {
	ctx        context.Context
	url        string
	heuristics string
	closers    []func()
}

var _ engine.Page = (*Page)(nil)

// Open navigates a tab to opts.URL. The tab comes from pool when one is
// given, otherwise a dedicated browser process is started for this page.
// Close must be called to release the tab.
func Open(ctx context.Context, pool *BrowserPool, opts Options) (*Page, error) {
	if err := urlutil.ValidateURL(opts.URL); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, "invalid page URL", err).WithDetail("url", opts.URL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultHTTPTimeout
	}

	h, err := json.Marshal(opts.Heuristics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode heuristics: %w", err)
	}

	start := time.Now()
	p := &Page{url: opts.URL, heuristics: string(h)}

	if pool != nil {
		acquireCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		bc, err := pool.Acquire(acquireCtx)
		cancel()
		if err != nil {
			return nil, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to acquire browser from pool", err)
		}
		p.ctx = bc.Ctx
		p.closers = append(p.closers, func() { pool.Release(bc) })
		log.Debug().Dur("elapsed", time.Since(start)).Msg("Acquired browser from pool")
	} else {
		allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), AllocatorOptions(opts.LaunchOptions)...)
		tabCtx, tabCancel := chromedp.NewContext(allocCtx)
		p.ctx = tabCtx
		p.closers = append(p.closers, tabCancel, allocCancel)
		log.Debug().Dur("elapsed", time.Since(start)).Msg("Created new browser context (fallback)")
	}

	tasks := chromedp.Tasks{network.Enable()}
	if len(opts.Cookies) > 0 {
		tasks = append(tasks, network.SetCookies(opts.Cookies))
		log.Debug().Int("cookies", len(opts.Cookies)).Msg("Session cookies injected")
	}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		tasks = append(tasks, network.SetExtraHTTPHeaders(headers))
	}
	var location string
	tasks = append(tasks,
		chromedp.Navigate(opts.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&location),
	)

	navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := p.run(navCtx, tasks); err != nil {
		p.Close()
		if navCtx.Err() == context.DeadlineExceeded {
			return nil, engine.NewEngineError(engine.ErrCodeTimeout, "page load timed out", err).WithDetail("url", opts.URL)
		}
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to load page", err).WithDetail("url", opts.URL)
	}

	if location != "" {
		p.url = location
	}

	log.Info().
		Str("url", p.url).
		Dur("elapsed", time.Since(start)).
		Msg("Page loaded")

	return p, nil
}

// run executes actions on the tab, cancelling them when ctx ends
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (p *Page) eval(ctx context.Context, expr string, res interface{}) error {
	return p.run(ctx, chromedp.Evaluate(expr, res))
}

// URL returns the page address as of the last Snapshot, or as opened.
// It never talks to the tab, so a hung page cannot block it.
func (p *Page) URL() string {
	return p.url
}

// Snapshot reads heading, title and logo candidates with their rendered sizes
func (p *Page) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	var snap engine.Snapshot
	if err := p.eval(ctx, fmt.Sprintf(snapshotScript, p.heuristics), &snap); err != nil {
		return nil, fmt.Errorf("failed to read page snapshot: %w", err)
	}
	if snap.URL != "" {
		p.url = snap.URL
	}
	return &snap, nil
}

// CandidateImages returns screen thumbnails currently mounted in the DOM
func (p *Page) CandidateImages(ctx context.Context) ([]engine.Image, error) {
	var images []engine.Image
	if err := p.eval(ctx, fmt.Sprintf(imagesScript, p.heuristics), &images); err != nil {
		return nil, fmt.Errorf("failed to query screen images: %w", err)
	}
	return images, nil
}

// ScrollMetrics reads the scroll position and document height
func (p *Page) ScrollMetrics(ctx context.Context) (engine.ScrollMetrics, error) {
	var m engine.ScrollMetrics
	if err := p.eval(ctx, metricsScript, &m); err != nil {
		return engine.ScrollMetrics{}, fmt.Errorf("failed to read scroll metrics: %w", err)
	}
	return m, nil
}

// ScrollBy scrolls forward by dy pixels. The scroll may animate; callers
// wait a fixed settle delay afterwards.
func (p *Page) ScrollBy(ctx context.Context, dy float64) error {
	return p.eval(ctx, fmt.Sprintf(scrollByScript, dy), nil)
}

// ScrollToTop resets the scroll position
func (p *Page) ScrollToTop(ctx context.Context) error {
	return p.eval(ctx, scrollTopScript, nil)
}

// Close releases the tab back to the pool or shuts the dedicated browser down
func (p *Page) Close() {
	for _, c := range p.closers {
		c()
	}
	p.closers = nil
}
