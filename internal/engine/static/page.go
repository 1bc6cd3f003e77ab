// internal/engine/static/page.go
package static

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/metadata"
	"github.com/law-makers/screengrab/internal/retry"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// ViewportHeight is the virtual viewport used for scroll metrics. A parsed
// document has no layout, so the whole page fits in one viewport.
const ViewportHeight = 900.0

// Options configures a static fetch
type Options struct {
	URL        string
	Timeout    time.Duration
	UserAgent  string
	Headers    map[string]string
	Cookies    []*http.Cookie
	Heuristics config.Heuristics
	Retry      retry.Config
}

// Page is an engine.Page over a parsed HTML document. Its scroll height
// never grows, so the scan loop converges after the stagnation limit.
type Page struct {
	url     string
	doc     *goquery.Document
	h       config.Heuristics
	scrollY float64
}

var _ engine.Page = (*Page)(nil)

// FromDocument wraps an already parsed document
func FromDocument(pageURL string, doc *goquery.Document, h config.Heuristics) *Page {
	return &Page{url: pageURL, doc: doc, h: h}
}

// FromHTML parses html and wraps it
func FromHTML(pageURL, html string, h config.Heuristics) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return FromDocument(pageURL, doc, h), nil
}

// Fetch downloads and parses a page over plain HTTP. Transient 429/5xx
// responses are retried.
func Fetch(ctx context.Context, client *http.Client, opts Options) (*Page, error) {
	if err := urlutil.ValidateURL(opts.URL); err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeValidation, "invalid page URL", err).WithDetail("url", opts.URL)
	}
	if client == nil {
		client = &http.Client{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultHTTPTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}

	if len(opts.Cookies) > 0 {
		jar, err := cookiejar.New(nil)
		if err == nil {
			parsedURL, _ := url.Parse(opts.URL)
			jar.SetCookies(parsedURL, opts.Cookies)
			c := *client
			c.Jar = jar
			client = &c
			log.Debug().Int("cookies", len(opts.Cookies)).Msg("Session cookies injected")
		}
	}

	start := time.Now()
	log.Debug().Str("url", opts.URL).Msg("Starting static fetch")

	var body []byte
	var status int
	err := retry.WithRetry(ctx, opts.Retry, func() error {
		reqCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, opts.URL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", opts.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		for key, value := range opts.Headers {
			req.Header.Set(key, value)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch URL: %w", err)
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if resp.StatusCode >= 400 {
			return retry.NewHTTPError(resp.StatusCode, resp.Status, "")
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeNetworkError, "failed to load page", err).
			WithDetail("url", opts.URL).
			WithDetail("status", status)
	}

	page, err := FromHTML(opts.URL, string(body), opts.Heuristics)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeInvalidPage, "failed to parse page", err)
	}

	log.Info().
		Str("url", opts.URL).
		Int("status", status).
		Int64("response_time_ms", time.Since(start).Milliseconds()).
		Msg("Page loaded")

	return page, nil
}

// Document returns the parsed document
func (p *Page) Document() *goquery.Document {
	return p.doc
}

// URL returns the page address
func (p *Page) URL() string {
	return p.url
}

// Snapshot reads heading, title and logo candidates from the document
func (p *Page) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return metadata.SnapshotFromDocument(p.doc, p.url, p.h), nil
}

// CandidateImages returns the screen images of the document in DOM order
func (p *Page) CandidateImages(ctx context.Context) ([]engine.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return metadata.ImagesFromDocument(p.doc, p.url, p.h), nil
}

// ScrollMetrics reports a single-viewport document
func (p *Page) ScrollMetrics(ctx context.Context) (engine.ScrollMetrics, error) {
	return engine.ScrollMetrics{
		ScrollY:        p.scrollY,
		ViewportHeight: ViewportHeight,
		ScrollHeight:   ViewportHeight,
	}, nil
}

// ScrollBy is a no-op: the document always fits in one viewport
func (p *Page) ScrollBy(ctx context.Context, dy float64) error {
	return nil
}

// ScrollToTop resets the virtual position
func (p *Page) ScrollToTop(ctx context.Context) error {
	p.scrollY = 0
	return nil
}
