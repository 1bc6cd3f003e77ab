// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/law-makers/screengrab/internal/agent"
	"github.com/law-makers/screengrab/internal/auth"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/downloader"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/dynamic"
	"github.com/law-makers/screengrab/internal/engine/hybrid"
	"github.com/law-makers/screengrab/internal/engine/metadata"
	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/internal/engine/static"
	"github.com/law-makers/screengrab/internal/proxy"
	"github.com/law-makers/screengrab/internal/store"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per CLI invocation. The browser pool and the store are
// opened on first use so commands that need neither (help, sessions) never
// start Chrome or dial Redis. Use Close() to release everything.
type Application struct {
	Config     *config.Config
	Logger     *zerolog.Logger
	HTTPClient *http.Client
	Proxies    *proxy.Pool
	Sessions   *auth.Manager
	Extractor  *metadata.Extractor

	poolMu      sync.Mutex
	BrowserPool *dynamic.BrowserPool

	storeMu sync.Mutex
	store   *store.Store

	startTime time.Time
}

// New creates and initializes a new Application.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogging(cfg)

	proxies := proxy.Parse(cfg.Proxy)
	if proxies.Len() > 0 {
		logger.Debug().Int("proxies", proxies.Len()).Msg("Proxy rotation enabled")
	}

	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
		Transport: &http.Transport{
			Proxy:               proxies.ProxyFunc(),
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	app := &Application{
		Config:     cfg,
		Logger:     logger,
		HTTPClient: httpClient,
		Proxies:    proxies,
		Sessions:   auth.NewManager(cfg.KeyringService, filepath.Join(dataDir(), "sessions")),
		Extractor:  metadata.NewExtractor(cfg.Heuristics),
		startTime:  time.Now(),
	}

	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Str("store", cfg.StoreURL).
		Str("sessions", app.Sessions.Backend()).
		Msg("Application initialized")
	return app, nil
}

// SetupLogging configures the global zerolog logger from cfg
func SetupLogging(cfg *config.Config) *zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer
	if cfg.JSONLog {
		w = os.Stderr
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()

	logger := log.Logger
	return &logger
}

func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return config.DefaultStoreDir
	}
	return filepath.Join(home, config.DefaultStoreDir)
}

// Store opens the collection store on first use
func (a *Application) Store(ctx context.Context) (*store.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	if a.store != nil {
		return a.store, nil
	}
	st, err := store.Open(ctx, a.Config)
	if err != nil {
		return nil, engine.NewEngineError(engine.ErrCodeStorage, "failed to open store", err).
			WithDetail("store", a.Config.StoreURL)
	}
	a.Logger.Debug().Str("backend", st.Backend().Name()).Msg("Store opened")
	a.store = st
	return st, nil
}

// EnsureBrowserPool lazily creates the browser pool if it has not already been
// initialized.
func (a *Application) EnsureBrowserPool(ctx context.Context) error {
	a.poolMu.Lock()
	defer a.poolMu.Unlock()

	if a.BrowserPool != nil {
		return nil
	}

	a.Logger.Debug().Msg("Initializing browser pool on demand")
	pool, err := dynamic.NewBrowserPool(dynamic.BrowserPoolOptions{
		Size:          a.Config.BrowserPoolSize,
		LaunchOptions: a.launchOptions(),
	})
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to create browser pool on demand")
		return err
	}

	a.BrowserPool = pool
	a.Logger.Info().Int("pool_size", pool.Size()).Msg("Browser pool initialized")
	return nil
}

// launchOptions returns the Chrome launch settings for this run
func (a *Application) launchOptions() dynamic.LaunchOptions {
	return dynamic.LaunchOptions{
		ChromePath: a.Config.ChromePath,
		Headless:   a.Config.BrowserHeadless,
		UserAgent:  a.Config.UserAgent,
		Proxy:      a.Proxies.Next(),
	}
}

// LoginOptions prefills login options with this run's browser settings
func (a *Application) LoginOptions(name, url string) auth.LoginOptions {
	return auth.LoginOptions{
		SessionName: name,
		URL:         url,
		Launch:      a.launchOptions(),
		Prompt:      os.Stdout,
		Confirm:     os.Stdin,
	}
}

// OpenPage loads opts.URL with the static or Chrome driver. The returned
// close function releases the page and must always be called.
func (a *Application) OpenPage(ctx context.Context, opts models.PageOptions) (engine.Page, func(), error) {
	if opts.Timeout <= 0 {
		opts.Timeout = a.Config.HTTPTimeout
	}
	if opts.Mode == "" {
		opts.Mode = models.ScraperMode(a.Config.Mode)
	}

	var session *auth.SessionData
	if opts.SessionName != "" {
		s, err := a.Sessions.Load(opts.SessionName)
		if err != nil {
			return nil, func() {}, engine.NewEngineError(engine.ErrCodeSessionError,
				fmt.Sprintf("failed to load session %q", opts.SessionName), err)
		}
		session = s
	}

	headers := make(map[string]string)
	if session != nil {
		for k, v := range session.Headers {
			headers[k] = v
		}
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	if opts.Mode == models.ModeStatic || opts.Mode == models.ModeAuto {
		sopts := static.Options{
			URL:        opts.URL,
			Timeout:    opts.Timeout,
			UserAgent:  a.Config.UserAgent,
			Headers:    headers,
			Heuristics: a.Config.Heuristics,
		}
		if session != nil {
			sopts.Cookies = session.HTTPCookies()
		}
		page, err := static.Fetch(ctx, a.HTTPClient, sopts)
		if err != nil {
			return nil, func() {}, err
		}
		if opts.Mode == models.ModeStatic || !a.needsBrowser(ctx, page) {
			return page, func() {}, nil
		}
	}

	if err := a.EnsureBrowserPool(ctx); err != nil {
		return nil, func() {}, engine.NewEngineError(engine.ErrCodeBrowserCrash, "failed to start Chrome", err)
	}
	dopts := dynamic.Options{
		URL:           opts.URL,
		Timeout:       opts.Timeout,
		Headers:       headers,
		Heuristics:    a.Config.Heuristics,
		LaunchOptions: a.launchOptions(),
	}
	if session != nil {
		dopts.Cookies = session.CookieParams()
	}
	page, err := dynamic.Open(ctx, a.BrowserPool, dopts)
	if err != nil {
		return nil, func() {}, err
	}
	return page, page.Close, nil
}

// needsBrowser decides whether an auto-mode page has to be rendered in Chrome
func (a *Application) needsBrowser(ctx context.Context, page *static.Page) bool {
	images, err := page.CandidateImages(ctx)
	if err != nil {
		return true
	}
	doc := page.Document()
	if hybrid.Decide(doc, len(images)) == models.ModeStatic {
		return false
	}
	a.Logger.Info().
		Str("url", page.URL()).
		Str("framework", hybrid.DetectFramework(doc)).
		Msg("Page is client-rendered, switching to Chrome")
	return true
}

// NewAgent creates a page agent over page backed by the application store
func (a *Application) NewAgent(ctx context.Context, page engine.Page, notifier scan.Notifier) (*agent.Agent, error) {
	st, err := a.Store(ctx)
	if err != nil {
		return nil, err
	}
	return agent.New(agent.Options{
		Page:      page,
		Store:     st,
		Extractor: a.Extractor,
		Scan:      scan.ConfigFrom(a.Config.Scan),
		Notifier:  notifier,
	}), nil
}

// NewDownloader creates a download worker pool from the application settings
func (a *Application) NewDownloader() *downloader.WorkerPool {
	return downloader.NewWorkerPool(downloader.Options{
		Timeout:     a.Config.HTTPTimeout,
		UserAgent:   a.Config.UserAgent,
		Concurrency: a.Config.DownloadConcurrency,
		RPS:         a.Config.DownloadRPS,
		Burst:       a.Config.DownloadBurst,
		Proxy:       a.Proxies.ProxyFunc(),
	})
}

// Close gracefully shuts down the application and all its resources.
// Errors are logged and do not stop the remaining steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	a.poolMu.Lock()
	if a.BrowserPool != nil {
		if err := a.BrowserPool.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing browser pool")
		}
		a.BrowserPool = nil
	}
	a.poolMu.Unlock()

	a.storeMu.Lock()
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
		}
		a.store = nil
	}
	a.storeMu.Unlock()

	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", time.Since(a.startTime)).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
