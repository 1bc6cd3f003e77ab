// internal/downloader/downloader.go
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/law-makers/screengrab/internal/ratelimit"
	"github.com/law-makers/screengrab/internal/retry"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/rs/zerolog/log"
)

// Result represents the outcome of one screen download
type Result struct {
	Index     int
	URL       string
	FilePath  string
	Size      int64
	Success   bool
	Error     error
	StartTime time.Time
	Duration  time.Duration
}

// Options configures the download behavior
type Options struct {
	Timeout     time.Duration
	UserAgent   string
	Headers     map[string]string
	Concurrency int
	RPS         float64
	Burst       int
	Retry       retry.Config
	// Proxy selects a proxy per request, e.g. proxy.Pool.ProxyFunc()
	Proxy func(*http.Request) (*url.URL, error)
}

// Downloader fetches screen images with streaming I/O, per-host rate
// limiting and retries on transient HTTP failures
type Downloader struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	limiter   ratelimit.RateLimiter
	retry     retry.Config
}

// New creates a Downloader
func New(opts Options) *Downloader {
	if opts.UserAgent == "" {
		opts.UserAgent = "Screengrab/1.0 (https://github.com/law-makers/screengrab)"
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.DefaultConfig()
	}

	client := &http.Client{
		Timeout: opts.Timeout,
		Transport: &http.Transport{
			Proxy:               opts.Proxy,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Downloader{
		client:    client,
		userAgent: opts.UserAgent,
		headers:   opts.Headers,
		limiter:   ratelimit.NewDomainLimiter(opts.RPS, opts.Burst),
		retry:     opts.Retry,
	}
}

// Download fetches fileURL into filePath. The file is written to a
// temporary name first so an interrupted download never leaves a partial
// image under the final name.
func (d *Downloader) Download(ctx context.Context, fileURL, filePath string) *Result {
	result := &Result{
		URL:       fileURL,
		FilePath:  filePath,
		StartTime: time.Now(),
	}
	defer func() { result.Duration = time.Since(result.StartTime) }()

	if err := urlutil.ValidateURL(fileURL); err != nil {
		result.Error = err
		return result
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		result.Error = fmt.Errorf("failed to create output directory: %w", err)
		return result
	}

	err := retry.WithRetry(ctx, d.retry, func() error {
		if err := d.limiter.Wait(ctx, fileURL); err != nil {
			return retry.Permanent(err)
		}
		size, err := d.fetch(ctx, fileURL, filePath)
		if err != nil {
			return err
		}
		result.Size = size
		return nil
	})
	if err != nil {
		result.Error = err
		return result
	}

	result.Success = true

	log.Debug().
		Str("url", fileURL).
		Str("file", filePath).
		Int64("bytes", result.Size).
		Dur("duration", time.Since(result.StartTime)).
		Msg("Download completed")

	return result
}

func (d *Downloader) fetch(ctx context.Context, fileURL, filePath string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", d.userAgent)
	for key, value := range d.headers {
		req.Header.Set(key, value)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, retry.NewHTTPError(resp.StatusCode, resp.Status, fileURL)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".download-*")
	if err != nil {
		return 0, retry.Permanent(fmt.Errorf("failed to create file: %w", err))
	}
	tmpName := tmp.Name()

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpName)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return 0, retry.Permanent(fmt.Errorf("failed to move file into place: %w", err))
	}
	return n, nil
}

// ScreenFilename names the index-th screen (0-based) so a directory
// listing sorts in collection order: 001_<file>, 002_<file>, ...
func ScreenFilename(index int, fileURL string) string {
	return fmt.Sprintf("%03d_%s", index+1, sanitizeFilename(fileURL))
}

// sanitizeFilename prevents path traversal attacks
func sanitizeFilename(input string) string {
	if u, err := url.Parse(input); err == nil && u.Host != "" {
		if seg := urlutil.LastPathSegment(input); seg != "" {
			input = seg
		} else {
			input = u.Host
		}
	}

	// Remove dangerous characters
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	input = replacer.Replace(input)
	input = strings.TrimSpace(input)
	input = strings.Trim(input, ".")

	if input == "" {
		input = "screen"
	}
	if filepath.Ext(input) == "" {
		input += ".png"
	}
	if len(input) > 200 {
		input = input[:200]
	}

	return input
}
