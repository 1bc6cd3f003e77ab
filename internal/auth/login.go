// internal/auth/login.go
package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/screengrab/internal/engine/dynamic"
	"github.com/rs/zerolog/log"
)

// LoginOptions configures the interactive login behavior
type LoginOptions struct {
	// SessionName is the name to save the session as
	SessionName string
	// URL to navigate to for login
	URL string
	// WaitSelector is a CSS selector that appears once logged in; when empty
	// the user confirms with Enter
	WaitSelector string
	// Timeout for the entire login process
	Timeout time.Duration
	// Headers are stored with the session and replayed on every scan
	Headers map[string]string
	// Launch carries the Chrome path, user agent and proxy; headless is forced off
	Launch dynamic.LaunchOptions
	// Prompt receives user-facing instructions, Confirm is read for Enter
	Prompt  io.Writer
	Confirm io.Reader
}

// InteractiveLogin opens a visible browser, waits for the user to log in and
// captures the resulting cookies
func InteractiveLogin(ctx context.Context, opts LoginOptions) (*SessionData, error) {
	if opts.SessionName == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Prompt == nil {
		opts.Prompt = os.Stdout
	}
	if opts.Confirm == nil {
		opts.Confirm = os.Stdin
	}

	if runtime.GOOS == "linux" && os.Getenv("DISPLAY") == "" && os.Getenv("WAYLAND_DISPLAY") == "" {
		return nil, fmt.Errorf("interactive login requires a display server (DISPLAY not set)")
	}

	log.Info().
		Str("session", opts.SessionName).
		Str("url", opts.URL).
		Msg("Starting interactive login")

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	launch := opts.Launch
	launch.Headless = false
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, dynamic.AllocatorOptions(launch)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	fmt.Fprintln(opts.Prompt, "\n🌐 Browser opened. Please complete the login process manually.")

	if err := chromedp.Run(browserCtx, network.Enable(), chromedp.Navigate(opts.URL)); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}

	if opts.WaitSelector != "" {
		fmt.Fprintf(opts.Prompt, "   Waiting for element: %s\n", opts.WaitSelector)
		if err := chromedp.Run(browserCtx, chromedp.WaitVisible(opts.WaitSelector, chromedp.ByQuery)); err != nil {
			return nil, fmt.Errorf("login timeout or failed: %w", err)
		}
	} else {
		fmt.Fprintln(opts.Prompt, "\n   Press Enter once you have completed login...")
		if _, err := bufio.NewReader(opts.Confirm).ReadString('\n'); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read confirmation: %w", err)
		}
	}

	var cookies []*network.Cookie
	err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to extract cookies: %w", err)
	}
	if len(cookies) == 0 {
		return nil, fmt.Errorf("no cookies found - login may have failed")
	}

	log.Info().Int("cookie_count", len(cookies)).Msg("Cookies extracted")
	fmt.Fprintf(opts.Prompt, "\n✓ Successfully captured %d cookies\n", len(cookies))

	return sessionFromCookies(opts, cookies, time.Now()), nil
}

func sessionFromCookies(opts LoginOptions, cookies []*network.Cookie, now time.Time) *SessionData {
	session := &SessionData{
		Name:      opts.SessionName,
		URL:       opts.URL,
		Cookies:   make([]Cookie, len(cookies)),
		Headers:   opts.Headers,
		CreatedAt: now,
	}

	maxExpires := 0.0
	for i, c := range cookies {
		session.Cookies[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if c.Expires > maxExpires {
			maxExpires = c.Expires
		}
	}

	// Session cookies report -1; only persistent cookies bound the session
	if maxExpires > 0 {
		session.ExpiresAt = time.Unix(int64(maxExpires), 0)
	}

	return session
}
