package auth

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ImportFormat names a cookie export format accepted by ImportCookies
type ImportFormat string

const (
	// FormatJSON is an array of Cookie objects, as exported by most cookie editor extensions
	FormatJSON ImportFormat = "json"
	// FormatNetscape is the tab-separated cookies.txt format used by curl and wget
	FormatNetscape ImportFormat = "netscape"
)

// ImportCookies reads cookies exported from a regular browser. It is the
// way to create a session where no display is available for InteractiveLogin.
func ImportCookies(r io.Reader, format ImportFormat) ([]Cookie, error) {
	switch format {
	case FormatJSON:
		var cookies []Cookie
		if err := json.NewDecoder(r).Decode(&cookies); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		return cookies, nil
	case FormatNetscape:
		return parseNetscape(r)
	default:
		return nil, fmt.Errorf("unsupported format: %s (use: json, netscape)", format)
	}
}

// parseNetscape reads domain, include-subdomains, path, secure, expiry,
// name and value columns. The "#HttpOnly_" domain prefix marks HttpOnly cookies.
func parseNetscape(r io.Reader) ([]Cookie, error) {
	var cookies []Cookie
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		httpOnly := false
		if strings.HasPrefix(line, "#HttpOnly_") {
			line = strings.TrimPrefix(line, "#HttpOnly_")
			httpOnly = true
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 7 {
			fields = strings.Fields(line)
		}
		if len(fields) < 7 {
			continue
		}

		cookie := Cookie{
			Domain:   fields[0],
			Path:     fields[2],
			Secure:   strings.EqualFold(fields[3], "TRUE"),
			Name:     fields[5],
			Value:    fields[6],
			HTTPOnly: httpOnly,
		}
		if expiry, err := strconv.ParseInt(fields[4], 10, 64); err == nil && expiry > 0 {
			cookie.Expires = float64(expiry)
		}

		cookies = append(cookies, cookie)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cookies, nil
}

// NewImportedSession builds a session from imported cookies. The session
// expires with its earliest expiring cookie.
func NewImportedSession(name, url string, cookies []Cookie, now time.Time) *SessionData {
	session := &SessionData{
		Name:      name,
		URL:       url,
		Cookies:   cookies,
		Headers:   make(map[string]string),
		CreatedAt: now,
	}

	var earliest time.Time
	for _, c := range cookies {
		if c.Expires <= 0 {
			continue
		}
		expiry := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || expiry.Before(earliest) {
			earliest = expiry
		}
	}
	session.ExpiresAt = earliest
	return session
}
