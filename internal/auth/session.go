// internal/auth/session.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/rs/zerolog/log"
	"github.com/zalando/go-keyring"
)

// manifestKey lists session names, since the keyring cannot enumerate entries
const manifestKey = "_sessions"

// ErrSessionExpired is returned by Load for a session past its expiry
var ErrSessionExpired = errors.New("session expired")

// SessionData represents a stored login session for a design-reference site
type SessionData struct {
	Name      string            `json:"name"`
	URL       string            `json:"url"`
	Cookies   []Cookie          `json:"cookies"`
	Headers   map[string]string `json:"headers,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
}

// Cookie represents a browser cookie
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// HTTPCookies converts the session cookies for use with net/http
func (s *SessionData) HTTPCookies() []*http.Cookie {
	cookies := make([]*http.Cookie, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		hc := &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HttpOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			hc.Expires = time.Unix(int64(c.Expires), 0)
		}
		cookies = append(cookies, hc)
	}
	return cookies
}

// CookieParams converts the session cookies for injection into a Chrome tab
func (s *SessionData) CookieParams() []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.Domain == "" {
			p.URL = s.URL
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			t := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &t
		}
		params = append(params, p)
	}
	return params
}

// Manager stores sessions in the OS keyring, or as files under dir where
// no keyring is available (CI, containers, Codespaces)
type Manager struct {
	service string
	dir     string
	useFile bool
}

// NewManager probes the keyring once and falls back to files in dir
func NewManager(service, dir string) *Manager {
	return &Manager{service: service, dir: dir, useFile: !keyringAvailable(service)}
}

// NewKeyringManager always uses the keyring
func NewKeyringManager(service string) *Manager {
	return &Manager{service: service}
}

// NewFileManager always uses files in dir
func NewFileManager(dir string) *Manager {
	return &Manager{dir: dir, useFile: true}
}

func keyringAvailable(service string) bool {
	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		return false
	}
	const probe = "_probe"
	if err := keyring.Set(service, probe, "ok"); err != nil {
		log.Debug().Err(err).Msg("Keyring unavailable, using file-based sessions")
		return false
	}
	_ = keyring.Delete(service, probe)
	return true
}

// Backend names where sessions are stored
func (m *Manager) Backend() string {
	if m.useFile {
		return "file:" + m.dir
	}
	return "keyring:" + m.service
}

func (m *Manager) path(name string) (string, error) {
	if err := os.MkdirAll(m.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return filepath.Join(m.dir, name+".json"), nil
}

// Save stores a session, replacing any session with the same name
func (m *Manager) Save(session *SessionData) error {
	if session.Name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	if m.useFile {
		path, err := m.path(session.Name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(m.service, session.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return m.updateManifest(session.Name, true)
}

// Load returns the named session. Expired sessions are reported as ErrSessionExpired.
func (m *Manager) Load(name string) (*SessionData, error) {
	if name == "" {
		return nil, fmt.Errorf("session name cannot be empty")
	}

	var data []byte
	if m.useFile {
		path, err := m.path(name)
		if err != nil {
			return nil, err
		}
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load session file: %w", err)
		}
	} else {
		v, err := keyring.Get(m.service, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
		data = []byte(v)
	}

	var session SessionData
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to deserialize session: %w", err)
	}

	if !session.ExpiresAt.IsZero() && time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: %s", ErrSessionExpired, name)
	}

	return &session, nil
}

// Delete removes the named session
func (m *Manager) Delete(name string) error {
	if name == "" {
		return fmt.Errorf("session name cannot be empty")
	}

	if m.useFile {
		path, err := m.path(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete session file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(m.service, name); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return m.updateManifest(name, false)
}

// List returns the stored session names in sorted order
func (m *Manager) List() ([]string, error) {
	if m.useFile {
		entries, err := os.ReadDir(m.dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}
		sessions := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				sessions = append(sessions, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		sort.Strings(sessions)
		return sessions, nil
	}

	manifest, err := keyring.Get(m.service, manifestKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session manifest: %w", err)
	}

	var sessions []string
	if err := json.Unmarshal([]byte(manifest), &sessions); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	sort.Strings(sessions)
	return sessions, nil
}

func (m *Manager) updateManifest(name string, add bool) error {
	sessions, err := m.List()
	if err != nil {
		return err
	}

	kept := sessions[:0]
	for _, s := range sessions {
		if s != name {
			kept = append(kept, s)
		}
	}
	if add {
		kept = append(kept, name)
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return keyring.Set(m.service, manifestKey, string(data))
}
