package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func sampleSession(name string) *SessionData {
	return &SessionData{
		Name: name,
		URL:  "https://designs.example.com/login",
		Cookies: []Cookie{
			{Name: "sid", Value: "abc", Domain: ".example.com", Path: "/", Expires: float64(time.Now().Add(time.Hour).Unix()), HTTPOnly: true, Secure: true, SameSite: "Lax"},
			{Name: "pref", Value: "dark", Path: "/"},
		},
		CreatedAt: time.Now(),
	}
}

func exerciseManager(t *testing.T, m *Manager) {
	t.Helper()

	names, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, m.Save(sampleSession("work")))
	require.NoError(t, m.Save(sampleSession("alt")))
	require.NoError(t, m.Save(sampleSession("work")))

	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"alt", "work"}, names)

	s, err := m.Load("work")
	require.NoError(t, err)
	assert.Len(t, s.Cookies, 2)

	require.NoError(t, m.Delete("alt"))
	names, err = m.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, names)

	expired := sampleSession("old")
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, m.Save(expired))
	_, err = m.Load("old")
	assert.True(t, errors.Is(err, ErrSessionExpired))
}

func TestManager_File(t *testing.T) {
	exerciseManager(t, NewFileManager(t.TempDir()))
}

func TestManager_Keyring(t *testing.T) {
	keyring.MockInit()
	exerciseManager(t, NewKeyringManager("screengrab-test"))
}

func TestSessionData_Cookies(t *testing.T) {
	s := sampleSession("work")

	hc := s.HTTPCookies()
	require.Len(t, hc, 2)
	assert.Equal(t, "sid", hc[0].Name)
	assert.False(t, hc[0].Expires.IsZero())
	assert.True(t, hc[1].Expires.IsZero(), "session cookie has no expiry")

	params := s.CookieParams()
	require.Len(t, params, 2)
	assert.Equal(t, network.CookieSameSiteLax, params[0].SameSite)
	assert.NotNil(t, params[0].Expires)
	assert.Equal(t, "https://designs.example.com/login", params[1].URL, "domainless cookies are bound to the session URL")
}

func TestSessionFromCookies(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cookies := []*network.Cookie{
		{Name: "a", Value: "1", Expires: -1},
		{Name: "b", Value: "2", Expires: 1_800_000_000},
	}
	s := sessionFromCookies(LoginOptions{SessionName: "work", URL: "https://x"}, cookies, now)
	assert.Equal(t, now, s.CreatedAt)
	assert.Equal(t, time.Unix(1_800_000_000, 0), s.ExpiresAt)
	assert.Len(t, s.Cookies, 2)
}
