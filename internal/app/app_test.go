package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/static"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appPage = `<html><head><title>Acme Notes — iOS App</title></head><body>
<h1>Acme Notes — iOS</h1>
<div data-testid="app-logo"><img src="/logo.png" width="96" height="96"></div>
<div data-testid="screen-cell"><img src="/s/1.png?w=200"></div>
<div data-testid="screen-cell"><img src="/s/2.png"></div>
<ul><li><div data-testid="screen-cell"><img src="/s/related.png"></div></li></ul>
</body></html>`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("CI", "1")
	t.Setenv("HOME", t.TempDir())

	cfg := config.Default()
	cfg.StoreURL = "mem://"
	cfg.Mode = string(models.ModeStatic)
	cfg.LogLevel = "error"
	cfg.Scan.SettleDelay = time.Millisecond
	return cfg
}

func TestApplication_StaticScanEndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, appPage)
	}))
	defer server.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close(ctx)

	page, closePage, err := a.OpenPage(ctx, models.PageOptions{URL: server.URL + "/apps/ios/acme-notes"})
	require.NoError(t, err)
	defer closePage()

	ag, err := a.NewAgent(ctx, page, nil)
	require.NoError(t, err)

	resp := ag.StartScrape(ctx)
	require.Equal(t, models.StatusSuccess, resp.Status, resp.Message)
	assert.Equal(t, "Acme Notes", resp.AppName)
	assert.Equal(t, 2, resp.Count)

	st, err := a.Store(ctx)
	require.NoError(t, err)
	c, err := st.Get(ctx, "acme-notes")
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/s/1.png", server.URL + "/s/2.png"}, c.Screens)
	assert.Equal(t, server.URL+"/logo.png", c.LogoURL)
}

func TestApplication_OpenPageUnknownSession(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close(ctx)

	_, closePage, err := a.OpenPage(ctx, models.PageOptions{URL: "https://example.com", SessionName: "missing"})
	closePage()
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeSessionError))
}

func TestApplication_StoreIsCached(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t))
	require.NoError(t, err)
	defer a.Close(ctx)

	s1, err := a.Store(ctx)
	require.NoError(t, err)
	s2, err := a.Store(ctx)
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}

func TestApplication_BadStoreURL(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.StoreURL = "ftp://nowhere"
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	_, err = a.Store(ctx)
	assert.True(t, engine.HasCode(err, engine.ErrCodeStorage))
}

func TestApplication_AutoModeKeepsServerRenderedPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, appPage)
	}))
	defer server.Close()

	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Mode = string(models.ModeAuto)
	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close(ctx)

	page, closePage, err := a.OpenPage(ctx, models.PageOptions{URL: server.URL + "/apps/ios/acme-notes"})
	require.NoError(t, err)
	defer closePage()

	_, isStatic := page.(*static.Page)
	assert.True(t, isStatic, "a page listing screens in its HTML must not start Chrome")
	a.poolMu.Lock()
	assert.Nil(t, a.BrowserPool)
	a.poolMu.Unlock()
}
