package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/agent"
	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/engine/metadata"
	"github.com/law-makers/screengrab/internal/engine/scan"
	"github.com/law-makers/screengrab/internal/retry"
	"github.com/law-makers/screengrab/internal/store"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPage struct {
	images []engine.Image
	gate   chan struct{}
}

func (p *stubPage) URL() string { return "https://example.com/apps/ios/demo" }

func (p *stubPage) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	return &engine.Snapshot{URL: p.URL(), HeadingText: "Demo App"}, nil
}

func (p *stubPage) CandidateImages(ctx context.Context) ([]engine.Image, error) {
	if p.gate != nil {
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.images, nil
}

func (p *stubPage) ScrollMetrics(ctx context.Context) (engine.ScrollMetrics, error) {
	return engine.ScrollMetrics{ViewportHeight: 900, ScrollHeight: 900}, nil
}

func (p *stubPage) ScrollBy(ctx context.Context, dy float64) error { return nil }
func (p *stubPage) ScrollToTop(ctx context.Context) error          { return nil }

func newTestServer(t *testing.T, page *stubPage) (*httptest.Server, *agent.Agent) {
	t.Helper()
	a := agent.New(agent.Options{
		Page:      page,
		Store:     store.New(store.NewMemoryBackend(), store.Options{}),
		Extractor: metadata.NewExtractor(config.DefaultHeuristics()),
		Scan:      scan.Config{SettleDelay: time.Millisecond, Retry: retry.Config{MaxAttempts: 1}},
	})
	ts := httptest.NewServer(New(a, Options{AllowedOrigins: []string{"*"}}).Handler())
	t.Cleanup(ts.Close)
	return ts, a
}

func TestServer_RemoteScan(t *testing.T) {
	page := &stubPage{images: []engine.Image{
		{Src: "https://cdn.example.com/1.png"},
		{Src: "https://cdn.example.com/2.png"},
	}}
	ts, _ := newTestServer(t, page)

	client := agent.NewRemoteClient(ts.URL, nil)
	meta, resp, err := agent.RunScan(context.Background(), client, time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, "Demo App", meta.Name)
	assert.Equal(t, models.StatusSuccess, resp.Status)
	assert.Equal(t, 2, resp.Count)

	ev, ok, err := client.Progress(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, ev.Count)
}

func TestServer_WireShapes(t *testing.T) {
	ts, _ := newTestServer(t, &stubPage{})

	res, err := http.Get(ts.URL + "/meta")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get(RequestIDHeader))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, "Demo App", body["name"])
	assert.Contains(t, body, "logoUrl")
	assert.NotContains(t, body, "status")

	res2, err := http.Get(ts.URL + "/progress")
	require.NoError(t, err)
	res2.Body.Close()
	assert.Equal(t, http.StatusNoContent, res2.StatusCode)
}

func TestServer_NoScreens(t *testing.T) {
	ts, _ := newTestServer(t, &stubPage{})

	res, err := http.Post(ts.URL+"/scrape", "application/json", nil)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)

	var resp models.Response
	require.NoError(t, json.NewDecoder(res.Body).Decode(&resp))
	assert.Equal(t, models.StatusError, resp.Status)
	assert.Equal(t, string(engine.ErrCodeNoScreens), resp.Code)
}

func TestServer_BusyAndAbort(t *testing.T) {
	page := &stubPage{images: []engine.Image{{Src: "https://cdn.example.com/1.png"}}, gate: make(chan struct{})}
	ts, a := newTestServer(t, page)

	done := make(chan *http.Response, 1)
	go func() {
		res, err := http.Post(ts.URL+"/scrape", "application/json", nil)
		if err == nil {
			done <- res
		}
	}()
	require.Eventually(t, func() bool { return a.State() == agent.StateRunning }, 5*time.Second, 5*time.Millisecond)

	res, err := http.Post(ts.URL+"/message", "application/json", strings.NewReader(`{"action":"start_scrape"}`))
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	res, err = http.Post(ts.URL+"/abort", "application/json", nil)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	close(page.gate)

	select {
	case scrape := <-done:
		defer scrape.Body.Close()
		var resp models.Response
		require.NoError(t, json.NewDecoder(scrape.Body).Decode(&resp))
		assert.Equal(t, models.StatusAborted, resp.Status)
	case <-time.After(5 * time.Second):
		t.Fatal("scrape request did not return")
	}
}

func TestServer_CORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, &stubPage{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/scrape", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}
