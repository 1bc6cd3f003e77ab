package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/retry"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePage serves scripted harvest batches and page heights.
// Calls past the end of a script repeat its last entry.
type fakePage struct {
	mu sync.Mutex

	batches  [][]engine.Image
	heights  []float64
	viewport float64

	failHarvests int // number of leading harvest calls that fail
	harvestErr   error

	scrollY      float64
	harvests     int
	metricsCalls int
	scrolledTop  bool
}

func (p *fakePage) URL() string { return "https://example.com/apps/ios/demo" }

func (p *fakePage) Snapshot(ctx context.Context) (*engine.Snapshot, error) {
	return &engine.Snapshot{URL: p.URL()}, nil
}

func (p *fakePage) CandidateImages(ctx context.Context) ([]engine.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.harvests++
	if p.harvests <= p.failHarvests {
		if p.harvestErr != nil {
			return nil, p.harvestErr
		}
		return nil, errors.New("querySelectorAll failed")
	}
	if len(p.batches) == 0 {
		return nil, nil
	}
	i := p.harvests - p.failHarvests - 1
	if i >= len(p.batches) {
		i = len(p.batches) - 1
	}
	return p.batches[i], nil
}

func (p *fakePage) ScrollMetrics(ctx context.Context) (engine.ScrollMetrics, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h := p.viewport
	if len(p.heights) > 0 {
		i := p.metricsCalls
		if i >= len(p.heights) {
			i = len(p.heights) - 1
		}
		h = p.heights[i]
	}
	p.metricsCalls++
	if limit := h - p.viewport; p.scrollY > limit {
		p.scrollY = limit
	}
	if p.scrollY < 0 {
		p.scrollY = 0
	}
	return engine.ScrollMetrics{ScrollY: p.scrollY, ViewportHeight: p.viewport, ScrollHeight: h}, nil
}

func (p *fakePage) ScrollBy(ctx context.Context, dy float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollY += dy
	return nil
}

func (p *fakePage) ScrollToTop(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrollY = 0
	p.scrolledTop = true
	return nil
}

func testConfig() Config {
	return Config{
		SettleDelay:     0,
		BottomThreshold: 100,
		StagnationLimit: 2,
		Retry: retry.Config{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
			Multiplier:     2,
		},
	}
}

func imgs(srcs ...string) []engine.Image {
	out := make([]engine.Image, 0, len(srcs))
	for _, s := range srcs {
		out = append(out, engine.Image{Src: s})
	}
	return out
}

func TestOrderedSet(t *testing.T) {
	s := NewOrderedSet()
	assert.True(t, s.Add("b"))
	assert.True(t, s.Add("a"))
	assert.False(t, s.Add("b"))
	assert.True(t, s.Contains("a"))
	assert.False(t, s.Contains("c"))
	assert.Equal(t, []string{"b", "a"}, s.Items())
	assert.Equal(t, 2, s.Len())
}

func TestCollect_PreservesFirstSeenOrder(t *testing.T) {
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{1000},
		batches: [][]engine.Image{
			imgs("https://cdn.example.com/a.png", "https://cdn.example.com/b.png"),
			imgs("https://cdn.example.com/b.png?w=400", "https://cdn.example.com/c.png"),
			append(imgs("https://cdn.example.com/a.png#x", "https://cdn.example.com/d.png", "data:image/png;base64,AAA"),
				engine.Image{Src: "https://cdn.example.com/footer.png", InListItem: true},
				engine.Image{Src: "https://cdn.example.com/c.png"}),
		},
	}

	got, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://cdn.example.com/a.png",
		"https://cdn.example.com/b.png",
		"https://cdn.example.com/c.png",
		"https://cdn.example.com/d.png",
	}, got)
	assert.True(t, page.scrolledTop, "expected scroll position reset after the loop")
}

func TestCollect_TerminatesTwoIterationsAfterHeightStabilises(t *testing.T) {
	// Height grows for three iterations, then stays at 3000.
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{1000, 2000, 3000},
		batches:  [][]engine.Image{imgs("https://cdn.example.com/1.png")},
	}

	_, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, page.harvests, "3 growing iterations plus exactly 2 stagnant ones")
}

func TestCollect_NotAtBottomDoesNotCountAsStagnant(t *testing.T) {
	// Tall page with constant height: the loop must walk to the bottom first.
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{5000},
		batches:  [][]engine.Image{imgs("https://cdn.example.com/1.png")},
	}

	_, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.NoError(t, err)
	// scrollY 0,1000,2000,3000 are above the bottom edge; 4000 records the height;
	// two more stagnant observations stop the loop.
	assert.Equal(t, 7, page.harvests)
}

func TestCollect_CancelDiscardsPartialWork(t *testing.T) {
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{1000, 2000, 3000, 4000, 5000},
		batches: [][]engine.Image{
			imgs("https://cdn.example.com/1.png"),
			imgs("https://cdn.example.com/2.png"),
			imgs("https://cdn.example.com/3.png"),
		},
	}

	polls := 0
	cancelled := func() bool {
		polls++
		return polls > 2
	}

	got, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, cancelled)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, engine.HasCode(err, engine.ErrCodeAborted))
	assert.ErrorIs(t, err, engine.ErrAborted)
	assert.Equal(t, 2, page.harvests)
}

func TestCollect_TransientHarvestFailureIsRetried(t *testing.T) {
	page := &fakePage{
		viewport:     1000,
		heights:      []float64{1000},
		failHarvests: 2,
		batches:      [][]engine.Image{imgs("https://cdn.example.com/1.png")},
	}

	got, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/1.png"}, got)
}

func TestCollect_HarvestBudgetExceeded(t *testing.T) {
	page := &fakePage{
		viewport:     1000,
		heights:      []float64{1000},
		failHarvests: 100,
		batches:      [][]engine.Image{imgs("https://cdn.example.com/1.png")},
	}

	got, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, engine.HasCode(err, engine.ErrCodeHarvest), "got %v", err)
	assert.Equal(t, 3, page.harvests)
}

func TestCollect_ZeroImagesIsNoScreens(t *testing.T) {
	page := &fakePage{viewport: 1000, heights: []float64{1000}}

	got, err := NewCollector(testConfig(), nil).Collect(context.Background(), page, nil)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, engine.HasCode(err, engine.ErrCodeNoScreens))
	assert.Equal(t, engine.MsgNoScreens, engine.MessageOf(err))
	assert.True(t, page.scrolledTop)
}

func TestCollect_NotifierFailureIsIgnored(t *testing.T) {
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{1000},
		batches:  [][]engine.Image{imgs("https://cdn.example.com/1.png", "https://cdn.example.com/2.png")},
	}

	var events []models.ProgressEvent
	notifier := NotifierFunc(func(ctx context.Context, ev models.ProgressEvent) error {
		events = append(events, ev)
		return errors.New("trigger went away")
	})

	got, err := NewCollector(testConfig(), notifier).Collect(context.Background(), page, nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.Len(t, events, page.harvests, "one notification per iteration")
	assert.Equal(t, "progress", events[0].Event)
	assert.Equal(t, 2, events[len(events)-1].Count)
}

func TestCollect_ContextDeadline(t *testing.T) {
	page := &fakePage{
		viewport: 1000,
		heights:  []float64{1000, 2000, 3000, 4000, 5000, 6000},
		batches:  [][]engine.Image{imgs("https://cdn.example.com/1.png")},
	}
	cfg := testConfig()
	cfg.SettleDelay = 50 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := NewCollector(cfg, nil).Collect(ctx, page, nil)
	require.Error(t, err)
	assert.True(t, engine.HasCode(err, engine.ErrCodeTimeout))
}
