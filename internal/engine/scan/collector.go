// internal/engine/scan/collector.go
package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/law-makers/screengrab/internal/config"
	"github.com/law-makers/screengrab/internal/engine"
	"github.com/law-makers/screengrab/internal/retry"
	urlutil "github.com/law-makers/screengrab/internal/utils/url"
	"github.com/law-makers/screengrab/pkg/models"
	"github.com/rs/zerolog/log"
)

// Notifier receives progress events. Delivery is best effort: a returned
// error is logged and otherwise ignored.
type Notifier interface {
	Notify(ctx context.Context, ev models.ProgressEvent) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, ev models.ProgressEvent) error

// Notify calls f
func (f NotifierFunc) Notify(ctx context.Context, ev models.ProgressEvent) error {
	return f(ctx, ev)
}

// Config tunes the scroll-and-collect loop
type Config struct {
	SettleDelay     time.Duration
	BottomThreshold float64
	StagnationLimit int
	Retry           retry.Config
}

// ConfigFrom builds a loop Config from the application scan settings
func ConfigFrom(sc config.ScanConfig) Config {
	return Config{
		SettleDelay:     sc.SettleDelay,
		BottomThreshold: sc.BottomThreshold,
		StagnationLimit: sc.StagnationLimit,
		Retry:           retry.HarvestConfig(sc.SettleDelay, sc.HarvestAttempts, sc.BackoffMultiplier, sc.MaxBackoff),
	}
}

// Collector scrolls a page to its end and returns every screen image URL it saw
type Collector struct {
	cfg      Config
	notifier Notifier
}

// NewCollector creates a Collector. notifier may be nil.
func NewCollector(cfg Config, notifier Notifier) *Collector {
	if cfg.StagnationLimit <= 0 {
		cfg.StagnationLimit = config.DefaultStagnationLimit
	}
	if cfg.BottomThreshold <= 0 {
		cfg.BottomThreshold = config.DefaultBottomThreshold
	}
	return &Collector{cfg: cfg, notifier: notifier}
}

// Collect runs the loop until the page stops growing at its bottom edge.
// cancelled is polled once per iteration; when it reports true the partial
// result is discarded and an ABORTED error is returned.
func (c *Collector) Collect(ctx context.Context, page engine.Page, cancelled func() bool) ([]string, error) {
	set := NewOrderedSet()
	var lastHeight float64
	stagnantRounds := 0

	for iteration := 1; ; iteration++ {
		if cancelled != nil && cancelled() {
			log.Info().Int("iteration", iteration).Int("captured", set.Len()).Msg("Scan aborted, discarding partial results")
			return nil, engine.NewEngineError(engine.ErrCodeAborted, "scan aborted", engine.ErrAborted)
		}
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}

		var images []engine.Image
		err := retry.WithRetry(ctx, c.cfg.Retry, func() error {
			var err error
			images, err = page.CandidateImages(ctx)
			return err
		})
		if err != nil {
			return nil, harvestError("harvest screen images", err)
		}

		added := 0
		for _, img := range images {
			if img.InListItem {
				continue
			}
			u := urlutil.Normalize(img.Src)
			if !urlutil.HasHTTPScheme(u) {
				continue
			}
			if set.Add(u) {
				added++
			}
		}

		c.notify(ctx, set.Len())

		var metrics engine.ScrollMetrics
		err = retry.WithRetry(ctx, c.cfg.Retry, func() error {
			var err error
			metrics, err = page.ScrollMetrics(ctx)
			return err
		})
		if err != nil {
			return nil, harvestError("read scroll metrics", err)
		}

		log.Debug().
			Int("iteration", iteration).
			Int("added", added).
			Int("captured", set.Len()).
			Float64("scroll_y", metrics.ScrollY).
			Float64("scroll_height", metrics.ScrollHeight).
			Int("stagnant_rounds", stagnantRounds).
			Msg("Scan iteration")

		if metrics.AtBottom(c.cfg.BottomThreshold) {
			if metrics.ScrollHeight == lastHeight {
				stagnantRounds++
				if stagnantRounds >= c.cfg.StagnationLimit {
					log.Debug().Int("iteration", iteration).Msg("Page height stable at bottom, stopping")
					break
				}
			} else {
				lastHeight = metrics.ScrollHeight
				stagnantRounds = 0
			}
		}

		err = retry.WithRetry(ctx, c.cfg.Retry, func() error {
			return page.ScrollBy(ctx, metrics.ViewportHeight)
		})
		if err != nil {
			return nil, harvestError("scroll page", err)
		}

		if err := sleep(ctx, c.cfg.SettleDelay); err != nil {
			return nil, contextError(err)
		}
	}

	if err := page.ScrollToTop(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to reset scroll position")
	}

	if set.Len() == 0 {
		return nil, engine.NewEngineError(engine.ErrCodeNoScreens, engine.MsgNoScreens, nil).
			WithDetail("url", page.URL())
	}

	return set.Items(), nil
}

func (c *Collector) notify(ctx context.Context, count int) {
	if c.notifier == nil {
		return
	}
	ev := models.ProgressEvent{
		Event: "progress",
		Text:  fmt.Sprintf("Captured %d screens...", count),
		Count: count,
		At:    time.Now(),
	}
	if err := c.notifier.Notify(ctx, ev); err != nil {
		log.Debug().Err(err).Msg("Progress notification dropped")
	}
}

// sleep waits d on a timer. The settle delay is fixed and never tied to
// scroll animation events.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func harvestError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return contextError(err)
	}
	attempts := 1
	var exhausted *retry.ExhaustedError
	if errors.As(err, &exhausted) {
		attempts = exhausted.Attempts
	}
	return engine.NewEngineError(engine.ErrCodeHarvest,
		fmt.Sprintf("failed to %s after %d attempts", op, attempts), err).
		WithDetail("attempts", attempts)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return engine.NewEngineError(engine.ErrCodeTimeout, "scan timed out", engine.ErrTimeout)
	}
	return engine.NewEngineError(engine.ErrCodeAborted, "scan aborted", engine.ErrAborted)
}
