package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:          attempts,
		InitialBackoff:       time.Millisecond,
		MaxBackoff:           5 * time.Millisecond,
		Multiplier:           2.0,
		RetryableStatusCodes: []int{http.StatusServiceUnavailable},
	}
}

func TestWithRetry_SucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		if calls < 3 {
			return errors.New("dom query failed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetry_Exhausted(t *testing.T) {
	sentinel := errors.New("still broken")
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return sentinel
	})

	var exhausted *ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 3 || calls != 3 {
		t.Errorf("attempts=%d calls=%d, want 3/3", exhausted.Attempts, calls)
	}
	if !errors.Is(err, sentinel) {
		t.Error("expected exhausted error to wrap the last failure")
	}
}

func TestWithRetry_StatusCodes(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return NewHTTPError(http.StatusNotFound, "404 Not Found", "")
	})
	if err == nil || calls != 1 {
		t.Fatalf("404 must not be retried: calls=%d err=%v", calls, err)
	}

	calls = 0
	_ = WithRetry(context.Background(), fastConfig(3), func() error {
		calls++
		return NewHTTPError(http.StatusServiceUnavailable, "503 Service Unavailable", "")
	})
	if calls != 3 {
		t.Errorf("503 should be retried, got %d calls", calls)
	}
}

func TestWithRetry_Permanent(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), fastConfig(5), func() error {
		calls++
		return Permanent(errors.New("bad selector"))
	})
	if err == nil || calls != 1 {
		t.Fatalf("permanent errors must not be retried: calls=%d", calls)
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialBackoff = time.Second

	calls := 0
	err := WithRetry(ctx, cfg, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestHarvestConfig_BackoffDoublesSettle(t *testing.T) {
	cfg := HarvestConfig(500*time.Millisecond, 3, 2, 0)
	if got := calculateBackoff(0, cfg); got != time.Second {
		t.Errorf("first backoff = %v, want 1s", got)
	}
	if got := calculateBackoff(1, cfg); got != 2*time.Second {
		t.Errorf("second backoff = %v, want 2s", got)
	}
}

func TestHarvestConfig_DefaultAllowsThreeRetries(t *testing.T) {
	cfg := HarvestConfig(time.Millisecond, 0, 0, 0)
	cfg.MaxBackoff = time.Millisecond

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls <= 3 {
			return errors.New("node detached")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("three failures must still be within budget: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}
