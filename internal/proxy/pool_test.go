package proxy

import (
	"net/http"
	"testing"
	"time"
)

func TestPool_Rotation(t *testing.T) {
	pool := NewPool([]string{"p1", "p2", "p3"})

	for _, want := range []string{"p1", "p2", "p3", "p1"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s, got %s", want, p)
		}
	}

	// Index now points at p2
	pool.MarkFailed("p2")

	for _, want := range []string{"p3", "p1", "p3"} {
		if p := pool.Next(); p != want {
			t.Errorf("Expected %s (skipping p2), got %s", want, p)
		}
	}

	pool.MarkHealthy("p2")
	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1, got %s", p)
	}
	if p := pool.Next(); p != "p2" {
		t.Errorf("Expected p2 after MarkHealthy, got %s", p)
	}
}

func TestPool_AllFailed(t *testing.T) {
	pool := NewPool([]string{"p1", "p2"})
	pool.MarkFailed("p1")
	pool.MarkFailed("p2")

	if p := pool.Next(); p == "" {
		t.Error("expected a proxy even when all are cooling down")
	}
}

func TestPool_CooldownExpires(t *testing.T) {
	pool := NewPool([]string{"p1", "p2"})
	pool.cooldown = time.Millisecond
	pool.MarkFailed("p1")
	time.Sleep(5 * time.Millisecond)

	if p := pool.Next(); p != "p1" {
		t.Errorf("Expected p1 after cooldown, got %s", p)
	}
}

func TestParse(t *testing.T) {
	pool := Parse(" http://a:8080, ,http://b:8080 ")
	if pool.Len() != 2 {
		t.Fatalf("expected 2 proxies, got %d", pool.Len())
	}
	if Parse("").Next() != "" {
		t.Error("empty pool must return no proxy")
	}
	if Parse("").ProxyFunc() != nil {
		t.Error("empty pool must not install a proxy func")
	}

	fn := pool.ProxyFunc()
	req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
	u, err := fn(req)
	if err != nil || u.Host != "a:8080" {
		t.Errorf("unexpected proxy %v (%v)", u, err)
	}
}
