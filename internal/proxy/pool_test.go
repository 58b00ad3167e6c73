package proxy

import (
	"testing"
	"time"
)

func mustPool(t *testing.T, proxies ...string) *ProxyPool {
	t.Helper()
	pool, err := NewProxyPool(proxies)
	if err != nil {
		t.Fatalf("NewProxyPool failed: %v", err)
	}
	return pool
}

func next(pool *ProxyPool) string {
	u := pool.GetNext()
	if u == nil {
		return ""
	}
	return u.Host
}

func TestProxyPool(t *testing.T) {
	pool := mustPool(t, "p1:8080", "p2:8080", "http://p3:8080")

	// Rotation
	for _, want := range []string{"p1:8080", "p2:8080", "p3:8080", "p1:8080"} {
		if got := next(pool); got != want {
			t.Errorf("Expected %s, got %s", want, got)
		}
	}

	// Failure: index is at p2
	p2 := pool.proxies[1]
	pool.MarkFailed(p2)

	if got := next(pool); got != "p3:8080" {
		t.Errorf("Expected p3 (skipping p2), got %s", got)
	}
	if got := next(pool); got != "p1:8080" {
		t.Errorf("Expected p1, got %s", got)
	}
	if got := next(pool); got != "p3:8080" {
		t.Errorf("Expected p3, got %s", got)
	}

	pool.MarkHealthy(p2)

	if got := next(pool); got != "p1:8080" {
		t.Errorf("Expected p1, got %s", got)
	}
	if got := next(pool); got != "p2:8080" {
		t.Errorf("Expected p2, got %s", got)
	}
}

func TestProxyPool_AllFailedStillReturnsOne(t *testing.T) {
	pool := mustPool(t, "p1:1", "p2:1")
	pool.MarkFailed(pool.proxies[0])
	pool.MarkFailed(pool.proxies[1])

	if got := next(pool); got == "" {
		t.Error("Expected a proxy even when all are cooling down")
	}
}

func TestProxyPool_CooldownExpires(t *testing.T) {
	pool := mustPool(t, "p1:1", "p2:1")
	pool.cooldown = 10 * time.Millisecond
	pool.MarkFailed(pool.proxies[0])

	time.Sleep(20 * time.Millisecond)
	if got := next(pool); got != "p1:1" {
		t.Errorf("Expected p1 after cooldown, got %s", got)
	}
}

func TestProxyPool_Empty(t *testing.T) {
	pool := mustPool(t)
	if pool.GetNext() != nil {
		t.Error("Expected nil proxy for empty pool")
	}
	if pool.Size() != 0 {
		t.Errorf("Expected empty pool, got %d", pool.Size())
	}
}

func TestNewProxyPool_Invalid(t *testing.T) {
	if _, err := NewProxyPool([]string{"http://"}); err == nil {
		t.Error("Expected error for proxy without host")
	}
}
