package middleware

import (
	"context"
	"testing"
	"time"
)

func newClockedLimiter(t *testing.T, ratePerSec, burst int) (*RateLimiter, *time.Time) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, ratePerSec, burst)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiterTakeFractionalRefill(t *testing.T) {
	rl, clock := newClockedLimiter(t, 2, 1)

	if ok, _, _ := rl.take("a"); !ok {
		t.Fatal("first request should pass")
	}

	ok, wait, _ := rl.take("a")
	if ok {
		t.Fatal("second request should be limited")
	}
	if wait != 500*time.Millisecond {
		t.Errorf("wait = %v, want 500ms", wait)
	}

	// Half a token per 250ms at 2/s; two quarter steps add up to one token.
	*clock = clock.Add(250 * time.Millisecond)
	ok, wait, _ = rl.take("a")
	if ok {
		t.Fatal("half a token is not enough")
	}
	if wait != 250*time.Millisecond {
		t.Errorf("wait = %v, want 250ms", wait)
	}
	*clock = clock.Add(250 * time.Millisecond)
	if ok, _, _ := rl.take("a"); !ok {
		t.Fatal("refilled token should pass")
	}
}

// Rejected requests hand their reservation back, so hammering a limited
// client does not push its next token further out.
func TestRateLimiterDeniedRequestsDoNotSpendTokens(t *testing.T) {
	rl, clock := newClockedLimiter(t, 1, 1)

	rl.take("a")
	for range 5 {
		if ok, wait, _ := rl.take("a"); ok || wait != time.Second {
			t.Fatalf("take = %v, %v; want denied with 1s wait", ok, wait)
		}
	}

	*clock = clock.Add(time.Second)
	if ok, _, _ := rl.take("a"); !ok {
		t.Fatal("token should be back after one second")
	}
}

func TestRateLimiterEvictIdle(t *testing.T) {
	rl, clock := newClockedLimiter(t, 1, 1)

	rl.take("idle")
	*clock = clock.Add(bucketIdleTTL / 2)
	rl.take("busy")
	*clock = clock.Add(bucketIdleTTL/2 + time.Second)
	rl.evictIdle()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["idle"]; ok {
		t.Error("idle bucket should be evicted")
	}
	if _, ok := rl.buckets["busy"]; !ok {
		t.Error("recent bucket should be kept")
	}
}
