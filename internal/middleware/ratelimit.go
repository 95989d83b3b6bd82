// Package middleware provides HTTP middleware for the statistics API.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// maxBuckets bounds the number of tracked client IPs.
	maxBuckets = 100_000

	bucketIdleTTL = 10 * time.Minute
)

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the given requests per second and burst size.
// Idle buckets are evicted in the background until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(ratePerSec),
		burst:   burst,
		now:     time.Now,
	}
	go rl.cleanupLoop(ctx)

	return rl
}

func (rl *RateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bucketIdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, b := range rl.buckets {
		if now.Sub(b.lastSeen) > bucketIdleTTL {
			delete(rl.buckets, ip)
		}
	}
}

// take spends one token for key. A denied request gets its reservation back
// and learns how long until the next token is available.
func (rl *RateLimiter) take(key string) (bool, time.Duration, bool) {
	now := rl.now()

	rl.mu.Lock()
	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			rl.mu.Unlock()

			return false, 0, true
		}

		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	lim := b.lim
	rl.mu.Unlock()

	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return false, 0, false
	}

	if wait := r.DelayFrom(now); wait > 0 {
		r.CancelAt(now)

		return false, wait, false
	}

	return true, 0, false
}

// Handler returns Gin middleware that applies rate limiting per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Proxy headers are not trusted (SetTrustedProxies(nil)), so ClientIP
		// is the socket peer.
		allowed, wait, full := rl.take(c.ClientIP())

		switch {
		case full:
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")
		case !allowed:
			SetRetryAfter(c, wait)
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")
		default:
			c.Next()
		}
	}
}
