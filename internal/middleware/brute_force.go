package middleware

import (
	"context"
	"math"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	bruteForceMaxAttempts = 5
	bruteForceWindow      = 15 * time.Minute
	bruteForceLockout     = 5 * time.Minute
	bruteForceCleanup     = 60 * time.Second
	bruteForceMaxRecords  = 10000
)

type failureRecord struct {
	attempts  int
	firstFail time.Time
	lockedAt  time.Time
}

// BruteForceGuard tracks authentication failures per API key hash and locks
// out keys that fail too often within the tracking window. Login attempts are
// tracked the same way, keyed by email.
type BruteForceGuard struct {
	mu      sync.Mutex
	records map[string]*failureRecord
	log     *logrus.Logger
}

// NewBruteForceGuard creates a new guard and starts a background cleanup goroutine
// that stops when ctx is cancelled.
func NewBruteForceGuard(ctx context.Context, log *logrus.Logger) *BruteForceGuard {
	g := &BruteForceGuard{
		records: make(map[string]*failureRecord),
		log:     log,
	}
	go g.cleanupLoop(ctx)
	return g
}

// IsBlocked reports whether key is currently locked out.
func (g *BruteForceGuard) IsBlocked(key string) bool {
	return g.LockedFor(key) > 0
}

// LockedFor returns the remaining lockout for key, or zero when it may retry.
func (g *BruteForceGuard) LockedFor(key string) time.Duration {
	kh := hashKey(key)
	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok || rec.lockedAt.IsZero() {
		return 0
	}

	return max(0, bruteForceLockout-time.Since(rec.lockedAt))
}

// SetRetryAfter writes a Retry-After header for a lockout of d, rounded up
// to whole seconds.
func SetRetryAfter(c *gin.Context, d time.Duration) {
	c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
}

// RecordFailure records a failed authentication attempt for key.
func (g *BruteForceGuard) RecordFailure(key string) {
	kh := hashKey(key)
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[kh]
	if !ok {
		g.records[kh] = &failureRecord{attempts: 1, firstFail: now}
		return
	}

	// Reset if outside the tracking window.
	if now.Sub(rec.firstFail) > bruteForceWindow {
		rec.attempts = 1
		rec.firstFail = now
		rec.lockedAt = time.Time{}
		return
	}

	rec.attempts++
	if rec.attempts >= bruteForceMaxAttempts {
		rec.lockedAt = now
		g.log.WithField("key_hash", kh[:16]+"...").Warn("credential locked out after repeated auth failures")
	}
}

// ResetKey clears failure tracking for key after a successful authentication.
func (g *BruteForceGuard) ResetKey(key string) {
	kh := hashKey(key)
	g.mu.Lock()
	delete(g.records, kh)
	g.mu.Unlock()
}

func (g *BruteForceGuard) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(bruteForceCleanup)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			g.mu.Lock()
			for k, rec := range g.records {
				// Remove expired lockouts and stale windows.
				if !rec.lockedAt.IsZero() && now.Sub(rec.lockedAt) >= bruteForceLockout {
					delete(g.records, k)
				} else if now.Sub(rec.firstFail) >= bruteForceWindow {
					delete(g.records, k)
				}
			}
			// Evict oldest entries if map exceeds cap.
			if len(g.records) > bruteForceMaxRecords {
				g.evictOldest(len(g.records) - bruteForceMaxRecords)
			}
			g.mu.Unlock()
		}
	}
}

// evictOldest removes the n entries with the oldest firstFail times.
// Caller must hold g.mu.
func (g *BruteForceGuard) evictOldest(n int) {
	keys := make([]string, 0, len(g.records))
	for k := range g.records {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b string) int {
		return g.records[a].firstFail.Compare(g.records[b].firstFail)
	})

	for _, k := range keys[:min(n, len(keys))] {
		delete(g.records, k)
	}
}

// BruteForceMiddleware returns middleware that blocks requests from locked-out API keys.
func BruteForceMiddleware(guard *BruteForceGuard) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := ExtractBearerToken(c)
		if apiKey == "" {
			c.Next()
			return
		}
		if wait := guard.LockedFor(apiKey); wait > 0 {
			SetRetryAfter(c, wait)
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many failed authentication attempts")
			return
		}

		c.Next()
	}
}
