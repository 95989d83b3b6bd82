package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/persistorai/vitiapi/internal/models"
)

const (
	userCacheTTL       = 2 * time.Minute
	negativeCacheTTL   = 30 * time.Second
	maxCacheEntries    = 10000
	cacheCleanupPeriod = 60 * time.Second
)

type cachedUser struct {
	user      *models.User
	err       error
	fetchedAt time.Time
}

func (cu cachedUser) ttl() time.Duration {
	if cu.err != nil {
		return negativeCacheTTL
	}
	return userCacheTTL
}

// hashKey returns the hex SHA-256 of an API key. It matches the stored
// users.api_key_hash, so raw keys are never held in memory.
func hashKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(h[:])
}

// CachedUserLookup wraps a UserLookup with a bounded in-memory cache.
// Concurrent misses for the same key share one inner lookup.
type CachedUserLookup struct {
	inner UserLookup
	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]cachedUser
}

// NewCachedUserLookup creates a caching wrapper around inner.
// ctx controls the lifetime of the background eviction goroutine.
func NewCachedUserLookup(ctx context.Context, inner UserLookup) *CachedUserLookup {
	c := &CachedUserLookup{
		inner: inner,
		cache: make(map[string]cachedUser),
	}
	go c.evictLoop(ctx)
	return c
}

func (c *CachedUserLookup) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(cacheCleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			c.evictExpired(time.Now())
			c.mu.Unlock()
		}
	}
}

// evictExpired drops stale entries. Caller must hold c.mu.
func (c *CachedUserLookup) evictExpired(now time.Time) {
	for k, v := range c.cache {
		if now.Sub(v.fetchedAt) >= v.ttl() {
			delete(c.cache, k)
		}
	}
}

// AuthenticateAPIKey returns a cached result or delegates to the inner lookup.
// Failures are cached briefly so repeated bad keys do not hit the database.
func (c *CachedUserLookup) AuthenticateAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	hk := hashKey(apiKey)

	c.mu.RLock()
	entry, ok := c.cache[hk]
	c.mu.RUnlock()

	if ok && time.Since(entry.fetchedAt) < entry.ttl() {
		return entry.user, entry.err
	}

	v, err, _ := c.group.Do(hk, func() (any, error) {
		user, err := c.inner.AuthenticateAPIKey(ctx, apiKey)
		c.store(hk, cachedUser{user: user, err: err, fetchedAt: time.Now()})
		return user, err
	})
	if err != nil {
		return nil, err
	}

	return v.(*models.User), nil
}

func (c *CachedUserLookup) store(hk string, entry cachedUser) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.cache) >= maxCacheEntries {
		c.evictExpired(time.Now())
		for k := range c.cache {
			if len(c.cache) < maxCacheEntries {
				break
			}
			delete(c.cache, k)
		}
	}

	c.cache[hk] = entry
}

// Revoke drops the entry for an API key hash, e.g. after the key was rotated
// or its account deleted.
func (c *CachedUserLookup) Revoke(keyHash string) {
	c.mu.Lock()
	delete(c.cache, keyHash)
	c.mu.Unlock()
}
