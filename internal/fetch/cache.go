package fetch

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/persistorai/vitiapi/internal/metrics"
)

// CachingFetcher keeps recently fetched pages in memory so that the
// product pass and the dependent pass of a domain hit the site once per
// page. Errors are never cached.
type CachingFetcher struct {
	next  Fetcher
	pages *lru.Cache[string, *Page]
}

// NewCachingFetcher wraps next with an LRU of up to size pages.
func NewCachingFetcher(next Fetcher, size int) (*CachingFetcher, error) {
	pages, err := lru.New[string, *Page](size)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}

	return &CachingFetcher{next: next, pages: pages}, nil
}

// Fetch returns a cached page or delegates to the wrapped fetcher.
func (c *CachingFetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if p, ok := c.pages.Get(pageURL); ok {
		metrics.PageFetches.WithLabelValues("cached").Inc()

		return p, nil
	}

	p, err := c.next.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	c.pages.Add(pageURL, p)

	return p, nil
}

// Purge drops every cached page.
func (c *CachingFetcher) Purge() {
	c.pages.Purge()
}
