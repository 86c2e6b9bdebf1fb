package theme

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/devportal/pkg/observability"
)

const (
	// DefaultCacheSize is the number of tenant themes kept in memory
	DefaultCacheSize = 256

	// DefaultCacheTTL is how long a fetched tenant theme is reused
	DefaultCacheTTL = 5 * time.Minute
)

// CachedResolver is a Fetcher that remembers successfully fetched tenant
// themes. Failures are never cached, so a tenant whose theme appears later is
// picked up on the next request.
type CachedResolver struct {
	next    Fetcher
	cache   *lru.LRU[string, *Theme]
	metrics *observability.Metrics
}

// NewCachedResolver wraps next with an expiring LRU cache
func NewCachedResolver(next Fetcher, size int, ttl time.Duration, metrics *observability.Metrics) *CachedResolver {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	return &CachedResolver{
		next:    next,
		cache:   lru.NewLRU[string, *Theme](size, nil, ttl),
		metrics: metrics,
	}
}

// Fetch returns the cached theme or fetches it
func (c *CachedResolver) Fetch(ctx context.Context, tenant string) (*Theme, error) {
	if theme, ok := c.cache.Get(tenant); ok {
		c.metrics.RecordThemeCache(true)
		return theme, nil
	}
	c.metrics.RecordThemeCache(false)

	theme, err := c.next.Fetch(ctx, tenant)
	if err != nil {
		return nil, err
	}

	c.cache.Add(tenant, theme)
	return theme, nil
}

// Invalidate evicts a tenant's theme
func (c *CachedResolver) Invalidate(tenant string) {
	c.cache.Remove(tenant)
}

// Purge evicts every theme
func (c *CachedResolver) Purge() {
	c.cache.Purge()
}

// Len returns the number of cached themes
func (c *CachedResolver) Len() int {
	return c.cache.Len()
}
