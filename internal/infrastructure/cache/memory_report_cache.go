package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryReportCache implements ReportCache in process memory.
// Entries are not shared between instances.
type MemoryReportCache struct {
	store *gocache.Cache
}

// NewMemoryReportCache creates an in-memory cache whose entries expire after
// defaultTTL unless Set is given its own ttl
func NewMemoryReportCache(defaultTTL time.Duration) *MemoryReportCache {
	cleanup := defaultTTL * 2
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &MemoryReportCache{
		store: gocache.New(defaultTTL, cleanup),
	}
}

// Get returns a copy of the cached value for key
func (c *MemoryReportCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}
	value := v.([]byte)
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set stores a copy of value under key. A zero ttl uses the cache default.
func (c *MemoryReportCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.store.Set(key, stored, ttl)
	return nil
}

// Len returns the number of unexpired entries
func (c *MemoryReportCache) Len() int {
	return c.store.ItemCount()
}

// Close drops every entry
func (c *MemoryReportCache) Close() error {
	c.store.Flush()
	return nil
}
