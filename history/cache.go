package history

import (
	"sync"
	"time"
)

// Cache is a key -> series store with a freshness window.
// It is explicit and injectable so a no-op or a persistent store
// can be substituted in tests
type Cache interface {
	// Get returns the cached series for the key, if still fresh
	Get(key string) (Series, bool)

	// Set stores the series for the key
	Set(key string, series Series)
}

type cacheEntry struct {
	storedAt time.Time
	series   Series
}

// MemoryCache is a process-lifetime, best-effort, time-expiring cache.
// It is not durable and not consistent across restarts
type MemoryCache struct {
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time

	mu sync.RWMutex
}

// NewMemoryCache creates an in-memory cache with the given freshness window
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(key string) (Series, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) >= c.ttl {
		return nil, false
	}

	out := make(Series, len(entry.series))
	copy(out, entry.series)

	return out, true
}

func (c *MemoryCache) Set(key string, series Series) {
	stored := make(Series, len(series))
	copy(stored, series)

	c.mu.Lock()
	c.entries[key] = cacheEntry{
		storedAt: c.now(),
		series:   stored,
	}
	c.mu.Unlock()
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(_ string) (Series, bool) { return nil, false }

func (NopCache) Set(_ string, _ Series) {}
