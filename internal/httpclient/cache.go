package httpclient

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a cached GET stays fresh.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	data     []byte
	storedAt time.Time
}

// Cache holds GET response bodies keyed by formatted URL.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache returns an empty cache. A non-positive ttl uses DefaultCacheTTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

// Get returns a copy of the fresh entry for key. Stale entries are dropped.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.storedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return append([]byte(nil), entry.data...), true
}

// Set stores a copy of data under key.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{data: append([]byte(nil), data...), storedAt: c.now()}
}

// Invalidate drops every entry whose URL, ignoring the query, equals one of
// urls.
func (c *Cache) Invalidate(urls ...string) int {
	if len(urls) == 0 {
		return 0
	}
	targets := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u != "" {
			targets[stripQuery(u)] = struct{}{}
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for key := range c.entries {
		if _, ok := targets[stripQuery(key)]; ok {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
