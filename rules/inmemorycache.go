package rules

import (
	"sync"
	"time"
)

type cacheEntry struct {
	key      Key
	cachedAt time.Time
}

// InMemoryKeyCache is a simple in-memory implementation of KeyCache
// Thread-safe for concurrent access
type InMemoryKeyCache struct {
	entries map[string]cacheEntry
	config  CacheConfig
	now     func() time.Time
	mu      sync.RWMutex
}

// NewInMemoryKeyCache creates a new in-memory key cache
func NewInMemoryKeyCache(config CacheConfig) *InMemoryKeyCache {
	return &InMemoryKeyCache{
		entries: make(map[string]cacheEntry),
		config:  config,
		now:     time.Now,
	}
}

func (c *InMemoryKeyCache) expired(e cacheEntry) bool {
	return c.config.TTL > 0 && c.now().Sub(e.cachedAt) > c.config.TTL
}

// Get retrieves a cached key
func (c *InMemoryKeyCache) Get(id string) (Key, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || c.expired(e) {
		return Key{}, false
	}
	return e.key, true
}

// Set stores a key in the cache. Keys are never mutated after parsing, so
// the rule slices are shared rather than copied.
func (c *InMemoryKeyCache) Set(id string, key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[id] = cacheEntry{key: key, cachedAt: c.now()}
}

// Invalidate removes one entry
func (c *InMemoryKeyCache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, id)
}

// Clear removes every entry
func (c *InMemoryKeyCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]cacheEntry)
}

// Len counts entries that have not expired
func (c *InMemoryKeyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	for _, e := range c.entries {
		if !c.expired(e) {
			n++
		}
	}
	return n
}
