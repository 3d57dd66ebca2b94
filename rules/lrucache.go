package rules

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultLRUSize bounds the number of parsed keys an LRUKeyCache retains
const DefaultLRUSize = 1024

// LRUKeyCache is a size-bounded KeyCache. The least recently used key is
// evicted first; an evicted key is re-parsed from the store on next use.
type LRUKeyCache struct {
	cache *lru.Cache[string, Key]
}

// NewLRUKeyCache creates a cache holding at most size keys
func NewLRUKeyCache(size int) (*LRUKeyCache, error) {
	cache, err := lru.New[string, Key](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}
	return &LRUKeyCache{cache: cache}, nil
}

func (c *LRUKeyCache) Get(id string) (Key, bool) {
	return c.cache.Get(id)
}

func (c *LRUKeyCache) Set(id string, key Key) {
	c.cache.Add(id, key)
}

func (c *LRUKeyCache) Invalidate(id string) {
	c.cache.Remove(id)
}

func (c *LRUKeyCache) Clear() {
	c.cache.Purge()
}

func (c *LRUKeyCache) Len() int {
	return c.cache.Len()
}
