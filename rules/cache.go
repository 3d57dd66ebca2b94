package rules

import "time"

// KeyCache holds parsed keys by ID so classification does not re-parse
// stored source on every request
type KeyCache interface {
	// Get returns the parsed key, false on miss or expiry
	Get(id string) (Key, bool)

	// Set stores a parsed key
	Set(id string, key Key)

	// Invalidate drops one key, forcing a re-parse on next Get
	Invalidate(id string)

	// Clear drops every entry
	Clear()

	// Len returns the number of live entries
	Len() int
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig: no TTL, entries are only invalidated on mutations
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0,
	}
}
