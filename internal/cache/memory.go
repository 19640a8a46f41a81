package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory is an in-process TTL cache.
type Memory struct {
	cache *gocache.Cache
}

// NewMemory creates a memory cache with the given default TTL and
// cleanup interval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{
		cache: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get retrieves a value.
func (c *Memory) Get(key string) ([]byte, bool) {
	if val, found := c.cache.Get(key); found {
		return val.([]byte), true
	}
	return nil, false
}

// Set stores a value with the given TTL.
func (c *Memory) Set(key string, value []byte, ttl time.Duration) {
	c.cache.Set(key, value, ttl)
}

// Delete removes a value.
func (c *Memory) Delete(key string) {
	c.cache.Delete(key)
}

// Clear removes all values.
func (c *Memory) Clear() {
	c.cache.Flush()
}
