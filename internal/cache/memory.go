package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache keeps vectors in process until they expire
type MemoryCache struct {
	vectors *gocache.Cache
}

// NewMemoryCache creates a memory cache. defaultTTL <= 0 never expires.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	if defaultTTL <= 0 {
		defaultTTL = gocache.NoExpiration
	}
	return &MemoryCache{vectors: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns a copy of the stored vector
func (c *MemoryCache) Get(key string) ([]float32, bool) {
	v, found := c.vectors.Get(key)
	if !found {
		return nil, false
	}
	vec, ok := v.([]float32)
	if !ok {
		return nil, false
	}
	return clone(vec), true
}

// Set stores a copy of vec; ttl 0 uses the default
func (c *MemoryCache) Set(key string, vec []float32, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.vectors.Set(key, clone(vec), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.vectors.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.vectors.Flush()
	return nil
}

// Len counts entries, including expired ones not yet evicted
func (c *MemoryCache) Len() int {
	return c.vectors.ItemCount()
}
