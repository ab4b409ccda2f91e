package cache

import (
	"errors"
	"sync/atomic"
	"time"
)

// LayeredCache answers from memory, falls back to disk and promotes disk
// hits into memory
type LayeredCache struct {
	memory Cache
	disk   Cache

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64
}

// Stats counts lookups by the layer that answered them
type Stats struct {
	MemoryHits int64
	DiskHits   int64
	Misses     int64
}

// NewLayeredCache creates a memory cache in front of a disk cache at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]float32, bool) {
	if vec, ok := c.memory.Get(key); ok {
		c.memoryHits.Add(1)
		return vec, true
	}
	if vec, ok := c.disk.Get(key); ok {
		c.diskHits.Add(1)
		_ = c.memory.Set(key, vec, 0)
		return vec, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set writes both layers. A disk failure still leaves the memory entry.
func (c *LayeredCache) Set(key string, vec []float32, ttl time.Duration) error {
	if err := c.memory.Set(key, vec, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, vec, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	return errors.Join(c.memory.Delete(key), c.disk.Delete(key))
}

func (c *LayeredCache) Clear() error {
	return errors.Join(c.memory.Clear(), c.disk.Clear())
}

// Stats returns lookup counts since creation
func (c *LayeredCache) Stats() Stats {
	return Stats{
		MemoryHits: c.memoryHits.Load(),
		DiskHits:   c.diskHits.Load(),
		Misses:     c.misses.Load(),
	}
}
