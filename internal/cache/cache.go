// Package cache stores computed embedding vectors keyed by model and text.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

const keyPrefix = "factlens:v1:"

// Cache holds embedding vectors. Returned slices are owned by the caller.
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, vec []float32, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a fixed-length key from a namespace and its parts.
// Parts are length-prefixed so ("ab","c") and ("a","bc") differ.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		var n [8]byte
		l := uint64(len(p))
		for i := range n {
			n[i] = byte(l >> (8 * i))
		}
		h.Write(n[:])
		h.Write([]byte(p))
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Open builds the configured cache: memory in front of disk, or a no-op
// cache when caching is disabled
func Open(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Noop{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// Noop never stores anything
type Noop struct{}

func (Noop) Get(string) ([]float32, bool)                { return nil, false }
func (Noop) Set(string, []float32, time.Duration) error { return nil }
func (Noop) Delete(string) error                         { return nil }
func (Noop) Clear() error                                { return nil }

func clone(vec []float32) []float32 {
	if vec == nil {
		return nil
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out
}
