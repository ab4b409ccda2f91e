package embed

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/cache"
	"github.com/ppiankov/factlens/internal/logging"
)

// Cached memoises an Embedder by model and text
type Cached struct {
	inner  Embedder
	cache  cache.Cache
	logger *log.Logger
}

// NewCached wraps inner with c
func NewCached(inner Embedder, c cache.Cache, logger *log.Logger) *Cached {
	return &Cached{inner: inner, cache: c, logger: logging.OrDiscard(logger)}
}

// Model returns the wrapped model name
func (c *Cached) Model() string {
	return c.inner.Model()
}

func (c *Cached) key(text string) string {
	return cache.Key("embed", c.inner.Model(), text)
}

func (c *Cached) lookup(text string) ([]float32, bool) {
	return c.cache.Get(c.key(text))
}

func (c *Cached) store(text string, vec []float32) {
	if err := c.cache.Set(c.key(text), vec, 0); err != nil {
		c.logger.Warn("embedding cache write failed", "err", err)
	}
}

// Embed returns a cached vector or computes and stores one
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.lookup(text); ok {
		return vec, nil
	}
	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.store(text, vec)
	return vec, nil
}

// EmbedBatch only sends cache misses to the wrapped embedder
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if vec, ok := c.lookup(text); ok {
			out[i] = vec
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) > 0 {
		c.logger.Debug("embedding cache", "hits", len(texts)-len(missTexts), "misses", len(missTexts))
		vecs, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, i := range missIdx {
			out[i] = vecs[j]
			c.store(texts[i], vecs[j])
		}
	}
	return out, nil
}
