// Package embed turns text into vectors for the evidence index.
package embed

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/cache"
	"github.com/ppiankov/factlens/internal/model"
)

// Embedder generates vector embeddings
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

// FromModel builds the configured embedder, wrapped in c when c is non-nil
func FromModel(cfg model.EmbedConfig, httpCfg model.HTTPConfig, c cache.Cache, logger *log.Logger) (Embedder, error) {
	var e Embedder
	switch strings.ToLower(cfg.Provider) {
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: embed.api_key is required for the openai embedder", model.ErrConfiguration)
		}
		e = NewOpenAIEmbedder(cfg.APIKey, cfg.BaseURL, cfg.Model, httpCfg)
	case "ollama":
		endpoint := cfg.BaseURL
		if endpoint == "" {
			endpoint = "http://localhost:11434"
		}
		e = NewOllamaEmbedder(endpoint, cfg.Model, httpCfg)
	default:
		return nil, fmt.Errorf("%w: unknown embed provider %q (supported: openai, ollama)", model.ErrConfiguration, cfg.Provider)
	}
	if c != nil {
		e = NewCached(e, c, logger)
	}
	return e, nil
}
