// Package index provides the read-mostly evidence store queried during
// verification and written during corpus builds.
package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/model"
)

// Document is one reference statement
type Document struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Embedding []float32 `json:"embedding"`
}

// Match is a query hit. Distance is cosine distance in [0,2].
type Match struct {
	Document string
	Metadata map[string]string
	Distance float64
}

// Index answers nearest-neighbour queries. Implementations are safe for
// concurrent queries.
type Index interface {
	Query(ctx context.Context, text string, k int) ([]Match, error)
	Close() error
}

// Writer adds documents with precomputed embeddings
type Writer interface {
	Add(ctx context.Context, docs []Document) error
}

// Store is an index that can also be written
type Store interface {
	Index
	Writer
}

func metadata(id, source string) map[string]string {
	m := map[string]string{}
	if id != "" {
		m["id"] = id
	}
	if source != "" {
		m["source"] = source
	}
	return m
}

// Open opens the configured backend. Queries are embedded with e.
func Open(ctx context.Context, cfg model.IndexConfig, e embed.Embedder, logger *log.Logger) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "memory", "":
		return OpenMemory(cfg.SnapshotPath, e, logger)
	case "pgvector":
		return OpenPgvector(ctx, cfg.DSN, cfg.Table, e, logger)
	case "weaviate":
		return OpenWeaviate(cfg.WeaviateURL, cfg.WeaviateClass, cfg.WeaviateAPIKey, e, logger)
	default:
		return nil, fmt.Errorf("%w: unknown index backend %q", model.ErrConfiguration, cfg.Backend)
	}
}

func checkEmbedded(docs []Document) error {
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			return fmt.Errorf("document %q has no embedding", d.ID)
		}
	}
	return nil
}
