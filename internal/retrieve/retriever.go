// Package retrieve turns index matches into scored evidence.
package retrieve

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/index"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/model"
)

// DefaultTopK is the number of evidence items fetched per query
const DefaultTopK = 3

// Retriever fetches evidence for a claim or entity
type Retriever struct {
	index  index.Index
	logger *log.Logger
}

// New creates a retriever over idx
func New(idx index.Index, logger *log.Logger) *Retriever {
	return &Retriever{index: idx, logger: logging.OrDiscard(logger)}
}

// Retrieve returns up to k items sorted by ascending distance, ties in
// index order. Zero matches is ErrNoEvidence; an index failure is
// ErrIndexUnavailable; a distance outside [0,2] is ErrConfiguration.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]model.EvidenceItem, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	matches, err := r.index.Query(ctx, query, k)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrAdjudicationTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %w", model.ErrIndexUnavailable, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w for %q", model.ErrNoEvidence, truncate(query, 60))
	}

	items := make([]model.EvidenceItem, 0, len(matches))
	for _, m := range matches {
		if m.Distance < 0 || m.Distance > 2 {
			return nil, fmt.Errorf("%w: index returned distance %v outside [0,2]; is the index using cosine distance?", model.ErrConfiguration, m.Distance)
		}
		source := strings.TrimSpace(m.Metadata["source"])
		if source == "" {
			source = model.DefaultSource
		}
		items = append(items, model.EvidenceItem{
			Text:     m.Document,
			Source:   source,
			Distance: m.Distance,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Distance < items[j].Distance
	})
	if len(items) > k {
		items = items[:k]
	}

	r.logger.Debug("retrieved evidence", "query", truncate(query, 60), "items", len(items), "confidence", Score(items))
	return items, nil
}

// Score is 1 - mean(distance)/2, or 0 without evidence
func Score(items []model.EvidenceItem) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, item := range items {
		sum += item.Distance
	}
	return 1 - (sum/float64(len(items)))/2
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
