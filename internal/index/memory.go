package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/logging"
	"gonum.org/v1/gonum/floats"
)

// MemoryIndex holds every document in process and scans them per query.
// It persists to a JSON snapshot.
type MemoryIndex struct {
	mu       sync.RWMutex
	docs     []memoryDoc
	byID     map[string]int
	path     string
	dirty    bool
	embedder embed.Embedder
	logger   *log.Logger
}

type memoryDoc struct {
	Document
	vec  []float64
	norm float64
}

type snapshot struct {
	Model     string     `json:"model,omitempty"`
	Documents []Document `json:"documents"`
}

// NewMemoryIndex creates an empty index that is not persisted
func NewMemoryIndex(e embed.Embedder) *MemoryIndex {
	return &MemoryIndex{
		byID:     map[string]int{},
		embedder: e,
		logger:   logging.Discard(),
	}
}

// OpenMemory loads a snapshot when path exists, otherwise starts empty
func OpenMemory(path string, e embed.Embedder, logger *log.Logger) (*MemoryIndex, error) {
	idx := NewMemoryIndex(e)
	idx.path = path
	idx.logger = logging.OrDiscard(logger)

	if path == "" {
		return idx, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		idx.logger.Debug("no index snapshot, starting empty", "path", path)
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if e != nil && snap.Model != "" && snap.Model != e.Model() {
		idx.logger.Warn("snapshot was built with a different embedding model", "snapshot", snap.Model, "embedder", e.Model())
	}
	idx.insert(snap.Documents)
	idx.dirty = false
	idx.logger.Debug("loaded index snapshot", "path", path, "documents", len(idx.docs))
	return idx, nil
}

// Len returns the number of documents
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Add inserts documents, replacing any with the same ID
func (m *MemoryIndex) Add(ctx context.Context, docs []Document) error {
	if err := checkEmbedded(docs); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(docs)
	return nil
}

// insert must be called with the write lock held
func (m *MemoryIndex) insert(docs []Document) {
	for _, d := range docs {
		vec := toFloat64(d.Embedding)
		md := memoryDoc{Document: d, vec: vec, norm: floats.Norm(vec, 2)}
		if i, ok := m.byID[d.ID]; ok && d.ID != "" {
			m.docs[i] = md
		} else {
			if d.ID != "" {
				m.byID[d.ID] = len(m.docs)
			}
			m.docs = append(m.docs, md)
		}
		m.dirty = true
	}
}

// Query embeds text and returns the k nearest documents by cosine distance.
// Ties keep insertion order.
func (m *MemoryIndex) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if m.embedder == nil {
		return nil, fmt.Errorf("memory index has no embedder")
	}
	qv32, err := m.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return m.QueryVector(qv32, k)
}

// QueryVector ranks documents against a precomputed query vector
func (m *MemoryIndex) QueryVector(query []float32, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}
	qv := toFloat64(query)
	qn := floats.Norm(qv, 2)

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, len(m.docs))
	for _, d := range m.docs {
		if len(d.vec) != len(qv) {
			return nil, fmt.Errorf("dimension mismatch: query %d, document %q %d", len(qv), d.ID, len(d.vec))
		}
		matches = append(matches, Match{
			Document: d.Text,
			Metadata: metadata(d.ID, d.Source),
			Distance: cosineDistance(qv, qn, d.vec, d.norm),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func cosineDistance(a []float64, an float64, b []float64, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 1
	}
	d := 1 - floats.Dot(a, b)/(an*bn)
	// Rounding can push identical vectors just below zero
	return math.Max(0, math.Min(2, d))
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// Save writes the snapshot atomically
func (m *MemoryIndex) Save() error {
	if m.path == "" {
		return nil
	}

	m.mu.RLock()
	snap := snapshot{Documents: make([]Document, len(m.docs))}
	for i, d := range m.docs {
		snap.Documents[i] = d.Document
	}
	m.mu.RUnlock()
	if m.embedder != nil {
		snap.Model = m.embedder.Model()
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("rename snapshot: %w", err)
	}

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()
	m.logger.Info("saved index snapshot", "path", m.path, "documents", len(snap.Documents))
	return nil
}

// Close saves pending additions
func (m *MemoryIndex) Close() error {
	m.mu.RLock()
	dirty := m.dirty
	m.mu.RUnlock()
	if !dirty {
		return nil
	}
	return m.Save()
}
