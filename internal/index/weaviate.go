package index

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-openapi/strfmt"
	"github.com/ppiankov/factlens/internal/embed"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
)

const weaviateBatchSize = 100

// WeaviateIndex queries a Weaviate class holding bring-your-own vectors
type WeaviateIndex struct {
	client   *weaviate.Client
	class    string
	embedder embed.Embedder
	logger   *log.Logger
}

// OpenWeaviate creates a client for rawURL ("http://host:8080" or "host:8080")
func OpenWeaviate(rawURL, class, apiKey string, e embed.Embedder, logger *log.Logger) (*WeaviateIndex, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("index.weaviate_url is required for the weaviate backend")
	}
	if class == "" {
		class = "Statement"
	}

	cfg := weaviate.Config{Host: rawURL, Scheme: "http"}
	if strings.HasPrefix(rawURL, "https://") {
		cfg.Scheme = "https"
		cfg.Host = strings.TrimPrefix(rawURL, "https://")
	} else if strings.HasPrefix(rawURL, "http://") {
		cfg.Host = strings.TrimPrefix(rawURL, "http://")
	}
	cfg.Host = strings.TrimSuffix(cfg.Host, "/")
	if apiKey != "" {
		cfg.Headers = map[string]string{"Authorization": "Bearer " + apiKey}
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}

	return &WeaviateIndex{
		client:   client,
		class:    class,
		embedder: e,
		logger:   logging.OrDiscard(logger),
	}, nil
}

// Schema returns the class definition: no vectorizer, cosine distance
func (w *WeaviateIndex) Schema() *models.Class {
	return &models.Class{
		Class:       w.class,
		Description: "Trusted reference statements",
		Vectorizer:  "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}, Tokenization: "word"},
			{Name: "source", DataType: []string{"text"}, Tokenization: "field"},
		},
	}
}

// EnsureSchema creates the class if it does not exist
func (w *WeaviateIndex) EnsureSchema(ctx context.Context) error {
	if _, err := w.client.Schema().ClassGetter().WithClassName(w.class).Do(ctx); err == nil {
		return nil
	}
	w.logger.Info("creating weaviate class", "class", w.class)
	if err := w.client.Schema().ClassCreator().WithClass(w.Schema()).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", w.class, err)
	}
	return nil
}

// Query runs a nearVector search and reads _additional.distance
func (w *WeaviateIndex) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if w.embedder == nil {
		return nil, fmt.Errorf("weaviate index has no embedder")
	}
	vec, err := w.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	nearVector := w.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "_additional", Fields: []graphql.Field{
			{Name: "id"},
			{Name: "distance"},
		}},
	}

	result, err := w.client.GraphQL().Get().
		WithClassName(w.class).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(k).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate search failed: %w", err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("weaviate search failed: %s", result.Errors[0].Message)
	}

	return parseWeaviateMatches(result, w.class)
}

func parseWeaviateMatches(result *models.GraphQLResponse, class string) ([]Match, error) {
	get, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("weaviate response has no Get block")
	}
	items, ok := get[class].([]interface{})
	if !ok {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		doc, _ := obj["text"].(string)
		source, _ := obj["source"].(string)
		var id string
		var distance float64
		if add, ok := obj["_additional"].(map[string]interface{}); ok {
			id, _ = add["id"].(string)
			d, ok := add["distance"].(float64)
			if !ok {
				return nil, fmt.Errorf("weaviate result without distance")
			}
			distance = d
		}
		matches = append(matches, Match{
			Document: doc,
			Metadata: metadata(id, source),
			Distance: distance,
		})
	}
	return matches, nil
}

// Add batch imports documents with their vectors
func (w *WeaviateIndex) Add(ctx context.Context, docs []Document) error {
	if err := checkEmbedded(docs); err != nil {
		return err
	}

	for i := 0; i < len(docs); i += weaviateBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := i + weaviateBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		objects := make([]*models.Object, 0, end-i)
		for _, d := range docs[i:end] {
			objects = append(objects, &models.Object{
				Class:  w.class,
				ID:     strfmt.UUID(d.ID),
				Vector: d.Embedding,
				Properties: map[string]interface{}{
					"text":   d.Text,
					"source": d.Source,
				},
			})
		}

		result, err := w.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("batch import failed: %w", err)
		}
		failed := 0
		for _, obj := range result {
			if obj.Result != nil && obj.Result.Errors != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("batch import: %d of %d objects failed", failed, len(objects))
		}
		w.logger.Debug("indexed batch", "class", w.class, "count", len(objects))
	}
	return nil
}

// Close is a no-op; the client holds no open resources
func (w *WeaviateIndex) Close() error {
	return nil
}
