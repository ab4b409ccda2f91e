package index

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func newWeaviateServer(t *testing.T, graphql string, batched *[]map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/meta":
			_, _ = w.Write([]byte(`{"version": "1.25.0"}`))
		case "/v1/graphql":
			body, _ := io.ReadAll(r.Body)
			if !strings.Contains(string(body), "nearVector") {
				t.Errorf("expected nearVector query, got %s", body)
			}
			_, _ = w.Write([]byte(graphql))
		case "/v1/batch/objects":
			var req struct {
				Objects []map[string]interface{} `json:"objects"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if batched != nil {
				*batched = append(*batched, req.Objects...)
			}
			out := make([]map[string]interface{}, len(req.Objects))
			for i, o := range req.Objects {
				out[i] = map[string]interface{}{"class": o["class"], "id": o["id"], "result": map[string]interface{}{}}
			}
			_ = json.NewEncoder(w).Encode(out)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestWeaviateIndex_Query(t *testing.T) {
	server := newWeaviateServer(t, `{"data": {"Get": {"Statement": [
		{"text": "The Eiffel Tower was completed in 1889", "source": "wiki", "_additional": {"id": "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "distance": 0.1}},
		{"text": "Paris is the capital of France", "source": "", "_additional": {"id": "6ba7b811-9dad-11d1-80b4-00c04fd430c8", "distance": 0.35}}
	]}}}`, nil)
	defer server.Close()

	idx, err := OpenWeaviate(server.URL, "", "", &staticEmbedder{}, nil)
	if err != nil {
		t.Fatalf("OpenWeaviate: %v", err)
	}

	matches, err := idx.Query(context.Background(), "When was the Eiffel Tower built?", 3)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Document != "The Eiffel Tower was completed in 1889" || matches[0].Distance != 0.1 {
		t.Errorf("first match = %+v", matches[0])
	}
	if matches[0].Metadata["source"] != "wiki" {
		t.Errorf("metadata = %v", matches[0].Metadata)
	}
}

func TestWeaviateIndex_QueryGraphQLError(t *testing.T) {
	server := newWeaviateServer(t, `{"errors": [{"message": "class Statement not found"}]}`, nil)
	defer server.Close()

	idx, _ := OpenWeaviate(server.URL, "Statement", "", &staticEmbedder{}, nil)
	if _, err := idx.Query(context.Background(), "x", 3); err == nil {
		t.Fatal("expected error")
	}
}

func TestWeaviateIndex_Add(t *testing.T) {
	var batched []map[string]interface{}
	server := newWeaviateServer(t, `{}`, &batched)
	defer server.Close()

	idx, _ := OpenWeaviate(server.URL, "Statement", "", &staticEmbedder{}, nil)
	docs := []Document{
		{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", Text: "a", Source: "s", Embedding: []float32{1, 0, 0}},
		{ID: "6ba7b811-9dad-11d1-80b4-00c04fd430c8", Text: "b", Embedding: []float32{0, 1, 0}},
	}
	if err := idx.Add(context.Background(), docs); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(batched) != 2 {
		t.Fatalf("expected 2 batched objects, got %d", len(batched))
	}
	if batched[0]["id"] != docs[0].ID {
		t.Errorf("id = %v", batched[0]["id"])
	}
}

func TestParseWeaviateMatches_MissingClass(t *testing.T) {
	resp := &models.GraphQLResponse{Data: map[string]models.JSONObject{
		"Get": map[string]interface{}{},
	}}
	matches, err := parseWeaviateMatches(resp, "Statement")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

func TestWeaviateIndex_Schema(t *testing.T) {
	idx, _ := OpenWeaviate("https://weaviate.example.com/", "Fact", "key", nil, nil)
	s := idx.Schema()
	if s.Class != "Fact" || s.Vectorizer != "none" {
		t.Errorf("schema = %+v", s)
	}
	cfg, _ := s.VectorIndexConfig.(map[string]interface{})
	if cfg["distance"] != "cosine" {
		t.Errorf("distance metric = %v", cfg["distance"])
	}
}
