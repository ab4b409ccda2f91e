package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/model"
)

type mockProvider struct {
	response string
	err      error
	requests []llm.CompletionRequest
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{Text: m.response}, nil
}

func (m *mockProvider) IsAvailable(context.Context) bool { return true }

func TestLLMEntityRecognizer(t *testing.T) {
	p := &mockProvider{response: "```json\n" + `{"entities": [{"text": "Ada Lovelace", "label": "per"}, {"text": "London", "label": "city"}, {"text": "steam", "label": "thing"}]}` + "\n```"}

	entities, err := NewLLMEntityRecognizer(p, nil).Recognize(context.Background(), "Ada Lovelace lived in London.")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	want := []model.Entity{
		{Text: "Ada Lovelace", Label: model.LabelPerson},
		{Text: "London", Label: model.LabelGeoPolitical},
		{Text: "steam", Label: model.LabelMisc},
	}
	if len(entities) != len(want) {
		t.Fatalf("Expected %d entities, got %+v", len(want), entities)
	}
	for i := range want {
		if entities[i] != want[i] {
			t.Errorf("entities[%d] = %+v, want %+v", i, entities[i], want[i])
		}
	}
	if !p.requests[0].JSONMode {
		t.Error("Expected JSON mode")
	}
	if !strings.Contains(p.requests[0].Prompt, "Ada Lovelace lived in London.") {
		t.Error("Prompt does not carry the input text")
	}
}

func TestLLMClaimGenerator(t *testing.T) {
	p := &mockProvider{response: `Sure! {"claims": ["The moon orbits Earth.", "  ", "Water boils at 100C."]}`}

	claims, err := NewLLMClaimGenerator(p, 5, nil).Generate(context.Background(), "text")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %+v", claims)
	}
	if claims[0].Heuristic != "llm" {
		t.Errorf("Heuristic = %q", claims[0].Heuristic)
	}
	if !strings.Contains(p.requests[0].Prompt, "at most 5 claims") {
		t.Errorf("Prompt missing claim limit: %s", p.requests[0].Prompt)
	}
}

func TestLLMClaimGenerator_EmptyList(t *testing.T) {
	claims, err := NewLLMClaimGenerator(&mockProvider{response: `{"claims": []}`}, 0, nil).Generate(context.Background(), "hi")
	if err != nil {
		t.Fatal(err)
	}
	if len(claims) != 0 {
		t.Errorf("Expected no claims, got %+v", claims)
	}
}

func TestLLMExtractor_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockProvider
	}{
		{"transport", &mockProvider{err: model.ErrAdjudicationTransport}},
		{"garbage", &mockProvider{response: "I cannot help with that."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := New(NewLLMEntityRecognizer(tt.provider, nil), NewLLMClaimGenerator(tt.provider, 0, nil), 0, nil)
			_, _, err := ex.Extract(context.Background(), "Some input text.")
			if !errors.Is(err, model.ErrExtraction) {
				t.Errorf("Expected ErrExtraction, got %v", err)
			}
		})
	}
}
