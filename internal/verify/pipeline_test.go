package verify_test

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/factlens/internal/adjudicate"
	"github.com/ppiankov/factlens/internal/extract"
	"github.com/ppiankov/factlens/internal/index"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/retrieve"
	"github.com/ppiankov/factlens/internal/verify"
)

// keywordEmbedder places texts on fixed axes by keyword
type keywordEmbedder struct{}

func (keywordEmbedder) Model() string { return "keyword" }

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "eiffel"):
		return []float32{1, 0.05, 0}, nil
	case strings.Contains(lower, "fuji"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{-1, -0.2, 0}, nil
	}
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i], _ = e.Embed(ctx, t)
	}
	return out, nil
}

// factProvider answers False when the claim year disagrees with the evidence
type factProvider struct {
	calls atomic.Int32
}

func (p *factProvider) Name() string                     { return "fact" }
func (p *factProvider) IsAvailable(context.Context) bool { return true }

func (p *factProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls.Add(1)
	claim := req.Prompt[strings.Index(req.Prompt, "Claim:"):strings.Index(req.Prompt, "Evidence (with")]
	if strings.Contains(claim, "1899") && strings.Contains(req.Prompt, "completed in 1889") {
		return &llm.CompletionResponse{Text: `{"verdict": "False", "evidence": ["The Eiffel Tower was completed in 1889."], "reasoning": "Date mismatch: 1889 vs 1899."}`}, nil
	}
	return &llm.CompletionResponse{Text: `{"verdict": "True", "evidence": ["The Eiffel Tower was completed in 1889."], "reasoning": "Matches."}`}, nil
}

type staticClaims []string

func (s staticClaims) Generate(context.Context, string) ([]model.Claim, error) {
	out := make([]model.Claim, len(s))
	for i, c := range s {
		out[i] = model.Claim{Text: c}
	}
	return out, nil
}

type noEntities struct{}

func (noEntities) Recognize(context.Context, string) ([]model.Entity, error) { return nil, nil }

func TestPipeline_EndToEnd(t *testing.T) {
	ctx := context.Background()
	idx := index.NewMemoryIndex(keywordEmbedder{})
	docs := []index.Document{
		{ID: "1", Text: "The Eiffel Tower was completed in 1889.", Source: "wiki", Embedding: []float32{1, 0, 0}},
		{ID: "2", Text: "Mount Fuji is the highest mountain in Japan.", Source: "", Embedding: []float32{0, 1, 0}},
	}
	if err := idx.Add(ctx, docs); err != nil {
		t.Fatal(err)
	}

	provider := &factProvider{}
	adj := adjudicate.New(retrieve.New(idx, nil), provider, adjudicate.Options{TopK: 1})
	ex := extract.New(noEntities{}, staticClaims{
		"The Eiffel Tower was completed in 1899.",
		"The Eiffel Tower was completed in 1889.",
		"Bananas are a kind of berry.",
	}, 0, nil)

	report, err := verify.New(ex, adj, verify.Options{Workers: 2}).Verify(ctx, "input text", 0.5)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	want := []model.Verdict{model.VerdictFalse, model.VerdictTrue, model.VerdictUnverifiable}
	for i, res := range report.ClaimResults {
		if res.Verdict() != want[i] {
			t.Errorf("ClaimResults[%d] = %s, want %s (%+v)", i, res.Verdict(), want[i], res)
		}
	}
	if got := provider.calls.Load(); got != 2 {
		t.Errorf("Expected 2 LLM calls (third claim short-circuits), got %d", got)
	}
	if ev := report.ClaimResults[0].Evidence(); len(ev) != 1 || ev[0] != "The Eiffel Tower was completed in 1889." {
		t.Errorf("Evidence = %q", ev)
	}

	path := filepath.Join(t.TempDir(), "out", "report.json")
	if err := verify.RenderJSON(report, path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	loaded, err := verify.ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if len(loaded.ClaimResults) != 3 || loaded.ClaimResults[0].Verdict() != model.VerdictFalse {
		t.Errorf("Loaded report mismatch: %+v", loaded.ClaimResults)
	}

	var buf bytes.Buffer
	verify.RenderSummary(&buf, report)
	out := buf.String()
	for _, s := range []string{"[1] The Eiffel Tower was completed in 1899.", "verdict:    False", "Summary: True=1 False=1 Unverifiable=1"} {
		if !strings.Contains(out, s) {
			t.Errorf("Summary missing %q:\n%s", s, out)
		}
	}
}

func TestRenderSummary_NoClaims(t *testing.T) {
	var buf bytes.Buffer
	verify.RenderSummary(&buf, &model.Report{})
	if !strings.Contains(buf.String(), "No check-worthy claims found.") {
		t.Errorf("got %q", buf.String())
	}
}
