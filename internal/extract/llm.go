package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/parse"
)

const entityPrompt = `Extract the named entities from the text below.
Label each one as PERSON, ORG, GPE, LOC, DATE, EVENT or MISC.

Respond ONLY with a JSON object in this exact format:
{"entities": [{"text": "...", "label": "..."}]}

Text:
%s`

const claimPrompt = `List the check-worthy factual claims made in the text below.
Each claim must be one short, self-contained declarative sentence that can be
checked against reference sources. Skip opinions, questions and instructions.
Return at most %d claims. Return an empty list if there are none.

Respond ONLY with a JSON object in this exact format:
{"claims": ["...", "..."]}

Text:
%s`

// LLMEntityRecognizer asks the LLM provider for named entities
type LLMEntityRecognizer struct {
	provider llm.Provider
	logger   *log.Logger
}

// NewLLMEntityRecognizer creates a recognizer backed by provider
func NewLLMEntityRecognizer(provider llm.Provider, logger *log.Logger) *LLMEntityRecognizer {
	return &LLMEntityRecognizer{provider: provider, logger: logging.OrDiscard(logger)}
}

// Recognize implements EntityRecognizer
func (r *LLMEntityRecognizer) Recognize(ctx context.Context, text string) ([]model.Entity, error) {
	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:   fmt.Sprintf(entityPrompt, text),
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Entities []struct {
			Text  string `json:"text"`
			Label string `json:"label"`
		} `json:"entities"`
	}
	if err := parse.DecodeObject(resp.Text, &out); err != nil {
		r.logger.Debug("entity response not decodable", "raw", resp.Text)
		return nil, fmt.Errorf("decode entities: %w", err)
	}

	entities := make([]model.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, model.Entity{Text: e.Text, Label: model.NormalizeLabel(e.Label)})
	}
	return entities, nil
}

// LLMClaimGenerator asks the LLM provider for check-worthy claims
type LLMClaimGenerator struct {
	provider  llm.Provider
	maxClaims int
	logger    *log.Logger
}

// NewLLMClaimGenerator creates a generator backed by provider
func NewLLMClaimGenerator(provider llm.Provider, maxClaims int, logger *log.Logger) *LLMClaimGenerator {
	if maxClaims <= 0 {
		maxClaims = 20
	}
	return &LLMClaimGenerator{provider: provider, maxClaims: maxClaims, logger: logging.OrDiscard(logger)}
}

// Generate implements ClaimGenerator
func (g *LLMClaimGenerator) Generate(ctx context.Context, text string) ([]model.Claim, error) {
	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:   fmt.Sprintf(claimPrompt, g.maxClaims, text),
		JSONMode: true,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Claims []string `json:"claims"`
	}
	if err := parse.DecodeObject(resp.Text, &out); err != nil {
		g.logger.Debug("claim response not decodable", "raw", resp.Text)
		return nil, fmt.Errorf("decode claims: %w", err)
	}

	claims := make([]model.Claim, 0, len(out.Claims))
	for _, c := range out.Claims {
		if c = strings.TrimSpace(c); c != "" {
			claims = append(claims, model.Claim{Text: c, Heuristic: "llm"})
		}
	}
	return claims, nil
}
