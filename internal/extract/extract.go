// Package extract turns raw input text into named entities and candidate
// claims.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/model"
	"golang.org/x/net/html"
)

// EntityRecognizer finds named spans in text
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]model.Entity, error)
}

// ClaimGenerator produces check-worthy statements from text
type ClaimGenerator interface {
	Generate(ctx context.Context, text string) ([]model.Claim, error)
}

// Extractor runs a recognizer and a generator over the same text
type Extractor struct {
	entities  EntityRecognizer
	claims    ClaimGenerator
	maxClaims int
	logger    *log.Logger
}

// New creates an extractor. maxClaims <= 0 means unlimited.
func New(entities EntityRecognizer, claims ClaimGenerator, maxClaims int, logger *log.Logger) *Extractor {
	return &Extractor{
		entities:  entities,
		claims:    claims,
		maxClaims: maxClaims,
		logger:    logging.OrDiscard(logger),
	}
}

// FromModel builds the extractor selected by extract.mode
func FromModel(cfg model.ExtractConfig, provider llm.Provider, logger *log.Logger) (*Extractor, error) {
	switch strings.ToLower(cfg.Mode) {
	case "heuristic":
		return New(NewHeuristicEntityRecognizer(), NewSentenceClaimGenerator(), cfg.MaxClaims, logger), nil
	case "llm", "":
		if provider == nil {
			return nil, fmt.Errorf("%w: llm extraction needs a provider", model.ErrConfiguration)
		}
		return New(NewLLMEntityRecognizer(provider, logger), NewLLMClaimGenerator(provider, cfg.MaxClaims, logger), cfg.MaxClaims, logger), nil
	default:
		return nil, fmt.Errorf("%w: unknown extract mode %q", model.ErrConfiguration, cfg.Mode)
	}
}

// Extract returns deduplicated entities and claims. Zero claims is not an
// error; recognizer or generator failures are ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, text string) ([]model.Entity, []model.Claim, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "<") {
		visible, err := VisibleText(text)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: html input: %w", model.ErrExtraction, err)
		}
		text = visible
	}
	if text == "" {
		return nil, nil, nil
	}

	entities, err := e.entities.Recognize(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: entity recognition: %w", model.ErrExtraction, err)
	}

	claims, err := e.claims.Generate(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: claim generation: %w", model.ErrExtraction, err)
	}

	entities = dedupeEntities(entities)
	claims = dedupeClaims(claims)
	if e.maxClaims > 0 && len(claims) > e.maxClaims {
		claims = claims[:e.maxClaims]
	}

	e.logger.Debug("extracted", "entities", len(entities), "claims", len(claims))
	return entities, claims, nil
}

// VisibleText reduces an HTML document to its visible text
func VisibleText(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(extractVisibleText(doc)), nil
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "head":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// dedupeClaims trims claims and removes empties and case-insensitive repeats
func dedupeClaims(claims []model.Claim) []model.Claim {
	seen := make(map[string]bool)
	unique := []model.Claim{}

	for _, claim := range claims {
		claim.Text = strings.TrimSpace(claim.Text)
		if claim.Text == "" {
			continue
		}
		key := strings.ToLower(claim.Text)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}

// dedupeEntities keeps the first occurrence of each (text, label) pair
func dedupeEntities(entities []model.Entity) []model.Entity {
	seen := make(map[string]bool)
	unique := []model.Entity{}

	for _, entity := range entities {
		entity.Text = strings.TrimSpace(entity.Text)
		if entity.Text == "" {
			continue
		}
		if !seen[entity.Key()] {
			seen[entity.Key()] = true
			unique = append(unique, entity)
		}
	}

	return unique
}
