// Package adjudicate decides a verdict for one claim or entity from its
// retrieved evidence, calling the LLM only when retrieval is confident.
package adjudicate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/llm"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/metrics"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/parse"
	"github.com/ppiankov/factlens/internal/retrieve"
)

// State is one step of an adjudication
type State string

const (
	StateThresholdCheck State = "THRESHOLD_CHECK"
	StateShortCircuit   State = "SHORT_CIRCUIT"
	StateLLMCall        State = "LLM_CALL"
	StateParse          State = "PARSE"
	StateResult         State = "RESULT"
	StateParseFailed    State = "PARSE_FAILED"
)

// Reasoning attached to items decided below the threshold
const (
	ClaimShortCircuitReasoning  = "Claim is too vague or lacks sufficient evidence"
	EntityShortCircuitReasoning = "Entity lacks sufficient evidence"
)

// Retriever supplies evidence for a query
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]model.EvidenceItem, error)
}

// Tracer observes state transitions
type Tracer func(kind model.SubjectKind, subject string, state State)

// Options tune an Adjudicator. Zero values fall back to defaults.
type Options struct {
	TopK        int
	Model       string
	Temperature float32
	MaxTokens   int
	Logger      *log.Logger
	Metrics     *metrics.Recorder
	Tracer      Tracer
}

// Adjudicator turns evidence into verdicts
type Adjudicator struct {
	retriever    Retriever
	provider     llm.Provider
	opts         Options
	claimParser  *parse.Parser
	entityParser *parse.Parser
	logger       *log.Logger
}

// New creates an adjudicator
func New(retriever Retriever, provider llm.Provider, opts Options) *Adjudicator {
	if opts.TopK <= 0 {
		opts.TopK = retrieve.DefaultTopK
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.1
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 400
	}
	return &Adjudicator{
		retriever:    retriever,
		provider:     provider,
		opts:         opts,
		claimParser:  parse.New(parse.ClaimSchema),
		entityParser: parse.New(parse.EntitySchema),
		logger:       logging.OrDiscard(opts.Logger),
	}
}

// subject carries the per-kind pieces of one adjudication
type subject struct {
	kind         model.SubjectKind
	text         string
	prompt       func(items []model.EvidenceItem) string
	jsonMode     bool
	parser       *parse.Parser
	lowVerdict   model.Verdict
	lowReasoning string
	buildOutcome func(values parse.Values, items []model.EvidenceItem, confidence float64) (model.Outcome, float64, error)
}

// AdjudicateClaim verifies one claim. The error is non-nil only for fatal
// failures; per-item failures are carried by the result.
func (a *Adjudicator) AdjudicateClaim(ctx context.Context, claim string, threshold float64) (model.VerificationResult, error) {
	return a.run(ctx, subject{
		kind: model.SubjectClaim,
		text: claim,
		prompt: func(items []model.EvidenceItem) string {
			return ClaimPrompt(claim, items)
		},
		parser:       a.claimParser,
		lowVerdict:   model.VerdictUnverifiable,
		lowReasoning: ClaimShortCircuitReasoning,
		buildOutcome: claimOutcome,
	}, threshold)
}

// AdjudicateEntity verifies one entity against evidence retrieved for its text
func (a *Adjudicator) AdjudicateEntity(ctx context.Context, entity model.Entity, threshold float64) (model.VerificationResult, error) {
	return a.run(ctx, subject{
		kind: model.SubjectEntity,
		text: entity.Text,
		prompt: func(items []model.EvidenceItem) string {
			return EntityPrompt(entity, items)
		},
		jsonMode:     true,
		parser:       a.entityParser,
		lowVerdict:   model.VerdictUnverified,
		lowReasoning: EntityShortCircuitReasoning,
		buildOutcome: entityOutcome,
	}, threshold)
}

func (a *Adjudicator) run(ctx context.Context, s subject, threshold float64) (model.VerificationResult, error) {
	items, err := a.retriever.Retrieve(ctx, s.text, a.opts.TopK)
	if err != nil && !errors.Is(err, model.ErrNoEvidence) {
		res := model.Failed(s.kind, s.text, 0, err, "")
		if model.IsFatal(err) {
			return res, err
		}
		return a.finish(res), nil
	}

	confidence := retrieve.Score(items)
	a.trace(s, StateThresholdCheck)
	if len(items) == 0 || confidence < threshold {
		a.trace(s, StateShortCircuit)
		a.logger.Debug("below threshold, skipping LLM", "kind", s.kind, "subject", s.text, "confidence", confidence, "threshold", threshold)
		return a.finish(model.Succeeded(s.kind, s.text, confidence, model.Outcome{
			Verdict:        s.lowVerdict,
			Evidence:       evidenceTexts(items),
			Reasoning:      s.lowReasoning,
			ShortCircuited: true,
		})), nil
	}

	a.trace(s, StateLLMCall)
	start := time.Now()
	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Prompt:      s.prompt(items),
		Model:       a.opts.Model,
		Temperature: a.opts.Temperature,
		MaxTokens:   a.opts.MaxTokens,
		JSONMode:    s.jsonMode,
	})
	a.opts.Metrics.ObserveLLMCall(s.kind, time.Since(start), err)
	if err != nil {
		return a.finish(model.Failed(s.kind, s.text, confidence, err, "")), nil
	}
	a.logger.Debug("adjudication response", "kind", s.kind, "subject", s.text, "raw", resp.Text)

	a.trace(s, StateParse)
	parsed, err := s.parser.Parse(resp.Text)
	if err != nil {
		a.trace(s, StateParseFailed)
		return a.finish(model.Failed(s.kind, s.text, confidence, fmt.Errorf("%w: %w", model.ErrParse, err), resp.Text)), nil
	}
	if !parsed.OK() {
		a.trace(s, StateParseFailed)
		err := fmt.Errorf("%w: %s; missing required keys: %s", model.ErrParse, parsed.Failure.Reason, strings.Join(parsed.Failure.Missing, ", "))
		return a.finish(model.Failed(s.kind, s.text, confidence, err, parsed.Failure.Raw)), nil
	}

	outcome, conf, err := s.buildOutcome(parsed.Values, items, confidence)
	if err != nil {
		a.trace(s, StateParseFailed)
		return a.finish(model.Failed(s.kind, s.text, confidence, err, resp.Text)), nil
	}

	a.trace(s, StateResult)
	return a.finish(model.Succeeded(s.kind, s.text, conf, outcome)), nil
}

func (a *Adjudicator) finish(res model.VerificationResult) model.VerificationResult {
	a.opts.Metrics.ObserveResult(res)
	return res
}

func (a *Adjudicator) trace(s subject, state State) {
	if a.opts.Tracer != nil {
		a.opts.Tracer(s.kind, s.text, state)
	}
}

func claimOutcome(values parse.Values, items []model.EvidenceItem, confidence float64) (model.Outcome, float64, error) {
	label, _ := values.String("verdict")
	verdict, ok := model.ParseClaimVerdict(label)
	if !ok {
		return model.Outcome{}, 0, fmt.Errorf("%w: unknown claim verdict %q", model.ErrParse, label)
	}
	reasoning, _ := values.String("reasoning")
	return model.Outcome{
		Verdict:   verdict,
		Evidence:  evidenceTexts(items),
		Reasoning: reasoning,
	}, confidence, nil
}

func entityOutcome(values parse.Values, items []model.EvidenceItem, confidence float64) (model.Outcome, float64, error) {
	label, _ := values.String("verdict")
	verdict, ok := model.ParseEntityVerdict(label)
	if !ok {
		return model.Outcome{}, 0, fmt.Errorf("%w: unknown entity verdict %q", model.ErrParse, label)
	}
	reasoning, _ := values.String("reasoning")
	if reported, ok := values.Number("confidence"); ok && reported >= 0 && reported <= 1 {
		confidence = reported
	}
	return model.Outcome{
		Verdict:   verdict,
		Evidence:  evidenceTexts(items),
		Reasoning: reasoning,
	}, confidence, nil
}

func evidenceTexts(items []model.EvidenceItem) []string {
	if len(items) == 0 {
		return []string{}
	}
	return model.EvidenceTexts(items)
}
