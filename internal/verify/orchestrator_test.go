package verify

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
)

type stubExtractor struct {
	entities []model.Entity
	claims   []model.Claim
	err      error
}

func (s *stubExtractor) Extract(context.Context, string) ([]model.Entity, []model.Claim, error) {
	return s.entities, s.claims, s.err
}

// echoAdjudicator returns True for every claim after an optional delay
type echoAdjudicator struct {
	calls   atomic.Int32
	delay   func() time.Duration
	fatalOn string
	failOn  string
}

func (a *echoAdjudicator) wait(ctx context.Context) error {
	if a.delay == nil {
		return nil
	}
	select {
	case <-time.After(a.delay()):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *echoAdjudicator) AdjudicateClaim(ctx context.Context, claim string, _ float64) (model.VerificationResult, error) {
	a.calls.Add(1)
	if claim == a.fatalOn {
		err := fmt.Errorf("%w: gone", model.ErrIndexUnavailable)
		return model.Failed(model.SubjectClaim, claim, 0, err, ""), err
	}
	if claim == a.failOn {
		return model.Failed(model.SubjectClaim, claim, 0.7, fmt.Errorf("%w: nope", model.ErrParse), "raw"), nil
	}
	if err := a.wait(ctx); err != nil {
		return model.Failed(model.SubjectClaim, claim, 0, fmt.Errorf("%w: %w", model.ErrAdjudicationTimeout, err), ""), nil
	}
	return model.Succeeded(model.SubjectClaim, claim, 0.9, model.Outcome{Verdict: model.VerdictTrue, Reasoning: claim}), nil
}

func (a *echoAdjudicator) AdjudicateEntity(ctx context.Context, entity model.Entity, _ float64) (model.VerificationResult, error) {
	a.calls.Add(1)
	if err := a.wait(ctx); err != nil {
		return model.Failed(model.SubjectEntity, entity.Text, 0, fmt.Errorf("%w: %w", model.ErrAdjudicationTimeout, err), ""), nil
	}
	return model.Succeeded(model.SubjectEntity, entity.Text, 0.8, model.Outcome{Verdict: model.VerdictValid}), nil
}

func claims(texts ...string) []model.Claim {
	out := make([]model.Claim, len(texts))
	for i, t := range texts {
		out[i] = model.Claim{Text: t}
	}
	return out
}

func TestVerify_PreservesOrderUnderRandomLatency(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	delays := make(chan time.Duration, 100)
	for i := 0; i < 100; i++ {
		delays <- time.Duration(rng.Intn(30)) * time.Millisecond
	}
	adj := &echoAdjudicator{delay: func() time.Duration { return <-delays }}
	ex := &stubExtractor{
		claims:   claims("c0", "c1", "c2", "c3", "c4"),
		entities: []model.Entity{{Text: "e0"}, {Text: "e1"}},
	}

	for run := 0; run < 5; run++ {
		report, err := New(ex, adj, Options{Workers: 3}).Verify(context.Background(), "input", 0.5)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if len(report.ClaimResults) != 5 {
			t.Fatalf("Expected 5 claim results, got %d", len(report.ClaimResults))
		}
		for i, res := range report.ClaimResults {
			if want := fmt.Sprintf("c%d", i); res.Subject != want {
				t.Errorf("run %d: ClaimResults[%d] = %s, want %s", run, i, res.Subject, want)
			}
		}
		for i, res := range report.EntityResults {
			if want := fmt.Sprintf("e%d", i); res.Subject != want {
				t.Errorf("run %d: EntityResults[%d] = %s, want %s", run, i, res.Subject, want)
			}
		}
	}
}

func TestVerify_EmptyClaimsMakesNoCalls(t *testing.T) {
	adj := &echoAdjudicator{}
	report, err := New(&stubExtractor{}, adj, Options{}).Verify(context.Background(), "Hello there.", 0.5)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if adj.calls.Load() != 0 {
		t.Errorf("Expected no adjudication calls, got %d", adj.calls.Load())
	}
	if !report.NoClaims() || report.ClaimResults == nil {
		t.Errorf("Expected empty, non-nil claim results, got %#v", report.ClaimResults)
	}
}

func TestVerify_ExtractionFailureIsError(t *testing.T) {
	ex := &stubExtractor{err: errors.New("ner offline")}
	report, err := New(ex, &echoAdjudicator{}, Options{}).Verify(context.Background(), "x", 0.5)
	if !errors.Is(err, model.ErrExtraction) {
		t.Fatalf("Expected ErrExtraction, got %v", err)
	}
	if report != nil {
		t.Error("Extraction failure must not produce a report")
	}
}

func TestVerify_InvalidThreshold(t *testing.T) {
	for _, th := range []float64{-0.1, 1.5} {
		_, err := New(&stubExtractor{}, &echoAdjudicator{}, Options{}).Verify(context.Background(), "x", th)
		if !errors.Is(err, model.ErrConfiguration) {
			t.Errorf("threshold %v: expected ErrConfiguration, got %v", th, err)
		}
	}
}

func TestVerify_ItemFailureDoesNotAbort(t *testing.T) {
	adj := &echoAdjudicator{failOn: "bad"}
	report, err := New(&stubExtractor{claims: claims("good", "bad", "fine")}, adj, Options{}).Verify(context.Background(), "x", 0.5)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.ClaimResults[0].OK() || !report.ClaimResults[2].OK() {
		t.Error("Healthy items should succeed")
	}
	bad := report.ClaimResults[1]
	if bad.OK() || bad.Failure.Kind != model.KindParse || bad.Failure.RawResponse != "raw" {
		t.Errorf("Unexpected failed item %+v", bad)
	}
	if len(report.Failures()) != 1 {
		t.Errorf("Expected 1 failure, got %d", len(report.Failures()))
	}
}

func TestVerify_FatalErrorAborts(t *testing.T) {
	adj := &echoAdjudicator{fatalOn: "c1"}
	report, err := New(&stubExtractor{claims: claims("c0", "c1", "c2")}, adj, Options{Workers: 1}).Verify(context.Background(), "x", 0.5)
	if !errors.Is(err, model.ErrIndexUnavailable) {
		t.Fatalf("Expected fatal index error, got %v", err)
	}
	if report != nil {
		t.Error("Aborted run must not return a report")
	}
}

func TestVerify_DeadlineLeavesTimeoutFailures(t *testing.T) {
	adj := &echoAdjudicator{delay: func() time.Duration { return time.Second }}
	ex := &stubExtractor{claims: claims("a", "b", "c", "d")}

	start := time.Now()
	report, err := New(ex, adj, Options{Workers: 1, Deadline: 50 * time.Millisecond}).Verify(context.Background(), "x", 0.5)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if time.Since(start) > 900*time.Millisecond {
		t.Errorf("Verify did not honour the deadline: %v", time.Since(start))
	}
	if len(report.ClaimResults) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(report.ClaimResults))
	}
	for i, res := range report.ClaimResults {
		if res.OK() {
			t.Errorf("ClaimResults[%d] should have failed", i)
			continue
		}
		if res.Failure.Kind != model.KindAdjudicationTimeout {
			t.Errorf("ClaimResults[%d] kind = %s, want timeout", i, res.Failure.Kind)
		}
		if res.Subject != ex.claims[i].Text {
			t.Errorf("ClaimResults[%d] subject = %s", i, res.Subject)
		}
	}
}
