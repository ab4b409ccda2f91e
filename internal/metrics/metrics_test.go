package metrics

import (
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveResult(t *testing.T) {
	r := New()

	r.ObserveResult(model.Succeeded(model.SubjectClaim, "a", 0.9, model.Outcome{Verdict: model.VerdictTrue}))
	r.ObserveResult(model.Succeeded(model.SubjectClaim, "b", 0.2, model.Outcome{Verdict: model.VerdictUnverifiable, ShortCircuited: true}))
	r.ObserveResult(model.Failed(model.SubjectEntity, "c", 0.7, fmt.Errorf("%w: bad", model.ErrParse), "raw"))

	if got := testutil.ToFloat64(r.verdicts.WithLabelValues("claim", "True")); got != 1 {
		t.Errorf("True verdicts = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.shortCircuits.WithLabelValues("claim")); got != 1 {
		t.Errorf("short circuits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.failures.WithLabelValues("entity", string(model.KindParse))); got != 1 {
		t.Errorf("parse failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.verdicts.WithLabelValues("entity", "Error")); got != 1 {
		t.Errorf("Error verdicts = %v, want 1", got)
	}
}

func TestRecorder_ObserveRun(t *testing.T) {
	r := New()
	r.ObserveRun(time.Second, nil)
	r.ObserveRun(time.Second, fmt.Errorf("%w: down", model.ErrIndexUnavailable))
	r.ObserveRun(time.Second, errors.New("not fatal"))

	if got := testutil.ToFloat64(r.aborts.WithLabelValues(string(model.KindIndexUnavailable))); got != 1 {
		t.Errorf("aborts = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.runDuration); got != 1 {
		t.Errorf("run duration series = %d, want 1", got)
	}
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.ObserveResult(model.Succeeded(model.SubjectClaim, "a", 1, model.Outcome{Verdict: model.VerdictTrue}))
	r.ObserveLLMCall(model.SubjectClaim, time.Second, nil)
	r.ObserveRun(time.Second, nil)
	if r.Registry() != nil {
		t.Error("nil recorder should have no registry")
	}
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveLLMCall(model.SubjectClaim, 300*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "factlens_llm_latency_seconds_count") {
		t.Errorf("Expected latency histogram in output, got:\n%s", body)
	}
}
