// Package metrics records verification counters and latencies on a private
// prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "factlens"

// Recorder holds the verification metrics. A nil *Recorder is valid and
// records nothing.
type Recorder struct {
	registry *prometheus.Registry

	// verdicts counts results. Labels: kind (claim, entity), verdict
	verdicts *prometheus.CounterVec

	// failures counts failed results. Labels: kind, error_kind
	failures *prometheus.CounterVec

	// shortCircuits counts items decided without an LLM call. Labels: kind
	shortCircuits *prometheus.CounterVec

	// llmLatency measures adjudication calls. Labels: kind, status (ok, error)
	llmLatency *prometheus.HistogramVec

	// confidence tracks retrieval confidence. Labels: kind
	confidence *prometheus.HistogramVec

	// aborts counts runs stopped by a fatal error. Labels: error_kind
	aborts *prometheus.CounterVec

	// runDuration measures whole Verify calls
	runDuration prometheus.Histogram
}

// New creates a recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verdicts_total",
			Help:      "Verification results by subject kind and verdict",
		}, []string{"kind", "verdict"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Failed verification results by subject kind and error kind",
		}, []string{"kind", "error_kind"}),
		shortCircuits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_circuits_total",
			Help:      "Items decided below the confidence threshold without an LLM call",
		}, []string{"kind"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "latency_seconds",
			Help:      "Adjudication call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		}, []string{"kind", "status"}),
		confidence: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "confidence",
			Help:      "Distribution of retrieval confidence scores",
			Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		}, []string{"kind"}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aborted_runs_total",
			Help:      "Verification runs aborted by a fatal error",
		}, []string{"error_kind"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one verification run",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}

	reg.MustRegister(
		r.verdicts, r.failures, r.shortCircuits, r.llmLatency,
		r.confidence, r.aborts, r.runDuration,
		collectors.NewGoCollector(),
	)
	return r
}

// Registry exposes the private registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveResult records one finished result
func (r *Recorder) ObserveResult(res model.VerificationResult) {
	if r == nil {
		return
	}
	kind := string(res.Kind)
	r.confidence.WithLabelValues(kind).Observe(res.Confidence)
	if !res.OK() {
		r.failures.WithLabelValues(kind, string(res.Failure.Kind)).Inc()
		r.verdicts.WithLabelValues(kind, string(model.VerdictError)).Inc()
		return
	}
	r.verdicts.WithLabelValues(kind, string(res.Outcome.Verdict)).Inc()
	if res.Outcome.ShortCircuited {
		r.shortCircuits.WithLabelValues(kind).Inc()
	}
}

// ObserveLLMCall records the latency of one adjudication call
func (r *Recorder) ObserveLLMCall(kind model.SubjectKind, d time.Duration, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.llmLatency.WithLabelValues(string(kind), status).Observe(d.Seconds())
}

// ObserveRun records a whole verification run. A fatal err counts as an abort.
func (r *Recorder) ObserveRun(d time.Duration, err error) {
	if r == nil {
		return
	}
	r.runDuration.Observe(d.Seconds())
	if err != nil && model.IsFatal(err) {
		r.aborts.WithLabelValues(string(model.KindOf(err))).Inc()
	}
}
