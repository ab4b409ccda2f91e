// Package verify runs extraction and adjudication for one input text and
// assembles the report.
package verify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ppiankov/factlens/internal/logging"
	"github.com/ppiankov/factlens/internal/metrics"
	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/worker"
)

// Extractor produces the entities and claims of a text
type Extractor interface {
	Extract(ctx context.Context, text string) ([]model.Entity, []model.Claim, error)
}

// Adjudicator verifies single items. A non-nil error is fatal to the run.
type Adjudicator interface {
	AdjudicateClaim(ctx context.Context, claim string, threshold float64) (model.VerificationResult, error)
	AdjudicateEntity(ctx context.Context, entity model.Entity, threshold float64) (model.VerificationResult, error)
}

// Options tune an Orchestrator
type Options struct {
	// Workers bounds concurrent adjudications
	Workers int

	// Deadline bounds a whole Verify call (0 = none)
	Deadline time.Duration

	Logger  *log.Logger
	Metrics *metrics.Recorder
}

// Orchestrator is the verification entry point
type Orchestrator struct {
	extractor   Extractor
	adjudicator Adjudicator
	opts        Options
	logger      *log.Logger
	now         func() time.Time
}

// New creates an orchestrator
func New(extractor Extractor, adjudicator Adjudicator, opts Options) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Orchestrator{
		extractor:   extractor,
		adjudicator: adjudicator,
		opts:        opts,
		logger:      logging.OrDiscard(opts.Logger),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Verify extracts claims and entities from text and adjudicates each one.
// Result order matches extraction order. Extraction failures and fatal
// item failures are returned as errors; every other failure is carried by
// its result.
func (o *Orchestrator) Verify(ctx context.Context, text string, threshold float64) (report *model.Report, err error) {
	start := time.Now()
	defer func() {
		o.opts.Metrics.ObserveRun(time.Since(start), err)
	}()

	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: threshold %v outside [0,1]", model.ErrConfiguration, threshold)
	}

	if o.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Deadline)
		defer cancel()
	}

	entities, claims, err := o.extractor.Extract(ctx, text)
	if err != nil {
		if !errors.Is(err, model.ErrExtraction) {
			err = fmt.Errorf("%w: %w", model.ErrExtraction, err)
		}
		return nil, err
	}

	report = &model.Report{
		Input:         text,
		CheckedAt:     o.now(),
		Threshold:     threshold,
		EntityResults: make([]model.VerificationResult, len(entities)),
		ClaimResults:  make([]model.VerificationResult, len(claims)),
	}
	if len(claims) == 0 && len(entities) == 0 {
		o.logger.Info("no check-worthy claims")
		return report, nil
	}

	runCtx, abort := context.WithCancel(ctx)
	defer abort()

	pool := worker.NewPool(runCtx, o.opts.Workers)
	pool.Start()

	jobs := make([]*itemJob, 0, len(claims)+len(entities))
	for _, c := range claims {
		claim := c.Text
		jobs = append(jobs, &itemJob{
			kind:    model.SubjectClaim,
			subject: claim,
			abort:   abort,
			run: func(ctx context.Context) (model.VerificationResult, error) {
				return o.adjudicator.AdjudicateClaim(ctx, claim, threshold)
			},
		})
	}
	for _, entity := range entities {
		jobs = append(jobs, &itemJob{
			kind:    model.SubjectEntity,
			subject: entity.Text,
			abort:   abort,
			run: func(ctx context.Context) (model.VerificationResult, error) {
				return o.adjudicator.AdjudicateEntity(ctx, entity, threshold)
			},
		})
	}
	for _, job := range jobs {
		pool.Submit(job)
	}
	results := pool.Wait()

	for i, job := range jobs {
		var res model.VerificationResult
		switch r, _ := results[i].(*itemResult); {
		case r == nil:
			res = model.Failed(job.kind, job.subject, 0,
				fmt.Errorf("%w: not started before the run deadline", model.ErrAdjudicationTimeout), "")
		case r.fatal != nil:
			o.logger.Error("verification aborted", "kind", job.kind, "subject", job.subject, "err", r.fatal)
			return nil, r.fatal
		default:
			res = r.result
		}

		if !res.OK() {
			o.logger.Warn("item failed", "kind", res.Kind, "subject", res.Subject, "error_kind", res.Failure.Kind, "err", res.Failure.Message)
		}
		if i < len(claims) {
			report.ClaimResults[i] = res
		} else {
			report.EntityResults[i-len(claims)] = res
		}
	}

	o.logger.Debug("verified", "claims", len(claims), "entities", len(entities), "failures", len(report.Failures()), "duration", time.Since(start))
	return report, nil
}

// itemJob adjudicates one claim or entity on the worker pool
type itemJob struct {
	kind    model.SubjectKind
	subject string
	abort   context.CancelFunc
	run     func(ctx context.Context) (model.VerificationResult, error)
}

// Execute implements worker.Job
func (j *itemJob) Execute(ctx context.Context) worker.Result {
	res, err := j.run(ctx)
	if err != nil {
		j.abort()
	}
	return &itemResult{result: res, fatal: err}
}

type itemResult struct {
	result model.VerificationResult
	fatal  error
}

// GetError implements worker.Result
func (r *itemResult) GetError() error {
	return r.fatal
}
