package llm

import (
	"context"
	"fmt"

	"github.com/ppiankov/factlens/internal/model"
	"github.com/ppiankov/factlens/internal/worker"
)

// RateLimited waits on a token bucket keyed by provider name before each call
type RateLimited struct {
	Provider
	limiter *worker.Limiter
}

// NewRateLimited wraps p with limiter
func NewRateLimited(p Provider, limiter *worker.Limiter) *RateLimited {
	return &RateLimited{Provider: p, limiter: limiter}
}

// Complete waits for a token then delegates. A wait that cannot finish
// before the deadline counts as a timeout.
func (r *RateLimited) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if err := r.limiter.Wait(ctx, r.Name()); err != nil {
		return nil, fmt.Errorf("%w: %s rate limit: %w", model.ErrAdjudicationTimeout, r.Name(), err)
	}
	return r.Provider.Complete(ctx, req)
}
