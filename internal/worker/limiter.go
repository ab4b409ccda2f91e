package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a set of token buckets keyed by name: a provider name for
// LLM calls or a host for corpus fetches
type Limiter struct {
	mu           sync.Mutex
	buckets      map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a limiter whose buckets refill at requestsPerSecond.
// A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		buckets:      make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait blocks until key has a token or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// WaitWithDelay waits on key after slowing it to at most one request per
// delay. Used for robots.txt crawl delays, which only ever slow a host.
func (l *Limiter) WaitWithDelay(ctx context.Context, key string, delay time.Duration) error {
	if delay > 0 {
		l.slowTo(key, rate.Every(delay))
	}
	return l.Wait(ctx, key)
}

// SetRate replaces the bucket for key. burst <= 0 keeps the default burst.
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buckets[key] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// Rate reports the current refill rate for key
func (l *Limiter) Rate(key string) rate.Limit {
	return l.bucket(key).Limit()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.buckets[key] = b
	}
	return b
}

func (l *Limiter) slowTo(key string, limit rate.Limit) {
	b := l.bucket(key)
	if limit < b.Limit() {
		b.SetLimit(limit)
		b.SetBurst(1)
	}
}
