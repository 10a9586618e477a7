// Package retry provides bounded exponential backoff for transient
// model-provider and network failures.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/kailas-cloud/ragfleet/internal/domain"
)

// Policy controls retry behavior.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy retries three times with 500ms base backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    10 * time.Second,
	}
}

// Do runs fn with exponential backoff until it succeeds, exhausts
// attempts, hits a non-retryable error, or the context is canceled.
// Returns the last error on failure.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(p, attempt)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !domain.IsRetryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// backoff computes the delay before the given attempt (1-based for waits):
// base * 2^(attempt-1), capped at MaxDelay, with up to 25% jitter.
func backoff(p Policy, attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/4 + 1))
	return d + jitter
}
