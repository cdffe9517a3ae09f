// Package retry provides bounded retries with exponential backoff for
// transient engine failures at persistence boundaries.
package retry

import (
	"context"
	"time"
)

// Func is a function that can be retried.
type Func func(ctx context.Context) error

type config struct {
	maxAttempts int
	baseDelay   time.Duration
}

// Option configures the retrier.
type Option func(*config)

// WithMaxAttempts sets the maximum number of attempts. The default is 3.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the delay before the second attempt; each further
// attempt doubles it. The default is 50ms.
func WithBaseDelay(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// Do runs fn until it succeeds, the attempt budget is spent, or ctx is
// done. It returns the last error fn produced, or ctx.Err() when cancelled
// mid-backoff.
func Do(ctx context.Context, fn Func, opts ...Option) error {
	cfg := &config{
		maxAttempts: 3,
		baseDelay:   50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var lastErr error
	delay := cfg.baseDelay
	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.maxAttempts-1 {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return lastErr
}
