// Package retry runs an operation with exponential backoff and jitter.
package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// Policy configures retry behavior for transient failures.
type Policy struct {
	// MaxAttempts includes the first attempt. Values below 1 mean 1.
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64

	// Jitter is the +/- fraction applied to each wait (0.2 = ±20%).
	Jitter float64
}

// DefaultPolicy returns a Policy with sensible defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		InitialWait: 1 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2.0,
		Jitter:      0.2,
	}
}

type options struct {
	retryIf func(error) bool
	waitFor func(attempt int, err error) (time.Duration, bool)
	onRetry func(attempt int, err error, wait time.Duration)
}

// Option customizes a single Do call.
type Option func(*options)

// If limits retries to errors for which fn returns true.
// Without it every error is retried.
func If(fn func(error) bool) Option {
	return func(o *options) { o.retryIf = fn }
}

// WaitFor overrides the computed backoff when fn returns ok.
func WaitFor(fn func(attempt int, err error) (time.Duration, bool)) Option {
	return func(o *options) { o.waitFor = fn }
}

// OnRetry is called before sleeping ahead of the next attempt.
func OnRetry(fn func(attempt int, err error, wait time.Duration)) Option {
	return func(o *options) { o.onRetry = fn }
}

// Do calls fn until it succeeds, the error is not retryable, attempts are
// exhausted, or ctx is done. It returns the last error from fn, or the
// context error if ctx ended while waiting.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) error, opts ...Option) error {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := range attempts {
		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if o.retryIf != nil && !o.retryIf(err) {
			return err
		}

		// Last attempt: return without sleeping.
		if attempt == attempts-1 {
			break
		}

		wait := p.Backoff(attempt)
		if o.waitFor != nil {
			if w, ok := o.waitFor(attempt, err); ok {
				wait = w
			}
		}
		if o.onRetry != nil {
			o.onRetry(attempt, err, wait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}

// Backoff computes the wait before the attempt following attempt.
func (p Policy) Backoff(attempt int) time.Duration {
	mult := p.Multiplier
	if mult < 1 {
		mult = 1
	}
	wait := float64(p.InitialWait) * math.Pow(mult, float64(attempt))
	if p.MaxWait > 0 && wait > float64(p.MaxWait) {
		wait = float64(p.MaxWait)
	}

	if p.Jitter > 0 {
		wait += wait * p.Jitter * (2*rand.Float64() - 1)
	}

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
