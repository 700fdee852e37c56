package llm

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/studybuddy/internal/retry"
)

// RetryProvider retries transient provider errors with exponential backoff.
type RetryProvider struct {
	inner  Provider
	policy retry.Policy
}

// WithRetry wraps a Provider with retry logic.
func WithRetry(p Provider, policy retry.Policy) Provider {
	return &RetryProvider{inner: p, policy: policy}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	invalidRetried := false

	err := retry.Do(ctx, r.policy, func(ctx context.Context, _ int) error {
		var err error
		resp, err = r.inner.Generate(ctx, req)
		return err
	},
		retry.If(func(err error) bool { return shouldRetry(err, &invalidRetried) }),
		retry.WaitFor(retryAfter),
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

// shouldRetry reports whether another attempt may succeed. A schema
// violation gets exactly one more try.
func shouldRetry(err error, invalidRetried *bool) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var (
		maxTok   *ErrMaxTokensExceeded
		rejected *ErrRequestRejected
	)
	if errors.As(err, &maxTok) || errors.As(err, &rejected) {
		return false
	}

	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// Rate limits, outages and network errors are treated as transient.
	return true
}

// retryAfter honors the provider's Retry-After on rate limits.
func retryAfter(_ int, err error) (time.Duration, bool) {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter, true
	}
	return 0, false
}
