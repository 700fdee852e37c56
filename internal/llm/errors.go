package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// The error types below let the retry layer tell a busy or flaky content
// model apart from a request that will never succeed.

// ErrRateLimit is a 429 from the provider. RetryAfter is zero when the
// provider gave no hint.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("content model is busy, try again in %s: %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("content model is busy: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse is model output that is not JSON or does not match
// the schema of the questions or word list asked for. Content keeps the
// raw reply for the request log.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("content model reply did not match the expected shape (%d bytes): %v", len(e.Content), e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers outages, 5xx responses and network
// failures. Another attempt may succeed.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err == nil {
		return "content model unreachable"
	}
	return fmt.Sprintf("content model unreachable: %v", e.Err)
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrRequestRejected is a 4xx other than 429 or 408, such as a bad API key
// or an unknown model. Repeating the request cannot help.
type ErrRequestRejected struct {
	Status int
	Err    error
}

func (e *ErrRequestRejected) Error() string {
	return fmt.Sprintf("content model rejected the request (HTTP %d): %v", e.Status, e.Err)
}

func (e *ErrRequestRejected) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means the reply was cut off at MaxTokens, usually
// because too many questions were requested for the token budget.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return fmt.Sprintf("content model reply cut off after %d bytes: max tokens exceeded", len(e.Content))
}

// classifyStatus maps an HTTP status from a vendor SDK error onto the
// types above.
func classifyStatus(status int, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Err: err}
	case status == http.StatusRequestTimeout:
		return &ErrProviderUnavailable{Err: err}
	case status >= 400 && status < 500:
		return &ErrRequestRejected{Status: status, Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
