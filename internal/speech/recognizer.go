package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/studybuddy/internal/spelling"
)

// ErrNotListening is returned by Submit when no Listen call is waiting.
var ErrNotListening = errors.New("not listening")

// TypedRecognizer stands in for a microphone: the learner types the answer
// and Submit hands it to the waiting Listen call.
type TypedRecognizer struct {
	mu      sync.Mutex
	pending *listen
}

type listen struct {
	onResult func(string)
	onError  func(error)
}

var _ spelling.Recognizer = (*TypedRecognizer)(nil)

// NewTypedRecognizer creates a TypedRecognizer.
func NewTypedRecognizer() *TypedRecognizer {
	return &TypedRecognizer{}
}

// Available is always true; a keyboard is assumed.
func (r *TypedRecognizer) Available() bool { return true }

// Listen waits for the next Submit or Fail. A newer Listen replaces an
// older one, and cancelling ctx drops it without a callback.
func (r *TypedRecognizer) Listen(ctx context.Context, onResult func(string), onError func(error)) error {
	l := &listen{onResult: onResult, onError: onError}

	r.mu.Lock()
	r.pending = l
	r.mu.Unlock()

	context.AfterFunc(ctx, func() {
		r.mu.Lock()
		if r.pending == l {
			r.pending = nil
		}
		r.mu.Unlock()
	})
	return nil
}

// Listening reports whether an answer is awaited.
func (r *TypedRecognizer) Listening() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// Submit delivers a typed answer.
func (r *TypedRecognizer) Submit(text string) error {
	l := r.take()
	if l == nil {
		return ErrNotListening
	}
	l.onResult(text)
	return nil
}

// Fail reports a recognition failure to the waiting Listen.
func (r *TypedRecognizer) Fail(err error) error {
	l := r.take()
	if l == nil {
		return ErrNotListening
	}
	l.onError(err)
	return nil
}

func (r *TypedRecognizer) take() *listen {
	r.mu.Lock()
	defer r.mu.Unlock()
	l := r.pending
	r.pending = nil
	return l
}
