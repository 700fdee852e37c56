package spelling

import (
	"time"

	"github.com/abhisek/studybuddy/internal/content"
)

// Config controls session pacing.
type Config struct {
	// WordCount caps the practice list.
	WordCount int

	// AutoListen starts listening PromptDelay after a word has been read.
	AutoListen  bool
	PromptDelay time.Duration

	// Pauses after feedback speech before moving on. Corrections get
	// longer so the learner can take them in.
	CorrectDelay   time.Duration
	IncorrectDelay time.Duration

	// ListenTimeout ends a listen that never reports back. It counts as a
	// recognition error. Zero disables it.
	ListenTimeout time.Duration

	// OnFinished runs on the session goroutine after the result is saved.
	OnFinished func(Result)
}

// DefaultConfig returns the standard pacing.
func DefaultConfig() Config {
	return Config{
		WordCount:      content.QuizLength,
		AutoListen:     true,
		PromptDelay:    500 * time.Millisecond,
		CorrectDelay:   time.Second,
		IncorrectDelay: 1500 * time.Millisecond,
		ListenTimeout:  10 * time.Second,
	}
}
