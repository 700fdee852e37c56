// Package spelling runs spoken spelling practice: a word is read aloud,
// the learner spells it back, and the session keeps score until the list
// is done.
package spelling

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is a session state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSpeaking  Status = "speaking"
	StatusListening Status = "listening"
	StatusFeedback  Status = "feedback"
	StatusFinished  Status = "finished"
)

// Feedback is the verdict on the last answer, shown while in StatusFeedback.
type Feedback string

const (
	FeedbackNone      Feedback = ""
	FeedbackCorrect   Feedback = "correct"
	FeedbackIncorrect Feedback = "incorrect"
)

// Result is the record kept for a completed session.
type Result struct {
	Words     []string  `json:"words"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// Speaker reads text aloud. done is called once playback finishes and may
// be called from any goroutine. Speak returns an error when playback could
// not start, in which case done is never called.
type Speaker interface {
	Speak(ctx context.Context, text string, done func()) error
}

// Recognizer turns one spoken answer into text. Exactly one of onResult
// or onError is expected per Listen call; cancelling ctx abandons it.
type Recognizer interface {
	Available() bool
	Listen(ctx context.Context, onResult func(transcript string), onError func(err error)) error
}

// ResultSaver appends a finished session to the child's history.
type ResultSaver interface {
	SaveSpellingResult(ctx context.Context, parentID, childID string, r Result) error
}

var (
	// ErrUnsupportedEnvironment means speech input or output is missing, so
	// a session cannot start.
	ErrUnsupportedEnvironment = errors.New("speech features needed for spelling practice are not available")

	// ErrRecognition matches every RecognitionError.
	ErrRecognition = errors.New("trouble hearing you, please try again")

	// ErrListenTimeout is the cause recorded when no answer arrives in time.
	ErrListenTimeout = errors.New("no answer heard")
)

// RecognitionError is a failed attempt to hear an answer. The session
// stays on the same word.
type RecognitionError struct {
	Err error
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRecognition, e.Err)
}

func (e *RecognitionError) Unwrap() error { return e.Err }

func (e *RecognitionError) Is(target error) bool {
	return target == ErrRecognition
}

// Normalize lower-cases a transcript and drops everything but a-z, so
// "C-A-T." becomes "cat".
func Normalize(transcript string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r
		}
		return -1
	}, strings.ToLower(transcript))
}

// Matches reports whether transcript spells word exactly.
func Matches(transcript, word string) bool {
	return Normalize(transcript) == strings.ToLower(word)
}

// Score is the percentage of correct answers.
func Score(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

func correctionText(word string) string {
	return fmt.Sprintf("Sorry, the word was %s. Let's try the next one.", word)
}

const affirmationText = "Correct!"
