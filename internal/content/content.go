// Package content produces the question sets and spelling lists the
// activity and spelling workflows are built from.
package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/studybuddy/internal/difficulty"
)

// QuizLength is the number of math questions, reading questions and
// spelling words requested per activity or session.
const QuizLength = 10

// Grades lists the supported grade levels, youngest first.
var Grades = []string{"JK", "SK", "1", "2", "3", "4", "5", "6", "7", "8"}

// ValidGrade reports whether g is one of Grades.
func ValidGrade(g string) bool {
	for _, grade := range Grades {
		if grade == g {
			return true
		}
	}
	return false
}

// Question is a question/answer pair.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DailyContent is the generated body of a daily activity.
type DailyContent struct {
	MathQuestions    []Question `json:"mathQuestions"`
	ReadingPassage   string     `json:"readingPassage"`
	ReadingQuestions []Question `json:"readingQuestions"`
}

// Complete reports whether every part of the activity is present.
func (c *DailyContent) Complete() bool {
	return c != nil &&
		len(c.MathQuestions) > 0 &&
		c.ReadingPassage != "" &&
		len(c.ReadingQuestions) > 0
}

// Source generates learning content for a grade and difficulty.
type Source interface {
	GenerateDailyContent(ctx context.Context, grade string, level difficulty.Level) (*DailyContent, error)
	GenerateSpellingWords(ctx context.Context, grade string, level difficulty.Level) ([]string, error)
}

// ErrContentGeneration matches every GenerationError.
var ErrContentGeneration = errors.New("content generation failed")

// GenerationError reports content that could not be produced or was
// malformed. Nothing is created when it is returned; callers may retry.
type GenerationError struct {
	Op    string
	Grade string
	Level difficulty.Level
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s (grade %s, %s): %v", e.Op, e.Grade, e.Level, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrContentGeneration
}
