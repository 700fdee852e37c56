// Package activity manages each child's daily activity: creating it once
// per day at an adaptive difficulty, tracking its status and grading it.
package activity

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
)

// DateLayout is the calendar-day key format. Days are UTC.
const DateLayout = "2006-01-02"

// Status is an activity's lifecycle state. It only moves forward:
// pending → viewed → graded.
type Status string

const (
	StatusPending Status = "pending"
	StatusViewed  Status = "viewed"
	StatusGraded  Status = "graded"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusViewed, StatusGraded:
		return true
	}
	return false
}

// Score holds graded percentages. Overall is the mean of Math and Reading.
type Score struct {
	Math    float64 `json:"math"`
	Reading float64 `json:"reading"`
	Overall float64 `json:"overall"`
}

// Activity is one child's work for one calendar day. Score is set exactly
// when Status is StatusGraded.
type Activity struct {
	ID               string             `json:"id"`
	ChildID          string             `json:"childId"`
	Date             string             `json:"date"`
	Difficulty       difficulty.Level   `json:"difficulty"`
	MathQuestions    []content.Question `json:"mathQuestions"`
	ReadingPassage   string             `json:"readingPassage"`
	ReadingQuestions []content.Question `json:"readingQuestions"`
	Status           Status             `json:"status"`
	Score            *Score             `json:"score,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

// Clone returns a deep copy.
func (a *Activity) Clone() *Activity {
	c := *a
	c.MathQuestions = slices.Clone(a.MathQuestions)
	c.ReadingQuestions = slices.Clone(a.ReadingQuestions)
	if a.Score != nil {
		s := *a.Score
		c.Score = &s
	}
	return &c
}

// ID returns the identity of childID's activity on date.
func ID(childID, date string) string {
	return childID + "_" + date
}

// DateKey returns the UTC calendar day of t.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NextDifficulty picks the difficulty for a child's next activity from
// their history.
func NextDifficulty(history []Activity) difficulty.Level {
	outcomes := make([]difficulty.Outcome, 0, len(history))
	for _, a := range history {
		o := difficulty.Outcome{Date: a.Date, Graded: a.Status == StatusGraded}
		if o.Graded && a.Score != nil {
			o.Overall = a.Score.Overall
		}
		outcomes = append(outcomes, o)
	}
	return difficulty.Next(outcomes)
}

// Repo persists activities.
type Repo interface {
	// GetActivity returns ErrNotFound when id does not exist.
	GetActivity(ctx context.Context, id string) (*Activity, error)

	// CreateActivity inserts a unless an activity with the same ID already
	// exists. It returns whichever record is stored and whether this call
	// inserted it.
	CreateActivity(ctx context.Context, a *Activity) (*Activity, bool, error)

	// ClaimGeneration records owner as the only caller allowed to generate
	// content for activity id, across every process sharing the store. It
	// reports false while another owner holds a claim taken within ttl of
	// now; older claims are treated as abandoned and replaced.
	ClaimGeneration(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (bool, error)

	// ReleaseGeneration drops owner's claim on id. Claims held by other
	// owners are left alone.
	ReleaseGeneration(ctx context.Context, id, owner string) error

	// UpdateActivityStatus sets the status of an existing activity. A graded
	// activity keeps its status. Returns ErrNotFound when id does not exist.
	UpdateActivityStatus(ctx context.Context, id string, status Status) error

	// UpdateActivityScore marks the activity graded with score and leaves
	// every other field untouched. Returns ErrNotFound when id does not exist.
	UpdateActivityScore(ctx context.Context, id string, score Score) error

	// ListActivities returns every activity of childID in any order.
	ListActivities(ctx context.Context, childID string) ([]Activity, error)
}

var (
	// ErrNotFound is returned by repositories for missing records.
	ErrNotFound = errors.New("not found")

	// ErrGenerationInProgress means another caller is still generating the
	// activity. Retrying later returns its result.
	ErrGenerationInProgress = errors.New("activity is being generated, try again shortly")
)

// NotFoundError reports an operation on an activity that does not exist.
type NotFoundError struct {
	Op string
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: activity %q not found", e.Op, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
