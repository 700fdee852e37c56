// Package family keeps parent profiles, their children and each child's
// spelling history.
package family

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/spelling"
)

// Avatars are the picture names a child profile may use.
var Avatars = []string{
	"emoji-grinning-face",
	"emoji-star-struck",
	"emoji-smiling-face-with-sunglasses",
	"emoji-winking-face",
	"emoji-nerd-face",
	"emoji-robot",
}

// Parent is the account that owns child profiles. Version increases with
// every write and guards concurrent updates.
type Parent struct {
	ID       string  `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Children []Child `json:"children"`
	Version  int64   `json:"-"`
}

// Child is a learner profile.
type Child struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	GradeLevel       string            `json:"gradeLevel"`
	Avatar           string            `json:"avatar"`
	SpellingProgress []spelling.Result `json:"spellingProgress"`
}

// Child returns the child with id, or nil.
func (p *Parent) Child(id string) *Child {
	for i := range p.Children {
		if p.Children[i].ID == id {
			return &p.Children[i]
		}
	}
	return nil
}

// Clone returns a deep copy.
func (p *Parent) Clone() *Parent {
	c := *p
	c.Children = make([]Child, len(p.Children))
	for i, ch := range p.Children {
		ch.SpellingProgress = slices.Clone(ch.SpellingProgress)
		c.Children[i] = ch
	}
	return &c
}

// ActivityLearner identifies the child to the activity manager.
func (c Child) ActivityLearner() activity.Learner {
	return activity.Learner{ChildID: c.ID, Grade: c.GradeLevel}
}

// SpellingLearner identifies the child to a spelling session.
func (c Child) SpellingLearner(parentID string) spelling.Learner {
	return spelling.Learner{ParentID: parentID, ChildID: c.ID, Grade: c.GradeLevel}
}

// Repo persists parent records.
type Repo interface {
	// GetParent returns ErrParentNotFound when id does not exist.
	GetParent(ctx context.Context, id string) (*Parent, error)

	// CreateParent inserts p unless it exists and returns the stored record.
	CreateParent(ctx context.Context, p *Parent) (*Parent, error)

	// MutateParent applies mutate to the current record and writes it back
	// atomically. If another write landed in between it returns
	// ErrPersistenceConflict and nothing is written. An error from mutate
	// aborts the write and is returned as is.
	MutateParent(ctx context.Context, id string, mutate func(*Parent) error) (*Parent, error)
}

var (
	ErrParentNotFound = errors.New("parent not found")
	ErrChildNotFound  = errors.New("child not found")
	ErrInvalidInput   = errors.New("invalid input")

	// ErrPersistenceConflict reports a lost optimistic-concurrency race on
	// a parent record. Service retries it.
	ErrPersistenceConflict = errors.New("parent record changed concurrently")
)

func childNotFound(parentID, childID string) error {
	return fmt.Errorf("parent %s, child %s: %w", parentID, childID, ErrChildNotFound)
}
