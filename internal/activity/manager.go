package activity

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/metrics"
)

// Learner identifies the child an activity is generated for.
type Learner struct {
	ChildID string
	Grade   string
}

// Options configures a Manager.
type Options struct {
	// Now defaults to time.Now.
	Now     func() time.Time
	Metrics *metrics.Metrics

	// ClaimTTL is how long a generation claim blocks other callers before
	// it is considered abandoned. Defaults to 5 minutes.
	ClaimTTL time.Duration

	// ClaimWait bounds how long a caller waits on someone else's claim
	// before giving up with ErrGenerationInProgress. Defaults to 2 minutes.
	ClaimWait time.Duration

	// ClaimPoll is the interval between checks while waiting. Defaults to
	// 250ms.
	ClaimPoll time.Duration
}

// Manager owns activity lifecycle transitions.
type Manager struct {
	repo    Repo
	source  content.Source
	now     func() time.Time
	metrics *metrics.Metrics

	claimTTL  time.Duration
	claimWait time.Duration
	claimPoll time.Duration

	// flight collapses concurrent creations of the same activity in this
	// process. Generation claims in the store cover other processes.
	flight singleflight.Group
}

// NewManager creates a Manager.
func NewManager(repo Repo, source content.Source, opts Options) *Manager {
	m := &Manager{
		repo:      repo,
		source:    source,
		now:       opts.Now,
		metrics:   opts.Metrics,
		claimTTL:  cmp.Or(opts.ClaimTTL, 5*time.Minute),
		claimWait: cmp.Or(opts.ClaimWait, 2*time.Minute),
		claimPoll: cmp.Or(opts.ClaimPoll, 250*time.Millisecond),
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m
}

// GetOrCreateToday returns the learner's activity for the current UTC day,
// generating it on first use. Repeated calls on the same day return the
// stored activity unchanged. Content is generated at most once per child
// per day, even when several processes share the store. When content
// cannot be generated nothing is stored and the error matches
// content.ErrContentGeneration.
func (m *Manager) GetOrCreateToday(ctx context.Context, l Learner) (*Activity, error) {
	date := DateKey(m.now())
	id := ID(l.ChildID, date)

	// The shared work outlives any single caller so one caller giving up
	// does not fail the others waiting on it.
	ch := m.flight.DoChan(id, func() (any, error) {
		return m.getOrCreate(context.WithoutCancel(ctx), l, id, date)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Activity).Clone(), nil
	}
}

// getOrCreate returns the stored activity, or generates it once this
// caller holds the generation claim. Without the claim it waits for the
// holder to finish.
func (m *Manager) getOrCreate(ctx context.Context, l Learner, id, date string) (*Activity, error) {
	deadline := time.NewTimer(m.claimWait)
	defer deadline.Stop()

	for {
		existing, err := m.repo.GetActivity(ctx, id)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("get activity %s: %w", id, err)
		}

		owner := uuid.NewString()
		claimed, err := m.repo.ClaimGeneration(ctx, id, owner, m.now(), m.claimTTL)
		if err != nil {
			return nil, fmt.Errorf("claim activity %s: %w", id, err)
		}
		if claimed {
			return m.generate(ctx, l, id, date, owner)
		}

		select {
		case <-deadline.C:
			return nil, fmt.Errorf("activity %s: %w", id, ErrGenerationInProgress)
		case <-time.After(m.claimPoll):
		}
	}
}

func (m *Manager) generate(ctx context.Context, l Learner, id, date, owner string) (*Activity, error) {
	defer func() {
		if err := m.repo.ReleaseGeneration(ctx, id, owner); err != nil {
			slog.WarnContext(ctx, "failed to release generation claim", "activity", id, "error", err)
		}
	}()

	// The previous holder may have stored the activity and released its
	// claim between our read and our claim.
	existing, err := m.repo.GetActivity(ctx, id)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get activity %s: %w", id, err)
	}

	history, err := m.repo.ListActivities(ctx, l.ChildID)
	if err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", l.ChildID, err)
	}
	level := NextDifficulty(history)

	body, err := m.source.GenerateDailyContent(ctx, l.Grade, level)
	if err == nil && !body.Complete() {
		err = &content.GenerationError{
			Op:    "generate daily content",
			Grade: l.Grade,
			Level: level,
			Err:   errors.New("incomplete activity returned"),
		}
	}
	if err != nil {
		m.metrics.ActivityGenerationFailed()
		return nil, fmt.Errorf("create activity %s: %w", id, err)
	}

	stored, inserted, err := m.repo.CreateActivity(ctx, &Activity{
		ID:               id,
		ChildID:          l.ChildID,
		Date:             date,
		Difficulty:       level,
		MathQuestions:    body.MathQuestions,
		ReadingPassage:   body.ReadingPassage,
		ReadingQuestions: body.ReadingQuestions,
		Status:           StatusPending,
		CreatedAt:        m.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("store activity %s: %w", id, err)
	}

	if inserted {
		m.metrics.ActivityGenerated()
		slog.InfoContext(ctx, "daily activity created", "activity", id, "grade", l.Grade, "difficulty", level)
	} else {
		slog.WarnContext(ctx, "daily activity already stored, keeping the existing one", "activity", id)
	}
	return stored, nil
}

// MarkViewed records that the learner has finished the activity. A graded
// activity stays graded.
func (m *Manager) MarkViewed(ctx context.Context, activityID string) error {
	if err := m.repo.UpdateActivityStatus(ctx, activityID, StatusViewed); err != nil {
		return wrapNotFound("mark viewed", activityID, err)
	}
	return nil
}

// Grade scores an activity from the number of correct math and reading
// answers. Counts are not clamped: out-of-range input yields out-of-range
// percentages. Grading again replaces the previous score.
func (m *Manager) Grade(ctx context.Context, activityID string, mathCorrect, readingCorrect int) (*Activity, error) {
	a, err := m.repo.GetActivity(ctx, activityID)
	if err != nil {
		return nil, wrapNotFound("grade", activityID, err)
	}

	score := ComputeScore(len(a.MathQuestions), len(a.ReadingQuestions), mathCorrect, readingCorrect)
	if err := m.repo.UpdateActivityScore(ctx, activityID, score); err != nil {
		return nil, wrapNotFound("grade", activityID, err)
	}

	m.metrics.ActivityGraded()
	slog.InfoContext(ctx, "activity graded", "activity", activityID, "overall", score.Overall)

	a.Status = StatusGraded
	a.Score = &score
	return a, nil
}

// ComputeScore converts correct counts into percentages.
func ComputeScore(mathTotal, readingTotal, mathCorrect, readingCorrect int) Score {
	s := Score{
		Math:    percent(mathCorrect, mathTotal),
		Reading: percent(readingCorrect, readingTotal),
	}
	s.Overall = (s.Math + s.Reading) / 2
	return s
}

func percent(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(correct) / float64(total)
}

// ListCompleted returns the child's viewed and graded activities, newest
// first.
func (m *Manager) ListCompleted(ctx context.Context, childID string) ([]Activity, error) {
	all, err := m.History(ctx, childID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(all, func(a Activity) bool { return a.Status == StatusPending }), nil
}

// History returns every activity of the child, newest first.
func (m *Manager) History(ctx context.Context, childID string) ([]Activity, error) {
	all, err := m.repo.ListActivities(ctx, childID)
	if err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", childID, err)
	}
	slices.SortFunc(all, func(a, b Activity) int { return cmp.Compare(b.Date, a.Date) })
	return all, nil
}

func wrapNotFound(op, id string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &NotFoundError{Op: op, ID: id}
	}
	return fmt.Errorf("%s %s: %w", op, id, err)
}
