package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/difficulty"
)

const activitiesTable = "activities"

var activityColumns = []string{
	"id", "child_id", "date", "difficulty",
	"math_questions", "reading_passage", "reading_questions",
	"status", "score_math", "score_reading", "score_overall", "created_at",
}

// ActivityRepo implements activity.Repo.
type ActivityRepo struct {
	db *sql.DB
}

var _ activity.Repo = (*ActivityRepo)(nil)

func (r *ActivityRepo) GetActivity(ctx context.Context, id string) (*activity.Activity, error) {
	return getActivity(ctx, r.db, id)
}

func getActivity(ctx context.Context, q querier, id string) (*activity.Activity, error) {
	query, args := builder().
		Select(activityColumns...).
		From(builder().Table(activitiesTable)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := scanActivity(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get activity %s: %w", id, err)
	}
	return a, nil
}

// CreateActivity inserts a unless the ID is taken, then returns the stored
// row and whether this call inserted it. Concurrent creators all observe
// the first insert.
func (r *ActivityRepo) CreateActivity(ctx context.Context, a *activity.Activity) (*activity.Activity, bool, error) {
	math, err := json.Marshal(a.MathQuestions)
	if err != nil {
		return nil, false, fmt.Errorf("encode math questions: %w", err)
	}
	reading, err := json.Marshal(a.ReadingQuestions)
	if err != nil {
		return nil, false, fmt.Errorf("encode reading questions: %w", err)
	}
	level, err := a.Difficulty.MarshalText()
	if err != nil {
		return nil, false, err
	}

	now := formatTime(time.Now())
	created := formatTime(a.CreatedAt)
	if a.CreatedAt.IsZero() {
		created = now
	}

	query, args := builder().
		Insert(activitiesTable).
		Columns("id", "child_id", "date", "difficulty", "math_questions", "reading_passage",
			"reading_questions", "status", "created_at", "updated_at").
		Values(a.ID, a.ChildID, a.Date, string(level), string(math), a.ReadingPassage,
			string(reading), string(a.Status), created, now).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("insert activity %s: %w", a.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert activity %s: %w", a.ID, err)
	}
	stored, err := getActivity(ctx, r.db, a.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, n == 1, nil
}

const claimsTable = "generation_claims"

// ClaimGeneration takes the generation claim on id for owner. Each step is
// a single statement, so SQLite's busy timeout serialises competing
// processes and the primary key lets exactly one insert win.
func (r *ActivityRepo) ClaimGeneration(ctx context.Context, id, owner string, now time.Time, ttl time.Duration) (bool, error) {
	query, args := builder().
		Delete(claimsTable).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.LT("claimed_at", now.Add(-ttl).UnixNano()),
		)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return false, fmt.Errorf("expire claim on %s: %w", id, err)
	}

	query, args = builder().
		Insert(claimsTable).
		Columns("id", "owner", "claimed_at").
		Values(id, owner, now.UnixNano()).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", id, err)
	}
	return n == 1, nil
}

func (r *ActivityRepo) ReleaseGeneration(ctx context.Context, id, owner string) error {
	query, args := builder().
		Delete(claimsTable).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner", owner))).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("release claim on %s: %w", id, err)
	}
	return nil
}

// UpdateActivityStatus never changes the status of a graded activity.
func (r *ActivityRepo) UpdateActivityStatus(ctx context.Context, id string, status activity.Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}

	query, args := builder().
		Update(activitiesTable).
		Set("status", string(status)).
		Set("updated_at", formatTime(time.Now())).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.NEQ("status", string(activity.StatusGraded)),
		)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update activity %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// Nothing changed: either missing or already graded.
	_, err = getActivity(ctx, r.db, id)
	return err
}

// UpdateActivityScore writes only the status and score columns.
func (r *ActivityRepo) UpdateActivityScore(ctx context.Context, id string, score activity.Score) error {
	query, args := builder().
		Update(activitiesTable).
		Set("status", string(activity.StatusGraded)).
		Set("score_math", score.Math).
		Set("score_reading", score.Reading).
		Set("score_overall", score.Overall).
		Set("updated_at", formatTime(time.Now())).
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update activity %s score: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("activity %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *ActivityRepo) ListActivities(ctx context.Context, childID string) ([]activity.Activity, error) {
	query, args := builder().
		Select(activityColumns...).
		From(builder().Table(activitiesTable)).
		Where(entsql.EQ("child_id", childID)).
		OrderBy(entsql.Desc("date")).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities for %s: %w", childID, err)
	}
	defer rows.Close()

	var out []activity.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanActivity(s scanner) (*activity.Activity, error) {
	var (
		a                  activity.Activity
		level, status      string
		math, reading      string
		created            string
		sMath, sRead, sAll sql.NullFloat64
	)
	err := s.Scan(&a.ID, &a.ChildID, &a.Date, &level, &math, &a.ReadingPassage, &reading,
		&status, &sMath, &sRead, &sAll, &created)
	if err != nil {
		return nil, err
	}

	if a.Difficulty, err = difficulty.ParseLevel(level); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(math), &a.MathQuestions); err != nil {
		return nil, fmt.Errorf("decode math questions of %s: %w", a.ID, err)
	}
	if err := json.Unmarshal([]byte(reading), &a.ReadingQuestions); err != nil {
		return nil, fmt.Errorf("decode reading questions of %s: %w", a.ID, err)
	}
	if a.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}

	a.Status = activity.Status(status)
	if a.Status == activity.StatusGraded && sAll.Valid {
		a.Score = &activity.Score{Math: sMath.Float64, Reading: sRead.Float64, Overall: sAll.Float64}
	}
	return &a, nil
}
