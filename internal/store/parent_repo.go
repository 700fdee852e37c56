package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/studybuddy/internal/family"
)

const parentsTable = "parents"

// ParentRepo implements family.Repo. Children and their spelling history
// live in one JSON column, so every change is a whole-record write guarded
// by the version column.
type ParentRepo struct {
	db *sql.DB
}

var _ family.Repo = (*ParentRepo)(nil)

func (r *ParentRepo) GetParent(ctx context.Context, id string) (*family.Parent, error) {
	return getParent(ctx, r.db, id)
}

func getParent(ctx context.Context, q querier, id string) (*family.Parent, error) {
	query, args := builder().
		Select("id", "username", "email", "children", "version").
		From(builder().Table(parentsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		p        family.Parent
		children string
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.Username, &p.Email, &children, &p.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("parent %s: %w", id, family.ErrParentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get parent %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(children), &p.Children); err != nil {
		return nil, fmt.Errorf("decode children of %s: %w", id, err)
	}
	return &p, nil
}

func (r *ParentRepo) CreateParent(ctx context.Context, p *family.Parent) (*family.Parent, error) {
	children, err := encodeChildren(p.Children)
	if err != nil {
		return nil, err
	}
	now := formatTime(time.Now())

	query, args := builder().
		Insert(parentsTable).
		Columns("id", "username", "email", "children", "version", "created_at", "updated_at").
		Values(p.ID, p.Username, p.Email, children, 1, now, now).
		OnConflict(entsql.ConflictColumns("id"), entsql.DoNothing()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert parent %s: %w", p.ID, err)
	}
	return getParent(ctx, r.db, p.ID)
}

// MutateParent reads the parent, applies mutate and writes the result in
// one transaction. The write only lands if the version is unchanged.
func (r *ParentRepo) MutateParent(ctx context.Context, id string, mutate func(*family.Parent) error) (*family.Parent, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, conflictOr(fmt.Errorf("begin parent update: %w", err))
	}
	defer tx.Rollback()

	p, err := getParent(ctx, tx, id)
	if err != nil {
		return nil, conflictOr(err)
	}
	if err := mutate(p); err != nil {
		return nil, err
	}
	p.ID = id

	if err := updateParent(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, conflictOr(fmt.Errorf("commit parent %s: %w", id, err))
	}
	p.Version++
	return p, nil
}

// updateParent writes p if the stored version still equals p.Version.
func updateParent(ctx context.Context, q querier, p *family.Parent) error {
	children, err := encodeChildren(p.Children)
	if err != nil {
		return err
	}

	query, args := builder().
		Update(parentsTable).
		Set("username", p.Username).
		Set("email", p.Email).
		Set("children", children).
		Add("version", 1).
		Set("updated_at", formatTime(time.Now())).
		Where(entsql.And(
			entsql.EQ("id", p.ID),
			entsql.EQ("version", p.Version),
		)).
		Query()

	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return conflictOr(fmt.Errorf("update parent %s: %w", p.ID, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("parent %s at version %d: %w", p.ID, p.Version, ErrPersistenceConflict)
	}
	return nil
}

func encodeChildren(children []family.Child) (string, error) {
	if children == nil {
		children = []family.Child{}
	}
	b, err := json.Marshal(children)
	if err != nil {
		return "", fmt.Errorf("encode children: %w", err)
	}
	return string(b), nil
}

// conflictOr maps lock contention to ErrPersistenceConflict so callers
// retry it.
func conflictOr(err error) error {
	if isBusy(err) {
		return fmt.Errorf("%w: %v", ErrPersistenceConflict, err)
	}
	return err
}
