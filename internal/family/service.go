package family

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/abhisek/studybuddy/internal/metrics"
	"github.com/abhisek/studybuddy/internal/retry"
	"github.com/abhisek/studybuddy/internal/spelling"
)

// NewParent is the profile supplied when a parent signs in.
type NewParent struct {
	ID       string `json:"id" validate:"required,max=128"`
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// NewChild is the input for adding a child profile.
type NewChild struct {
	Name       string `json:"name" validate:"required,max=64"`
	GradeLevel string `json:"gradeLevel" validate:"required,oneof=JK SK 1 2 3 4 5 6 7 8"`
	Avatar     string `json:"avatar" validate:"omitempty,avatar"`
}

// Options configures a Service.
type Options struct {
	// Retry governs re-running writes that lost a race. Zero value uses
	// a short policy suited to local contention.
	Retry   retry.Policy
	Metrics *metrics.Metrics
}

// Service is the entry point for parent and child records.
type Service struct {
	repo     Repo
	policy   retry.Policy
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// NewService creates a Service.
func NewService(repo Repo, opts Options) *Service {
	policy := opts.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.Policy{
			MaxAttempts: 5,
			InitialWait: 5 * time.Millisecond,
			MaxWait:     100 * time.Millisecond,
			Multiplier:  2,
			Jitter:      0.5,
		}
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("avatar", func(fl validator.FieldLevel) bool {
		return slices.Contains(Avatars, fl.Field().String())
	})

	return &Service{repo: repo, policy: policy, metrics: opts.Metrics, validate: v}
}

// EnsureParent returns the parent record, creating it on first sign-in.
func (s *Service) EnsureParent(ctx context.Context, in NewParent) (*Parent, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	p, err := s.repo.CreateParent(ctx, &Parent{ID: in.ID, Username: in.Username, Email: in.Email})
	if err != nil {
		return nil, fmt.Errorf("ensure parent %s: %w", in.ID, err)
	}
	return p, nil
}

// GetParent returns the parent with all children.
func (s *Service) GetParent(ctx context.Context, parentID string) (*Parent, error) {
	p, err := s.repo.GetParent(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent %s: %w", parentID, err)
	}
	return p, nil
}

// Child returns one child of a parent.
func (s *Service) Child(ctx context.Context, parentID, childID string) (*Child, error) {
	p, err := s.GetParent(ctx, parentID)
	if err != nil {
		return nil, err
	}
	c := p.Child(childID)
	if c == nil {
		return nil, childNotFound(parentID, childID)
	}
	return c, nil
}

// AddChild creates a child profile under parentID.
func (s *Service) AddChild(ctx context.Context, parentID string, in NewChild) (*Child, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if in.Avatar == "" {
		in.Avatar = Avatars[0]
	}

	child := Child{
		ID:               uuid.NewString(),
		Name:             in.Name,
		GradeLevel:       in.GradeLevel,
		Avatar:           in.Avatar,
		SpellingProgress: []spelling.Result{},
	}
	err := s.mutate(ctx, parentID, func(p *Parent) error {
		p.Children = append(p.Children, child)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add child to %s: %w", parentID, err)
	}

	slog.InfoContext(ctx, "child added", "parent", parentID, "child", child.ID, "grade", child.GradeLevel)
	return &child, nil
}

// SaveSpellingResult appends r to the child's spelling history.
func (s *Service) SaveSpellingResult(ctx context.Context, parentID, childID string, r spelling.Result) error {
	err := s.mutate(ctx, parentID, func(p *Parent) error {
		c := p.Child(childID)
		if c == nil {
			return childNotFound(parentID, childID)
		}
		c.SpellingProgress = append(c.SpellingProgress, r)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save spelling result: %w", err)
	}
	return nil
}

// SpellingProgress returns the child's results, newest first. A missing
// parent or child has no history.
func (s *Service) SpellingProgress(ctx context.Context, parentID, childID string) ([]spelling.Result, error) {
	c, err := s.Child(ctx, parentID, childID)
	if errors.Is(err, ErrParentNotFound) || errors.Is(err, ErrChildNotFound) {
		return []spelling.Result{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := slices.Clone(c.SpellingProgress)
	slices.SortStableFunc(out, func(a, b spelling.Result) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}

// mutate runs a read-modify-write on the parent, retrying lost races.
func (s *Service) mutate(ctx context.Context, parentID string, fn func(*Parent) error) error {
	return retry.Do(ctx, s.policy, func(ctx context.Context, _ int) error {
		_, err := s.repo.MutateParent(ctx, parentID, fn)
		return err
	},
		retry.If(func(err error) bool { return errors.Is(err, ErrPersistenceConflict) }),
		retry.OnRetry(func(attempt int, err error, wait time.Duration) {
			s.metrics.ParentMutationConflict()
			slog.DebugContext(ctx, "retrying parent update", "parent", parentID, "attempt", attempt+1, "wait", wait)
		}),
	)
}
