package store

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/spelling"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9]+`)

// openTestStore opens a private in-memory database per test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + unsafeName.ReplaceAllString(t.Name(), "_") + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_MigratesAndAppliesPragmas(t *testing.T) {
	s := openTestStore(t)

	for _, tt := range []struct{ pragma, want string }{
		{"foreign_keys", "1"},
		{"synchronous", "1"},
		{"busy_timeout", "5000"},
	} {
		var got string
		require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got))
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}

	var tables int
	require.NoError(t, s.DB().QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('activities', 'parents', 'llm_request_events', 'generation_claims')`,
	).Scan(&tables))
	assert.Equal(t, 4, tables)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_FileDatabaseReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "studybuddy.db")
	require.NoError(t, EnsureDir(path))

	s, err := Open(path)
	require.NoError(t, err)
	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err, "migrations are idempotent")
	require.NoError(t, s.Close())
}

func TestDefaultDBPath_Env(t *testing.T) {
	want := filepath.Join(t.TempDir(), "x", "db.sqlite")
	t.Setenv("STUDYBUDDY_DB", want)

	got, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.DirExists(t, filepath.Dir(want))
}

func newActivity(childID, date string) *activity.Activity {
	return &activity.Activity{
		ID:               activity.ID(childID, date),
		ChildID:          childID,
		Date:             date,
		Difficulty:       difficulty.Medium,
		MathQuestions:    []content.Question{{Question: "3+4?", Answer: "7"}, {Question: "9-2?", Answer: "7"}},
		ReadingPassage:   "Tom ran home.",
		ReadingQuestions: []content.Question{{Question: "Who ran?", Answer: "Tom"}},
		Status:           activity.StatusPending,
		CreatedAt:        time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

func TestActivityRepo_CreateAndGet(t *testing.T) {
	repo := openTestStore(t).ActivityRepo()
	ctx := context.Background()

	in := newActivity("kid", "2026-03-01")
	stored, inserted, err := repo.CreateActivity(ctx, in)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, in, stored)

	got, err := repo.GetActivity(ctx, in.ID)
	require.NoError(t, err)
	assert.Equal(t, in, got)

	_, err = repo.GetActivity(ctx, "kid_1999-01-01")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActivityRepo_CreateKeepsFirstWriter(t *testing.T) {
	repo := openTestStore(t).ActivityRepo()
	ctx := context.Background()

	first := newActivity("kid", "2026-03-01")
	_, _, err := repo.CreateActivity(ctx, first)
	require.NoError(t, err)

	second := newActivity("kid", "2026-03-01")
	second.ReadingPassage = "A different story."
	stored, inserted, err := repo.CreateActivity(ctx, second)
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, "Tom ran home.", stored.ReadingPassage)
	all, err := repo.ListActivities(ctx, "kid")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestActivityRepo_StatusAndScore(t *testing.T) {
	repo := openTestStore(t).ActivityRepo()
	ctx := context.Background()
	a, _, err := repo.CreateActivity(ctx, newActivity("kid", "2026-03-01"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateActivityStatus(ctx, a.ID, activity.StatusViewed))
	got, err := repo.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, activity.StatusViewed, got.Status)
	assert.Nil(t, got.Score)

	score := activity.Score{Math: 50, Reading: 100, Overall: 75}
	require.NoError(t, repo.UpdateActivityScore(ctx, a.ID, score))

	// Graded is terminal for status updates.
	require.NoError(t, repo.UpdateActivityStatus(ctx, a.ID, activity.StatusPending))
	got, err = repo.GetActivity(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, activity.StatusGraded, got.Status)
	assert.Equal(t, &score, got.Score)
	assert.Equal(t, a.MathQuestions, got.MathQuestions, "score update leaves content alone")

	assert.ErrorIs(t, repo.UpdateActivityStatus(ctx, "ghost", activity.StatusViewed), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateActivityScore(ctx, "ghost", score), ErrNotFound)
	assert.Error(t, repo.UpdateActivityStatus(ctx, a.ID, activity.Status("archived")))
}

func TestActivityRepo_ListActivities(t *testing.T) {
	repo := openTestStore(t).ActivityRepo()
	ctx := context.Background()
	for _, a := range []*activity.Activity{
		newActivity("kid", "2026-03-01"),
		newActivity("kid", "2026-03-03"),
		newActivity("sib", "2026-03-02"),
	} {
		_, _, err := repo.CreateActivity(ctx, a)
		require.NoError(t, err)
	}

	got, err := repo.ListActivities(ctx, "kid")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2026-03-03", got[0].Date)

	none, err := repo.ListActivities(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

type countingSource struct {
	mu    sync.Mutex
	calls int
}

func (c *countingSource) GenerateDailyContent(context.Context, string, difficulty.Level) (*content.DailyContent, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	return &content.DailyContent{
		MathQuestions:    []content.Question{{Question: "1+1", Answer: "2"}},
		ReadingPassage:   "Hi.",
		ReadingQuestions: []content.Question{{Question: "Hi?", Answer: "Hi"}},
	}, nil
}

func (c *countingSource) GenerateSpellingWords(context.Context, string, difficulty.Level) ([]string, error) {
	return []string{"cat"}, nil
}

func TestActivityRepo_GenerationClaims(t *testing.T) {
	repo := openTestStore(t).ActivityRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	const ttl = 5 * time.Minute

	ok, err := repo.ClaimGeneration(ctx, "kid_2026-03-01", "a", now, ttl)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ClaimGeneration(ctx, "kid_2026-03-01", "b", now.Add(time.Minute), ttl)
	require.NoError(t, err)
	assert.False(t, ok, "claim is held")

	ok, err = repo.ClaimGeneration(ctx, "sib_2026-03-01", "b", now, ttl)
	require.NoError(t, err)
	assert.True(t, ok, "claims are per activity")

	require.NoError(t, repo.ReleaseGeneration(ctx, "kid_2026-03-01", "b"))
	ok, err = repo.ClaimGeneration(ctx, "kid_2026-03-01", "b", now.Add(time.Minute), ttl)
	require.NoError(t, err)
	assert.False(t, ok, "only the owner can release")

	ok, err = repo.ClaimGeneration(ctx, "kid_2026-03-01", "b", now.Add(10*time.Minute), ttl)
	require.NoError(t, err)
	assert.True(t, ok, "an abandoned claim is replaced")

	require.NoError(t, repo.ReleaseGeneration(ctx, "kid_2026-03-01", "b"))
	ok, err = repo.ClaimGeneration(ctx, "kid_2026-03-01", "c", now.Add(11*time.Minute), ttl)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManagerOverStore_ConcurrentGetOrCreate(t *testing.T) {
	// Two handles on one file stand in for two processes, such as the
	// API server and the CLI, sharing the database.
	path := filepath.Join(t.TempDir(), "shared.db")
	var managers []*activity.Manager
	var repo *ActivityRepo
	src := &countingSource{}
	for range 2 {
		s, err := Open(path)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		repo = s.ActivityRepo()
		managers = append(managers, activity.NewManager(s.ActivityRepo(), src, activity.Options{
			ClaimPoll: 5 * time.Millisecond,
		}))
	}

	var wg sync.WaitGroup
	results := make([]*activity.Activity, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a, err := managers[i%2].GetOrCreateToday(context.Background(), activity.Learner{ChildID: "kid", Grade: "1"})
			assert.NoError(t, err)
			results[i] = a
		}()
	}
	wg.Wait()

	all, err := repo.ListActivities(context.Background(), "kid")
	require.NoError(t, err)
	require.Len(t, all, 1)
	for _, a := range results {
		require.NotNil(t, a)
		assert.Equal(t, all[0].CreatedAt, a.CreatedAt)
	}
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Equal(t, 1, src.calls, "content is generated once per child per day")
}

func TestParentRepo_CreateGetMutate(t *testing.T) {
	repo := openTestStore(t).ParentRepo()
	ctx := context.Background()

	p, err := repo.CreateParent(ctx, &family.Parent{ID: "p1", Username: "sam", Email: "sam@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.Version)
	assert.Empty(t, p.Children)

	again, err := repo.CreateParent(ctx, &family.Parent{ID: "p1", Username: "changed"})
	require.NoError(t, err)
	assert.Equal(t, "sam", again.Username)

	ts := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	updated, err := repo.MutateParent(ctx, "p1", func(p *family.Parent) error {
		p.Children = append(p.Children, family.Child{
			ID: "c1", Name: "Ada", GradeLevel: "2", Avatar: "emoji-robot",
			SpellingProgress: []spelling.Result{{Words: []string{"cat"}, Score: 100, Timestamp: ts}},
		})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)

	got, err := repo.GetParent(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, updated, got)
	assert.Equal(t, ts, got.Children[0].SpellingProgress[0].Timestamp)

	_, err = repo.GetParent(ctx, "nobody")
	assert.ErrorIs(t, err, family.ErrParentNotFound)
	_, err = repo.MutateParent(ctx, "nobody", func(*family.Parent) error { return nil })
	assert.ErrorIs(t, err, family.ErrParentNotFound)
}

func TestParentRepo_StaleWriteConflicts(t *testing.T) {
	s := openTestStore(t)
	repo := s.ParentRepo()
	ctx := context.Background()

	stale, err := repo.CreateParent(ctx, &family.Parent{ID: "p1", Username: "sam"})
	require.NoError(t, err)

	_, err = repo.MutateParent(ctx, "p1", func(p *family.Parent) error {
		p.Children = append(p.Children, family.Child{ID: "c1", Name: "Ada", GradeLevel: "1"})
		return nil
	})
	require.NoError(t, err)

	// A writer that read before the mutation must not clobber it.
	stale.Children = append(stale.Children, family.Child{ID: "c2", Name: "Ben", GradeLevel: "3"})
	err = updateParent(ctx, s.DB(), stale)
	assert.ErrorIs(t, err, ErrPersistenceConflict)

	got, err := repo.GetParent(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got.Children, 1)
	assert.Equal(t, "Ada", got.Children[0].Name)
}

func TestParentRepo_MutatorErrorAbortsWrite(t *testing.T) {
	repo := openTestStore(t).ParentRepo()
	ctx := context.Background()
	_, err := repo.CreateParent(ctx, &family.Parent{ID: "p1", Username: "sam"})
	require.NoError(t, err)

	_, err = repo.MutateParent(ctx, "p1", func(p *family.Parent) error {
		p.Username = "changed"
		return family.ErrChildNotFound
	})
	assert.ErrorIs(t, err, family.ErrChildNotFound)

	got, err := repo.GetParent(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "sam", got.Username)
	assert.Equal(t, int64(1), got.Version)
}

func TestFamilyServiceOverStore(t *testing.T) {
	svc := family.NewService(openTestStore(t).ParentRepo(), family.Options{})
	ctx := context.Background()

	_, err := svc.EnsureParent(ctx, family.NewParent{ID: "p1", Username: "sam"})
	require.NoError(t, err)
	c, err := svc.AddChild(ctx, "p1", family.NewChild{Name: "Ada", GradeLevel: "2"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 6 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.SaveSpellingResult(ctx, "p1", c.ID, spelling.Result{
				Words: []string{"cat"}, Score: float64(i * 10), Timestamp: time.Now().UTC(),
			}))
		}()
	}
	wg.Wait()

	progress, err := svc.SpellingProgress(ctx, "p1", c.ID)
	require.NoError(t, err)
	assert.Len(t, progress, 6)
}

func TestEventRepo(t *testing.T) {
	repo := openTestStore(t).EventRepo()
	ctx := context.Background()

	for _, ev := range []llm.RequestEvent{
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "daily-content", InputTokens: 100, OutputTokens: 400, LatencyMs: 900, Success: true, RequestBody: "[user]\nhi", ResponseBody: "{}"},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "spelling-words", InputTokens: 20, OutputTokens: 30, LatencyMs: 100, Success: true},
		{Provider: "gemini", Model: "gemini-2.0-flash", Purpose: "daily-content", InputTokens: 100, LatencyMs: 1100, Success: false, ErrorMessage: "rate limited"},
	} {
		require.NoError(t, repo.AppendLLMRequest(ctx, ev))
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "rate limited", events[0].ErrorMessage, "newest first")
	assert.False(t, events[0].Success)

	limited, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 1, Purpose: "spelling-words"})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 20, limited[0].InputTokens)

	first, err := repo.GetLLMEvent(ctx, events[2].ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "[user]\nhi", first.RequestBody)
	assert.WithinDuration(t, time.Now(), first.Timestamp, time.Minute)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, LLMUsage{Key: "daily-content", Calls: 2, InputTokens: 200, OutputTokens: 400, AvgLatencyMs: 1000}, byPurpose[0])

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1)
	assert.Equal(t, 3, byModel[0].Calls)
}
