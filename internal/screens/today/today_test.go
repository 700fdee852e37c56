package today

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/difficulty"
)

type fakeActivities struct {
	act      *activity.Activity
	loadErr  error
	viewed   []string
	graded   [][2]int
	gradeErr error
}

func (f *fakeActivities) GetOrCreateToday(context.Context, activity.Learner) (*activity.Activity, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.act.Clone(), nil
}

func (f *fakeActivities) MarkViewed(_ context.Context, id string) error {
	f.viewed = append(f.viewed, id)
	return nil
}

func (f *fakeActivities) Grade(_ context.Context, id string, math, reading int) (*activity.Activity, error) {
	if f.gradeErr != nil {
		return nil, f.gradeErr
	}
	f.graded = append(f.graded, [2]int{math, reading})
	a := f.act.Clone()
	s := activity.ComputeScore(len(a.MathQuestions), len(a.ReadingQuestions), math, reading)
	a.Status = activity.StatusGraded
	a.Score = &s
	return a, nil
}

func sampleActivity() *activity.Activity {
	return &activity.Activity{
		ID:         "c1_2026-10-18",
		ChildID:    "c1",
		Date:       "2026-10-18",
		Difficulty: difficulty.Medium,
		MathQuestions: []content.Question{
			{Question: "What is 2 + 3?", Answer: "5"},
			{Question: "What is 4 x 2?", Answer: "8"},
		},
		ReadingPassage: "Sam has a red kite.",
		ReadingQuestions: []content.Question{
			{Question: "What colour is the kite?", Answer: "Red"},
		},
		Status: activity.StatusPending,
	}
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// run executes cmd and feeds its message back into the screen.
func run(s *Screen, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		s.Update(msg)
	}
}

func loadedScreen(t *testing.T, f *fakeActivities) *Screen {
	t.Helper()
	s := New(f, activity.Learner{ChildID: "c1", Grade: "2"})
	run(s, s.Init())
	return s
}

func TestShowsActivity(t *testing.T) {
	s := loadedScreen(t, &fakeActivities{act: sampleActivity()})
	view := s.View(100, 40)

	for _, want := range []string{"What is 2 + 3?", "Sam has a red kite.", "What colour is the kite?", "to do"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(view, "→ 5") {
		t.Error("answers should be hidden by default")
	}

	s.Update(keyPress('a'))
	if !strings.Contains(s.View(100, 40), "→ 5") {
		t.Error("expected answers after pressing A")
	}
}

func TestLoadFailure(t *testing.T) {
	f := &fakeActivities{loadErr: &content.GenerationError{Op: "generate", Err: errors.New("boom")}}
	s := loadedScreen(t, f)

	if !strings.Contains(s.View(100, 40), "Couldn't make today's activity") {
		t.Errorf("expected generation message, got:\n%s", s.View(100, 40))
	}

	busy := loadedScreen(t, &fakeActivities{loadErr: fmt.Errorf("activity x: %w", activity.ErrGenerationInProgress)})
	if !strings.Contains(busy.View(100, 40), "still being made") {
		t.Errorf("expected in-progress message, got:\n%s", busy.View(100, 40))
	}
}

func TestMarkDone(t *testing.T) {
	f := &fakeActivities{act: sampleActivity()}
	s := loadedScreen(t, f)

	_, cmd := s.Update(keyPress('d'))
	run(s, cmd)

	if len(f.viewed) != 1 || f.viewed[0] != "c1_2026-10-18" {
		t.Fatalf("viewed = %v", f.viewed)
	}
	if s.activity.Status != activity.StatusViewed {
		t.Errorf("status = %s, want viewed", s.activity.Status)
	}
	if !strings.Contains(s.View(100, 40), "Marked as done") {
		t.Error("expected confirmation notice")
	}
}

func TestGrade(t *testing.T) {
	f := &fakeActivities{act: sampleActivity()}
	s := loadedScreen(t, f)

	s.Update(keyPress('g'))
	if !s.HandlesEsc() {
		t.Fatal("grading form should keep Esc")
	}
	s.Update(keyPress('1'))
	s.Update(specialKey(tea.KeyTab))
	s.Update(keyPress('x')) // ignored by the digit filter
	s.Update(keyPress('1'))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	run(s, cmd)

	if len(f.graded) != 1 || f.graded[0] != [2]int{1, 1} {
		t.Fatalf("graded = %v", f.graded)
	}
	if s.mode != modeReading {
		t.Error("expected to leave the grading form")
	}
	// Math 50%, reading 100%.
	if !strings.Contains(s.View(100, 40), "75% overall") {
		t.Errorf("expected overall score notice:\n%s", s.View(100, 40))
	}
}

func TestGradeRejectsTooMany(t *testing.T) {
	f := &fakeActivities{act: sampleActivity()}
	s := loadedScreen(t, f)

	s.Update(keyPress('g'))
	s.Update(keyPress('5'))
	s.Update(specialKey(tea.KeyTab))
	s.Update(keyPress('0'))
	_, cmd := s.Update(specialKey(tea.KeyEnter))
	run(s, cmd)

	if len(f.graded) != 0 {
		t.Errorf("grade should not be saved, got %v", f.graded)
	}
	if !strings.Contains(s.View(100, 40), "more than the number of questions") {
		t.Error("expected range message")
	}
}

func TestGradeCancel(t *testing.T) {
	s := loadedScreen(t, &fakeActivities{act: sampleActivity()})

	s.Update(keyPress('g'))
	s.Update(specialKey(tea.KeyEscape))
	if s.mode != modeReading || s.HandlesEsc() {
		t.Error("Esc should cancel grading")
	}
}
