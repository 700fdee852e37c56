// Package today shows a child's daily activity and lets a parent grade it.
package today

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
)

// Activities is the part of activity.Manager the screen uses.
type Activities interface {
	GetOrCreateToday(ctx context.Context, l activity.Learner) (*activity.Activity, error)
	MarkViewed(ctx context.Context, activityID string) error
	Grade(ctx context.Context, activityID string, mathCorrect, readingCorrect int) (*activity.Activity, error)
}

type loadedMsg struct {
	Activity *activity.Activity
	Err      error
}

type viewedMsg struct{ Err error }

type gradedMsg struct {
	Activity *activity.Activity
	Err      error
}

type mode int

const (
	modeReading mode = iota
	modeGrading
)

// Screen renders today's activity.
type Screen struct {
	activities Activities
	learner    activity.Learner

	activity    *activity.Activity
	mode        mode
	showAnswers bool
	offset      int

	inputs  [2]components.TextInput
	focused int

	loaded bool
	notice string
	errMsg string
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)

// New creates a Screen for the learner.
func New(activities Activities, learner activity.Learner) *Screen {
	return &Screen{
		activities: activities,
		learner:    learner,
		inputs: [2]components.TextInput{
			components.NewTextInput("0", components.DigitsOnly, 3),
			components.NewTextInput("0", components.DigitsOnly, 3),
		},
	}
}

func (s *Screen) Init() tea.Cmd {
	activities, learner := s.activities, s.learner
	return func() tea.Msg {
		a, err := activities.GetOrCreateToday(context.Background(), learner)
		return loadedMsg{Activity: a, Err: err}
	}
}

func (s *Screen) Title() string {
	return "Today's Activity"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.mode == modeGrading {
		return []layout.KeyHint{
			{Key: "Tab", Description: "Next field"},
			{Key: "Enter", Description: "Save grade"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "D", Description: "Done"},
		{Key: "A", Description: "Answers"},
		{Key: "G", Description: "Grade"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.Err != nil {
			s.errMsg = loadError(msg.Err)
			return s, nil
		}
		s.activity = msg.Activity
		return s, nil

	case viewedMsg:
		if msg.Err != nil {
			s.notice = "Couldn't save that. Try again."
			return s, nil
		}
		if s.activity.Status == activity.StatusPending {
			s.activity.Status = activity.StatusViewed
		}
		s.notice = "Great work! Marked as done."
		return s, nil

	case gradedMsg:
		if msg.Err != nil {
			s.notice = "Couldn't save the grade. Try again."
			return s, nil
		}
		s.activity = msg.Activity
		s.mode = modeReading
		s.notice = fmt.Sprintf("Graded: %.0f%% overall.", msg.Activity.Score.Overall)
		return s, nil

	case tea.KeyMsg:
		if s.activity == nil {
			return s, nil
		}
		if s.mode == modeGrading {
			return s.gradingKey(msg)
		}
		return s.readingKey(msg)
	}
	return s, nil
}

func (s *Screen) readingKey(msg tea.KeyMsg) (router.Screen, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if s.offset > 0 {
			s.offset--
		}
	case "down", "j":
		s.offset++
	case "a":
		s.showAnswers = !s.showAnswers
	case "d":
		id := s.activity.ID
		activities := s.activities
		return s, func() tea.Msg {
			return viewedMsg{Err: activities.MarkViewed(context.Background(), id)}
		}
	case "g":
		s.mode = modeGrading
		s.notice = ""
		s.focused = 0
		for i := range s.inputs {
			s.inputs[i].Reset()
		}
		return s, s.focus(0)
	}
	return s, nil
}

func (s *Screen) gradingKey(msg tea.KeyMsg) (router.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.mode = modeReading
		return s, nil
	case "tab", "down", "up", "shift+tab":
		return s, s.focus(1 - s.focused)
	case "enter":
		return s, s.submitGrade()
	}
	var cmd tea.Cmd
	s.inputs[s.focused], cmd = s.inputs[s.focused].Update(msg)
	return s, cmd
}

// HandlesEsc keeps Esc inside the screen while grading.
func (s *Screen) HandlesEsc() bool {
	return s.mode == modeGrading
}

func (s *Screen) focus(i int) tea.Cmd {
	s.focused = i
	s.inputs[1-i].Model.Blur()
	return s.inputs[i].Model.Focus()
}

func (s *Screen) submitGrade() tea.Cmd {
	math, err := s.inputs[0].NumericValue()
	if err != nil {
		s.notice = "Enter how many math answers were right."
		return s.focus(0)
	}
	reading, err := s.inputs[1].NumericValue()
	if err != nil {
		s.notice = "Enter how many reading answers were right."
		return s.focus(1)
	}
	if math > len(s.activity.MathQuestions) || reading > len(s.activity.ReadingQuestions) {
		s.notice = "That's more than the number of questions."
		return nil
	}

	id := s.activity.ID
	activities := s.activities
	return func() tea.Msg {
		a, err := activities.Grade(context.Background(), id, math, reading)
		return gradedMsg{Activity: a, Err: err}
	}
}
