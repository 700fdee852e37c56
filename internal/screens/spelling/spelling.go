// Package spelling is the terminal screen for spoken spelling practice.
package spelling

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/router"
	spell "github.com/abhisek/studybuddy/internal/spelling"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
)

// StartFunc begins a session. caption receives everything the speaker says
// so the screen can show it.
type StartFunc func(ctx context.Context, caption func(string)) (*spell.Session, error)

// Answers accepts typed answers while the session is listening.
type Answers interface {
	Submit(text string) error
	Listening() bool
}

// Screen drives one spelling session.
type Screen struct {
	start   StartFunc
	answers Answers

	session  *spell.Session
	snap     spell.Snapshot
	captions chan string
	quit     chan struct{}
	caption  string
	input    components.TextInput
	errMsg   string
	closed   bool
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)
var _ router.Closer = (*Screen)(nil)

// New creates a Screen. The session starts when the screen is shown.
func New(start StartFunc, answers Answers) *Screen {
	return &Screen{
		start:    start,
		answers:  answers,
		captions: make(chan string, 4),
		quit:     make(chan struct{}),
		input:    components.NewTextInput("Spell the word...", components.LettersOnly, 40),
	}
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.startSession(), s.waitCaption())
}

func (s *Screen) Title() string {
	return "Spelling Practice"
}

// Close ends a running session without saving it.
func (s *Screen) Close() {
	select {
	case <-s.quit:
		return
	default:
		close(s.quit)
	}
	if s.session != nil {
		s.session.End()
	}
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.errMsg != "":
		return []layout.KeyHint{{Key: "any key", Description: "Back"}}
	case s.session == nil:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	switch s.snap.Status {
	case spell.StatusIdle:
		return []layout.KeyHint{
			{Key: "H", Description: "Hear word"},
			{Key: "Enter", Description: "Answer"},
			{Key: "Esc", Description: "Stop"},
		}
	case spell.StatusListening:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Submit"},
			{Key: "Esc", Description: "Stop"},
		}
	case spell.StatusFinished:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Practice again"},
			{Key: "Esc", Description: "Back"},
		}
	}
	return []layout.KeyHint{{Key: "Esc", Description: "Stop"}}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sessionStartedMsg:
		if msg.Err != nil {
			s.errMsg = startError(msg.Err)
			return s, nil
		}
		select {
		case <-s.quit:
			msg.Session.End()
			return s, nil
		default:
		}
		s.session = msg.Session
		s.snap = msg.Session.Snapshot()
		return s, waitSnapshot(msg.Session.Updates())

	case snapshotMsg:
		prev := s.snap.Status
		s.snap = msg.Snapshot
		var cmd tea.Cmd
		if s.snap.Status == spell.StatusListening && prev != spell.StatusListening {
			s.input.Reset()
			cmd = s.input.Init()
		}
		return s, tea.Batch(cmd, waitSnapshot(s.session.Updates()))

	case sessionClosedMsg:
		s.closed = true
		if s.session != nil {
			s.snap = s.session.Snapshot()
		}
		return s, nil

	case captionMsg:
		s.caption = string(msg)
		return s, s.waitCaption()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.snap.Status == spell.StatusListening {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (router.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if s.session == nil {
		return s, nil
	}

	switch s.snap.Status {
	case spell.StatusIdle:
		switch key {
		case "h", "space":
			s.caption = ""
			s.session.HearWord()
		case "enter", "l":
			s.session.StartListening()
		}

	case spell.StatusListening:
		if key == "enter" {
			if s.input.Value() == "" {
				return s, nil
			}
			// The recognizer may already have given up on this listen.
			_ = s.answers.Submit(s.input.Value())
			s.input.Reset()
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case spell.StatusFinished:
		if key == "enter" {
			next := New(s.start, s.answers)
			return s, func() tea.Msg { return router.ReplaceScreenMsg{Screen: next} }
		}
	}
	return s, nil
}

// startSession runs the blocking word fetch off the UI loop.
func (s *Screen) startSession() tea.Cmd {
	captions := s.captions
	return func() tea.Msg {
		sess, err := s.start(context.Background(), func(text string) {
			select {
			case captions <- text:
			default:
			}
		})
		return sessionStartedMsg{Session: sess, Err: err}
	}
}

func waitSnapshot(updates <-chan spell.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return sessionClosedMsg{}
		}
		return snapshotMsg{Snapshot: snap}
	}
}

func (s *Screen) waitCaption() tea.Cmd {
	captions, quit := s.captions, s.quit
	return func() tea.Msg {
		select {
		case text := <-captions:
			return captionMsg(text)
		case <-quit:
			return nil
		}
	}
}

func startError(err error) string {
	if errors.Is(err, spell.ErrUnsupportedEnvironment) {
		return "Spelling practice needs speech, which isn't available here."
	}
	return "Couldn't get a word list right now. Please try again later."
}
