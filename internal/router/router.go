// Package router keeps the stack of terminal screens.
package router

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/studybuddy/internal/ui/layout"
)

// Screen is one page of the terminal app.
type Screen interface {
	// Init returns an initial command when the screen is first shown.
	Init() tea.Cmd

	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// Closer is implemented by screens holding work that must stop when they
// leave the stack.
type Closer interface {
	Close()
}

// EscHandler is implemented by screens that sometimes use Esc themselves,
// such as to cancel a form, instead of going back.
type EscHandler interface {
	HandlesEsc() bool
}

// PushScreenMsg requests the router to push a new screen onto the stack.
type PushScreenMsg struct {
	Screen Screen
}

// ReplaceScreenMsg swaps the current screen for a new one.
type ReplaceScreenMsg struct {
	Screen Screen
}

// PopScreenMsg requests the router to pop the current screen off the stack.
type PopScreenMsg struct{}

// Router manages a stack of screens.
type Router struct {
	stack []Screen
}

// New creates a Router showing initial.
func New(initial Screen) *Router {
	return &Router{stack: []Screen{initial}}
}

// Init runs the initial screen's Init.
func (r *Router) Init() tea.Cmd {
	if a := r.Active(); a != nil {
		return a.Init()
	}
	return nil
}

// Push adds a screen on top of the stack and calls its Init().
func (r *Router) Push(s Screen) tea.Cmd {
	r.stack = append(r.stack, s)
	return s.Init()
}

// Pop removes the top screen, closing it. No-op at the bottom of the stack.
func (r *Router) Pop() tea.Cmd {
	if len(r.stack) <= 1 {
		return nil
	}
	top := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	if c, ok := top.(Closer); ok {
		c.Close()
	}
	return nil
}

// Replace swaps the top screen for s, closing the old one.
func (r *Router) Replace(s Screen) tea.Cmd {
	top := r.stack[len(r.stack)-1]
	r.stack[len(r.stack)-1] = s
	if c, ok := top.(Closer); ok {
		c.Close()
	}
	return s.Init()
}

// CloseAll closes every screen on the stack, top first.
func (r *Router) CloseAll() {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if c, ok := r.stack[i].(Closer); ok {
			c.Close()
		}
	}
}

// Active returns the top screen on the stack.
func (r *Router) Active() Screen {
	if len(r.stack) == 0 {
		return nil
	}
	return r.stack[len(r.stack)-1]
}

// Depth returns the number of screens on the stack.
func (r *Router) Depth() int {
	return len(r.stack)
}

// Update forwards a message to the active screen and handles navigation messages.
func (r *Router) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case PushScreenMsg:
		return r.Push(msg.Screen)
	case ReplaceScreenMsg:
		return r.Replace(msg.Screen)
	case PopScreenMsg:
		return r.Pop()
	}

	active := r.Active()
	if active == nil {
		return nil
	}

	updated, cmd := active.Update(msg)
	r.stack[len(r.stack)-1] = updated
	return cmd
}

// View renders the active screen.
func (r *Router) View(width, height int) string {
	active := r.Active()
	if active == nil {
		return ""
	}
	return active.View(width, height)
}
