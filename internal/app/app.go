// Package app is the root of the terminal UI.
package app

import (
	"context"
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/ui/layout"
)

// Model is the root Bubble Tea model.
type Model struct {
	router  *router.Router
	learner string
	width   int
	height  int
}

// New creates a Model showing initial. learner is shown in the header.
func New(initial router.Screen, learner string) Model {
	return Model{router: router.New(initial), learner: learner}
}

func (m Model) Init() tea.Cmd {
	return m.router.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.router.CloseAll()
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(router.EscHandler); ok && h.HandlesEsc() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			m.router.CloseAll()
			return m, tea.Quit
		}
	}

	return m, m.router.Update(msg)
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}
	header := layout.RenderHeader(title, m.learner, m.width)

	hints := []layout.KeyHint{
		{Key: "Esc", Description: "Back"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
	if p, ok := active.(router.KeyHintProvider); ok {
		if custom := p.KeyHints(); len(custom) > 0 {
			hints = custom
		}
	}
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)

	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the program and blocks until the learner quits or ctx ends.
func Run(ctx context.Context, initial router.Screen, learner string) error {
	m := New(initial, learner)
	p := tea.NewProgram(m, tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		m.router.CloseAll()
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
