// Package welcome shows the splash and asks which child is learning.
package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/family"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	sparkleStart = 500 * time.Millisecond
	pickerStart  = 1500 * time.Millisecond
)

const mascotArt = `  ╭───────────╮
  │  ┌─────┐  │
  │  │ ◉ ◉ │  │
  │  │  ▽  │  │
  │  ├─────┤  │
  │  │ abc │  │
  │  └─────┘  │
  ╰───────────╯`

var sparkleFrames = []string{"★", "✦"}

type tickMsg time.Time

// Screen animates the mascot, then lists the children to pick from.
type Screen struct {
	children []family.Child
	home     func(family.Child) router.Screen

	picker       components.Menu
	elapsed      time.Duration
	tickCount    int
	transitioned bool
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)

// New creates the welcome screen. home builds the screen shown once a
// child is picked.
func New(children []family.Child, home func(family.Child) router.Screen) *Screen {
	w := &Screen{children: children, home: home}

	items := make([]components.MenuItem, len(children))
	for i, c := range children {
		items[i] = components.MenuItem{
			Label:  c.Name + "  (grade " + c.GradeLevel + ")",
			Action: func() tea.Cmd { return w.pick(c) },
		}
	}
	w.picker = components.NewMenu(items)
	return w
}

func (w *Screen) Title() string {
	return ""
}

func (w *Screen) KeyHints() []layout.KeyHint {
	if len(w.children) == 0 {
		return []layout.KeyHint{{Key: "Esc", Description: "Quit"}}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Quit"},
	}
}

func (w *Screen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		w.tickCount++
		if w.elapsed >= pickerStart {
			return w, nil
		}
		w.elapsed += tickInterval
		return w, tick()

	case tea.KeyPressMsg:
		// The first key skips the animation.
		if w.elapsed < pickerStart {
			w.elapsed = pickerStart
			return w, nil
		}
		if len(w.children) == 1 {
			return w, w.pick(w.children[0])
		}
		var cmd tea.Cmd
		w.picker, cmd = w.picker.Update(msg)
		return w, cmd
	}
	return w, nil
}

func (w *Screen) pick(c family.Child) tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.home(c)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *Screen) View(width, height int) string {
	rendered := lipgloss.NewStyle().Foreground(theme.Primary).Render(mascotArt)

	if w.elapsed >= sparkleStart {
		sparkle := sparkleFrames[w.tickCount%len(sparkleFrames)]
		s1 := lipgloss.NewStyle().Foreground(theme.Accent).Render(sparkle)
		s2 := lipgloss.NewStyle().Foreground(theme.Secondary).Render(sparkle)

		lines := strings.Split(rendered, "\n")
		for i, l := range lines {
			switch i {
			case 0, 6:
				lines[i] = s1 + "  " + l + "  " + s2
			case 3:
				lines[i] = s2 + "  " + l + "  " + s1
			default:
				lines[i] = "   " + l + "   "
			}
		}
		rendered = strings.Join(lines, "\n")
	}

	sections := []string{rendered}
	if w.elapsed >= pickerStart {
		sections = append(sections, "", RenderBanner(width), "", w.renderPicker())
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}

func (w *Screen) renderPicker() string {
	switch len(w.children) {
	case 0:
		return theme.Hint.Render("No children yet. Add one with: studybuddy parent add-child")
	case 1:
		return lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
			Render("Hi "+w.children[0].Name+"!") + "\n" + theme.Hint.Render("press any key to start")
	}
	title := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("Who's learning today?")
	return title + "\n\n" + w.picker.View()
}
