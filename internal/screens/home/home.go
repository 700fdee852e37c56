// Package home is the learner's starting screen.
package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/spelling"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Source loads the numbers shown in the stats bar.
type Source interface {
	ListCompleted(ctx context.Context, childID string) ([]activity.Activity, error)
	SpellingProgress(ctx context.Context, parentID, childID string) ([]spelling.Result, error)
}

// Screens builds the screens reachable from the menu. A nil entry hides
// its menu item.
type Screens struct {
	Today    func() router.Screen
	Spelling func() router.Screen
	Progress func() router.Screen
}

// Stats summarises recent work.
type Stats struct {
	Completed    int
	LastActivity *float64
	LastSpelling *float64
}

type statsMsg struct {
	Stats Stats
	Err   error
}

// Screen is the home menu.
type Screen struct {
	source            Source
	parentID, childID string
	name              string

	menu   components.Menu
	stats  Stats
	loaded bool
}

var _ router.Screen = (*Screen)(nil)

// New creates the home screen for one child.
func New(source Source, parentID, childID, name string, screens Screens) *Screen {
	push := func(build func() router.Screen) func() tea.Cmd {
		return func() tea.Cmd {
			return func() tea.Msg { return router.PushScreenMsg{Screen: build()} }
		}
	}

	var items []components.MenuItem
	if screens.Today != nil {
		items = append(items, components.MenuItem{Label: "Today's activity", Key: "t", Action: push(screens.Today)})
	}
	if screens.Spelling != nil {
		items = append(items, components.MenuItem{Label: "Spelling practice", Key: "s", Action: push(screens.Spelling)})
	}
	if screens.Progress != nil {
		items = append(items, components.MenuItem{Label: "My progress", Key: "p", Action: push(screens.Progress)})
	}
	items = append(items, components.MenuItem{Label: "Quit", Key: "q", Action: func() tea.Cmd { return tea.Quit }})

	return &Screen{
		source:   source,
		parentID: parentID,
		childID:  childID,
		name:     name,
		menu:     components.NewMenu(items),
	}
}

func (h *Screen) Init() tea.Cmd {
	return h.loadStats()
}

func (h *Screen) loadStats() tea.Cmd {
	if h.source == nil {
		return nil
	}
	return func() tea.Msg {
		ctx := context.Background()
		acts, err := h.source.ListCompleted(ctx, h.childID)
		if err != nil {
			return statsMsg{Err: err}
		}
		results, err := h.source.SpellingProgress(ctx, h.parentID, h.childID)
		if err != nil {
			return statsMsg{Err: err}
		}
		return statsMsg{Stats: Summarize(acts, results)}
	}
}

// Summarize computes Stats from completed activities and spelling
// results, both newest first.
func Summarize(acts []activity.Activity, results []spelling.Result) Stats {
	st := Stats{Completed: len(acts)}
	for _, a := range acts {
		if a.Score != nil {
			v := a.Score.Overall
			st.LastActivity = &v
			break
		}
	}
	if len(results) > 0 {
		v := results[0].Score
		st.LastSpelling = &v
	}
	return st
}

func (h *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case statsMsg:
		// Stats are decoration; the menu works without them.
		if msg.Err == nil {
			h.stats = msg.Stats
			h.loaded = true
		}
		return h, nil
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

// Mascot picks the mascot for the current stats.
func (h *Screen) Mascot() MascotVariant {
	for _, v := range []*float64{h.stats.LastActivity, h.stats.LastSpelling} {
		if v != nil && *v >= 80 {
			return MascotCelebrating
		}
	}
	return MascotIdle
}

func (h *Screen) View(width, height int) string {
	cw := min(max(width-6, 20), 60)
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var sections []string
	sections = append(sections, theme.Title.Width(cw).Render(fmt.Sprintf("Hi %s!", h.name)))
	if height >= 22 {
		sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Render(RenderMascot(h.Mascot())))
	}
	if h.loaded {
		sections = append(sections, h.renderStats(cw))
	}
	sections = append(sections, theme.Card.Width(cw).Render(strings.TrimRight(h.menu.View(), "\n")))

	return center.Render("\n" + strings.Join(sections, "\n\n"))
}

func (h *Screen) renderStats(cw int) string {
	score := func(label string, v *float64) string {
		if v == nil {
			return theme.Hint.Render(label + " –")
		}
		return lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(fmt.Sprintf("%s %.0f%%", label, *v))
	}
	stats := fmt.Sprintf("%s  %s  %s",
		lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(fmt.Sprintf("★ %d done", h.stats.Completed)),
		score("last activity", h.stats.LastActivity),
		score("last spelling", h.stats.LastSpelling),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(stats)
}

func (h *Screen) Title() string {
	return "Home"
}
