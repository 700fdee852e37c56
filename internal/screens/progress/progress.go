// Package progress lists a child's completed activities and spelling
// results.
package progress

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/router"
	"github.com/abhisek/studybuddy/internal/spelling"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// Source loads the records shown on the screen.
type Source interface {
	ListCompleted(ctx context.Context, childID string) ([]activity.Activity, error)
	SpellingProgress(ctx context.Context, parentID, childID string) ([]spelling.Result, error)
}

type tab int

const (
	tabActivities tab = iota
	tabSpelling
)

type loadedMsg struct {
	Activities []activity.Activity
	Spelling   []spelling.Result
	Err        error
}

// Screen shows past work, one tab per kind.
type Screen struct {
	source            Source
	parentID, childID string

	activities []activity.Activity
	spelling   []spelling.Result
	tab        tab
	selected   int
	expanded   map[int]bool
	loaded     bool
	errMsg     string
}

var _ router.Screen = (*Screen)(nil)
var _ router.KeyHintProvider = (*Screen)(nil)

// New creates a Screen for one child.
func New(source Source, parentID, childID string) *Screen {
	return &Screen{
		source:   source,
		parentID: parentID,
		childID:  childID,
		expanded: make(map[int]bool),
	}
}

func (s *Screen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		acts, err := s.source.ListCompleted(ctx, s.childID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		results, err := s.source.SpellingProgress(ctx, s.parentID, s.childID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Activities: acts, Spelling: results}
	}
}

func (s *Screen) Title() string {
	return "Progress"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Switch"},
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (router.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.activities = msg.Activities
			s.spelling = msg.Spelling
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "left", "right":
			s.tab = 1 - s.tab
			s.selected = 0
			clear(s.expanded)
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < s.rows()-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *Screen) rows() int {
	if s.tab == tabSpelling {
		return len(s.spelling)
	}
	return len(s.activities)
}

func (s *Screen) View(width, height int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), "Error: "+s.errMsg)
	}
	if !s.loaded {
		return layout.Centered(width, dim, "Loading progress...")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTabs()))
	b.WriteString("\n\n")

	if s.rows() == 0 {
		msg := "No finished activities yet."
		if s.tab == tabSpelling {
			msg = "No spelling practice yet."
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, dim.Italic(true).Render(msg)))
		return b.String()
	}

	if s.tab == tabSpelling {
		s.renderSpelling(&b, width)
	} else {
		s.renderActivities(&b, width)
	}
	return b.String()
}

func (s *Screen) renderTabs() string {
	on := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Underline(true)
	off := lipgloss.NewStyle().Foreground(theme.TextDim)
	acts, spell := on, off
	if s.tab == tabSpelling {
		acts, spell = off, on
	}
	return acts.Render("Activities") + "    " + spell.Render("Spelling")
}

func (s *Screen) renderActivities(b *strings.Builder, width int) {
	for i, a := range s.activities {
		score := "not graded"
		scoreColor := theme.TextDim
		if a.Score != nil {
			score = fmt.Sprintf("%.0f%%", a.Score.Overall)
			scoreColor = scoreTint(a.Score.Overall)
		}
		line := fmt.Sprintf("%s  %-6s  %s", a.Date, a.Difficulty, lipgloss.NewStyle().Foreground(scoreColor).Render(score))
		s.writeRow(b, i, line, width)

		if s.expanded[i] && a.Score != nil {
			detail := fmt.Sprintf("    math %.0f%%  reading %.0f%%", a.Score.Math, a.Score.Reading)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Hint.Render(detail)))
			b.WriteString("\n")
		}
	}
}

func (s *Screen) renderSpelling(b *strings.Builder, width int) {
	for i, r := range s.spelling {
		line := fmt.Sprintf("%s  %2d words  %s",
			r.Timestamp.Local().Format("Jan 02, 2006 15:04"), len(r.Words),
			lipgloss.NewStyle().Foreground(scoreTint(r.Score)).Render(fmt.Sprintf("%.0f%%", r.Score)))
		s.writeRow(b, i, line, width)

		if s.expanded[i] {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				theme.Hint.Width(min(width-8, 70)).Render(strings.Join(r.Words, ", "))))
			b.WriteString("\n")
		}
	}
}

func (s *Screen) writeRow(b *strings.Builder, i int, line string, width int) {
	prefix := "  "
	style := lipgloss.NewStyle().Foreground(theme.Text)
	if i == s.selected {
		prefix = "> "
		style = style.Foreground(theme.Primary).Bold(true)
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, style.Render(prefix)+line))
	b.WriteString("\n")
}

func scoreTint(score float64) color.Color {
	switch {
	case score >= 80:
		return theme.Success
	case score >= 50:
		return theme.Accent
	}
	return theme.Error
}
