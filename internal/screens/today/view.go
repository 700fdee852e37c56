package today

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/activity"
	"github.com/abhisek/studybuddy/internal/content"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), s.errMsg)
	}
	if !s.loaded {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Preparing today's activity...")
	}
	if s.mode == modeGrading {
		return s.renderGrading(width)
	}

	lines := strings.Split(s.renderActivity(min(width-4, 90)), "\n")
	// Keep the notice line visible below the scrolled body.
	visible := max(height-2, 1)
	s.offset = min(s.offset, max(len(lines)-visible, 0))
	end := min(s.offset+visible, len(lines))

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().PaddingLeft(2).Render(strings.Join(lines[s.offset:end], "\n")))
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render(theme.Hint.Render(s.notice)))
	}
	return b.String()
}

func (s *Screen) renderActivity(width int) string {
	a := s.activity
	var b strings.Builder

	b.WriteString(theme.Title.Render(fmt.Sprintf("%s · %s", a.Date, a.Difficulty)))
	b.WriteString("  ")
	b.WriteString(statusBadge(a))
	b.WriteString("\n\n")

	b.WriteString(theme.Title.Render("Math"))
	b.WriteString("\n")
	b.WriteString(s.renderQuestions(a.MathQuestions, width))
	b.WriteString("\n")

	b.WriteString(theme.Title.Render("Reading"))
	b.WriteString("\n")
	b.WriteString(theme.Card.Width(width).Render(a.ReadingPassage))
	b.WriteString("\n")
	b.WriteString(s.renderQuestions(a.ReadingQuestions, width))
	return b.String()
}

func (s *Screen) renderQuestions(qs []content.Question, width int) string {
	var b strings.Builder
	body := theme.Body.Width(width)
	for i, q := range qs {
		b.WriteString(body.Render(fmt.Sprintf("%2d. %s", i+1, q.Question)))
		b.WriteString("\n")
		if s.showAnswers {
			b.WriteString(theme.Hint.Render("    → " + q.Answer))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Screen) renderGrading(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(center.Render(theme.Title.Render("How many were right?")))
	b.WriteString("\n\n")
	fields := []struct {
		label string
		total int
	}{
		{"Math", len(s.activity.MathQuestions)},
		{"Reading", len(s.activity.ReadingQuestions)},
	}
	for i, f := range fields {
		label := fmt.Sprintf("%-8s", f.label)
		if i == s.focused {
			label = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(label)
		}
		b.WriteString(center.Render(fmt.Sprintf("%s %s / %d", label, s.inputs[i].View(), f.total)))
		b.WriteString("\n")
	}
	if s.notice != "" {
		b.WriteString("\n")
		b.WriteString(center.Render(lipgloss.NewStyle().Foreground(theme.Error).Render(s.notice)))
	}
	return b.String()
}

func statusBadge(a *activity.Activity) string {
	switch a.Status {
	case activity.StatusGraded:
		return theme.Correct.Render(fmt.Sprintf("graded %.0f%%", a.Score.Overall))
	case activity.StatusViewed:
		return theme.BadgeIdle.Render("done")
	}
	return theme.BadgeListening.Render("to do")
}

func loadError(err error) string {
	switch {
	case errors.Is(err, content.ErrContentGeneration):
		return "Couldn't make today's activity right now. Please try again later."
	case errors.Is(err, activity.ErrGenerationInProgress):
		return "Today's activity is still being made. Try again in a moment."
	}
	return "Something went wrong loading today's activity."
}
