package spelling

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	spell "github.com/abhisek/studybuddy/internal/spelling"
	"github.com/abhisek/studybuddy/internal/ui/components"
	"github.com/abhisek/studybuddy/internal/ui/layout"
	"github.com/abhisek/studybuddy/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	if s.errMsg != "" {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.Error), s.errMsg)
	}
	if s.session == nil {
		return layout.Centered(width, lipgloss.NewStyle().Foreground(theme.TextDim), "Getting your words ready...")
	}
	if s.snap.Status == spell.StatusFinished {
		return s.renderFinished(width)
	}
	if s.closed {
		return layout.Centered(width, theme.Hint, "Practice stopped.")
	}
	return s.renderWord(width)
}

func (s *Screen) renderWord(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder

	b.WriteString("\n")
	bar := components.NewProgressBar("Word", s.snap.Index+1, s.snap.Total, min(width-8, 50))
	b.WriteString(center.Render(bar.View()))
	b.WriteString("\n")
	b.WriteString(center.Render(theme.Hint.Render(fmt.Sprintf("%d correct so far", s.snap.Correct))))
	b.WriteString("\n\n")

	b.WriteString(center.Render(statusBadge(s.snap.Status)))
	b.WriteString("\n\n")

	if s.caption != "" && s.snap.Status != spell.StatusListening {
		b.WriteString(center.Render(theme.Caption.Render("“" + s.caption + "”")))
		b.WriteString("\n\n")
	}

	switch s.snap.Status {
	case spell.StatusIdle:
		b.WriteString(center.Render(theme.Body.Render("Press H to hear the word, then Enter to spell it.")))
	case spell.StatusListening:
		b.WriteString(center.Render(s.input.View()))
	case spell.StatusFeedback:
		b.WriteString(center.Render(feedbackLine(s.snap)))
	}
	b.WriteString("\n\n")

	if s.snap.Err != nil {
		b.WriteString(center.Render(lipgloss.NewStyle().Foreground(theme.Error).Render(s.snap.Err.Error())))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Screen) renderFinished(width int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	var b strings.Builder

	b.WriteString("\n\n")
	b.WriteString(center.Render(theme.Title.Render("All done!")))
	b.WriteString("\n\n")
	b.WriteString(center.Render(theme.Body.Render(fmt.Sprintf(
		"You spelled %d of %d words correctly.", s.snap.Correct, s.snap.Total))))
	b.WriteString("\n\n")

	style := theme.Incorrect
	if s.snap.Score >= 80 {
		style = theme.Correct
	}
	b.WriteString(center.Render(style.Render(fmt.Sprintf("Score: %.0f%%", s.snap.Score))))
	b.WriteString("\n\n")

	if s.snap.Err != nil {
		b.WriteString(center.Render(lipgloss.NewStyle().Foreground(theme.Error).Render("Your result could not be saved.")))
		b.WriteString("\n")
	}
	return b.String()
}

func statusBadge(st spell.Status) string {
	switch st {
	case spell.StatusSpeaking:
		return theme.BadgeSpeaking.Render("🔊 Listen carefully...")
	case spell.StatusListening:
		return theme.BadgeListening.Render("🎤 Your turn, spell it!")
	case spell.StatusFeedback:
		return theme.BadgeIdle.Render("...")
	}
	return theme.BadgeIdle.Render("Ready")
}

func feedbackLine(snap spell.Snapshot) string {
	if snap.Feedback == spell.FeedbackCorrect {
		return theme.Correct.Render("✓ Correct!")
	}
	return theme.Incorrect.Render("✗ The word was ") + theme.Body.Bold(true).Render(snap.Word)
}
