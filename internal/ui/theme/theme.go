// Package theme holds the terminal colours and shared styles.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: bright enough for young readers, calm on a dark terminal.
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#0EA5E9") // Sky
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC")
	TextDim   = lipgloss.Color("#94A3B8")
	BgCard    = lipgloss.Color("#1E293B")
	Border    = lipgloss.Color("#334155")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

var (
	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	// Caption shows what the speaker is saying.
	Caption = lipgloss.NewStyle().
		Foreground(Accent).
		Italic(true)
)

// Status badges for the spelling session.
var (
	BadgeIdle = lipgloss.NewStyle().
			Foreground(TextDim).
			Bold(true)

	BadgeSpeaking = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	BadgeListening = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true)
)
