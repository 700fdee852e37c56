package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/ui/theme"
)

// MascotVariant selects which mascot art to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota
	MascotCelebrating               // a recent score of 80% or more
)

const mascotIdle = `┌─────┐
│ ◉ ◉ │
│  ▽  │
│ abc │
└─────┘`

const mascotCelebrating = `┌─────┐
│ ★ ★ │
│  ▿  │
│ abc │
└─╥═╥─┘
  ╚═╝`

// RenderMascot returns the mascot art for v.
func RenderMascot(v MascotVariant) string {
	art, fg := mascotIdle, theme.Primary
	if v == MascotCelebrating {
		art, fg = mascotCelebrating, theme.Accent
	}
	return lipgloss.NewStyle().Foreground(fg).Render(art)
}
