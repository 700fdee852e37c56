package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/studybuddy/internal/ui/theme"
)

const bannerArt = `
 ╔═╗╔╦╗╦ ╦╔╦╗╦ ╦  ╔╗ ╦ ╦╔╦╗╔╦╗╦ ╦
 ╚═╗ ║ ║ ║ ║║╚╦╝  ╠╩╗║ ║ ║║ ║║╚╦╝
 ╚═╝ ╩ ╚═╝═╩╝ ╩   ╚═╝╚═╝═╩╝═╩╝ ╩ `

const bannerCompact = "S T U D Y B U D D Y"

// RenderBanner returns the banner, or a one-line version for terminals
// narrower than 40 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 40 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
