package home

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

// MascotVariant selects which mascot art to display.
type MascotVariant int

const (
	MascotIdle        MascotVariant = iota // Default
	MascotCelebrating                      // A report came in today
	MascotAlert                            // No AI backend configured
)

const mascotIdle = `  ___
 (o >
 //\
 V_/_  "Hello!"`

const mascotCelebrating = `  ___
 (^ >  ★
 //\
 V_/_  "Great job!"`

const mascotAlert = `  ___
 (o >  !
 //\
 V_/_  "Who's there?"`

// RenderMascot returns the parrot art for the given variant.
func RenderMascot(variant MascotVariant) string {
	art := mascotIdle
	fg := theme.Secondary

	switch variant {
	case MascotCelebrating:
		art = mascotCelebrating
		fg = theme.Highlight
	case MascotAlert:
		art = mascotAlert
		fg = theme.Accent
	}

	return lipgloss.NewStyle().
		Foreground(fg).
		Render(art)
}
