package components

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

// KeyButton is a button answered by a single key, shown as a key cap
// followed by its label.
type KeyButton struct {
	Key     string
	Label   string
	Primary bool
}

// View renders the button.
func (b KeyButton) View() string {
	style := theme.ButtonPlain
	if b.Primary {
		style = theme.ButtonPrimary
	}
	return theme.KeyCap.Render(strings.ToUpper(b.Key)) + style.Render(b.Label)
}

// ButtonRow lays buttons out side by side.
func ButtonRow(buttons ...KeyButton) string {
	views := make([]string, 0, 2*len(buttons))
	for i, b := range buttons {
		if i > 0 {
			views = append(views, "   ")
		}
		views = append(views, b.View())
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, views...)
}
