package components

import (
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

// maxContentWidth keeps cards readable on wide terminals.
const maxContentWidth = 64

// ContentWidth returns the inner width shared by every card inside a
// Frame, so stacked cards line up.
func ContentWidth(frameWidth int) int {
	// border (2) + inner padding (4)
	return min(max(frameWidth-6, 20), maxContentWidth)
}

// Frame wraps content in a double border and centers it in the given
// area.
func Frame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).
		Height(height - 2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

// Card renders content in a rounded box cw wide. A selected card gets a
// highlighted border.
func Card(content string, cw int, selected bool) string {
	border := theme.Border
	if selected {
		border = theme.Highlight
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 2).
		Render(content)
}

// ItemState is how a menu entry is drawn.
type ItemState int

const (
	ItemNormal ItemState = iota
	ItemSelected
	ItemDisabled
)

// MenuButton renders one bordered menu entry.
func MenuButton(label string, state ItemState, width int) string {
	style := lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	switch state {
	case ItemSelected:
		return style.
			Bold(true).
			Foreground(theme.BgDark).
			Background(theme.Highlight).
			BorderForeground(theme.Highlight).
			Render("▸ " + label)
	case ItemDisabled:
		return style.Foreground(theme.TextDim).Render(label)
	}
	return style.Foreground(theme.Text).Render(label)
}

// MenuLine renders one menu entry without a border, for small terminals.
func MenuLine(label string, state ItemState) string {
	switch state {
	case ItemSelected:
		return lipgloss.NewStyle().
			Foreground(theme.BgDark).
			Background(theme.Highlight).
			Bold(true).
			Render(" ▸ " + label + " ")
	case ItemDisabled:
		return lipgloss.NewStyle().Foreground(theme.TextDim).Render("   " + label)
	}
	return lipgloss.NewStyle().Foreground(theme.Text).Render("   " + label)
}
