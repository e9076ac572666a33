package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

const (
	MinWidth  = 72
	MinHeight = 20
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Make the window a little bigger to keep talking.\n\nNeeded: %d x %d\nNow:    %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

func bar(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border)
}

// RenderHeader renders the header bar: the app name, the screen title
// centered, then mode and status on the right. mode and status may be
// empty.
func RenderHeader(title, mode, status string, width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render("  Parley")
	center := lipgloss.NewStyle().Foreground(theme.Text).Render(title)

	var right []string
	if mode != "" {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Accent).Render("◆ "+mode))
	}
	if status != "" {
		right = append(right, lipgloss.NewStyle().Foreground(theme.Info).Render(status))
	}
	rightText := strings.Join(right, "   ") + "  "

	inner := max(width-4, 0)
	leftGap := max((inner-lipgloss.Width(center))/2-lipgloss.Width(left), 1)
	rightGap := max(inner-lipgloss.Width(left)-leftGap-lipgloss.Width(center)-lipgloss.Width(rightText), 1)

	content := left + strings.Repeat(" ", leftGap) + center + strings.Repeat(" ", rightGap) + rightText
	return bar(width).Render(content)
}

// RenderFooter renders key hints. Hints that do not fit are dropped from
// the middle so the last one (usually quit) stays visible.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, theme.KeyCap.Render(h.Key)+" "+
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description))
	}

	const sep = "  "
	avail := width - 6
	for len(parts) > 1 && lipgloss.Width(strings.Join(parts, sep)) > avail {
		parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	}

	return bar(width).Render("  " + strings.Join(parts, sep))
}

// RenderFrame composes the full frame: header + content + footer.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	styledContent := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	return header + "\n" + styledContent + "\n" + footer
}
