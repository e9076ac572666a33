package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

// ProgressBar displays a horizontal bar, used for lesson steps and report
// scores. Graded bars color the fill by value: low scores red, middling
// amber, high green.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Graded      bool
	Width       int
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// Fraction returns done/total clamped to [0, 1]. A zero total is 0.
func Fraction(done, total int) float64 {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 1
	}
	return float64(done) / float64(total)
}

func (p ProgressBar) fill() lipgloss.Style {
	if !p.Graded {
		return theme.ProgressFilled
	}
	switch {
	case p.Percent < 0.5:
		return theme.ProgressFilled.Background(theme.Error)
	case p.Percent < 0.8:
		return theme.ProgressFilled.Background(theme.Accent)
	}
	return theme.ProgressFilled.Background(theme.Success)
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var b strings.Builder
	if p.Label != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label))
		b.WriteString("  ")
	}

	used := lipgloss.Width(b.String())
	if p.ShowPercent {
		used += 6 // "  100%"
	}
	width := max(p.Width-used, 4)
	filled := min(max(int(float64(width)*p.Percent), 0), width)

	b.WriteString(p.fill().Render(strings.Repeat(" ", filled)))
	b.WriteString(theme.ProgressEmpty.Render(strings.Repeat(" ", width-filled)))

	if p.ShowPercent {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Render(fmt.Sprintf("  %d%%", int(p.Percent*100))))
	}
	return b.String()
}
