package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/components"
	"github.com/abhisek/parley/internal/ui/theme"
)

const titleFull = ` ██████╗  █████╗ ██████╗ ██╗     ███████╗██╗   ██╗
 ██╔══██╗██╔══██╗██╔══██╗██║     ██╔════╝╚██╗ ██╔╝
 ██████╔╝███████║██████╔╝██║     █████╗   ╚████╔╝
 ██╔═══╝ ██╔══██║██╔══██╗██║     ██╔══╝    ╚██╔╝
 ██║     ██║  ██║██║  ██║███████╗███████╗   ██║
 ╚═╝     ╚═╝  ╚═╝╚═╝  ╚═╝╚══════╝╚══════╝   ╚═╝`

const titleCompact = "P · A · R · L · E · Y"

const tagline = "Speak English with confidence"

// renderTitle returns the styled title block or compact fallback.
func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Highlight).
		Bold(true)

	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art) + "\n" + theme.Hint.Render(tagline))
}

// stats is what the home dashboard shows.
type stats struct {
	sessions int
	reports  int
	backend  string
	audio    bool
}

// renderStatsBar renders the dashboard stats in a bordered box matching content width.
func renderStatsBar(st stats, cw int, compact bool) string {
	countStyle := lipgloss.NewStyle().Foreground(theme.Highlight).Bold(true)
	reportStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	backendStyle := lipgloss.NewStyle().Foreground(theme.Info).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	audio := backendStyle.Render("♪ ON")
	if !st.audio {
		audio = dimStyle.Render("♪ OFF")
	}

	var line string
	if compact {
		line = fmt.Sprintf("%s %s %s %s",
			countStyle.Render(fmt.Sprintf("★%d", st.sessions)),
			reportStyle.Render(fmt.Sprintf("◆%d", st.reports)),
			backendStyle.Render(strings.ToUpper(st.backend)),
			audio,
		)
	} else {
		line = fmt.Sprintf("%s  %s  %s  %s",
			countStyle.Render(fmt.Sprintf("★ %d TALKS", st.sessions)),
			reportStyle.Render(fmt.Sprintf("◆ %d REPORTS", st.reports)),
			backendStyle.Render(strings.ToUpper(st.backend)),
			audio,
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Info).
		Width(cw - 2). // account for border chars
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(line)
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 26

// renderMenu draws the main menu, numbered for the digit shortcuts. Small
// terminals get borderless lines.
func renderMenu(items []string, selected, cw int, disabled map[int]bool, compact bool) string {
	var rows []string
	for i, label := range items {
		state := components.ItemNormal
		switch {
		case disabled[i]:
			state = components.ItemDisabled
		case i == selected:
			state = components.ItemSelected
		}
		label = fmt.Sprintf("%d  %s", i+1, label)
		if compact {
			rows = append(rows, components.MenuLine(label, state))
		} else {
			rows = append(rows, components.MenuButton(label, state, buttonWidth))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(rows, "\n"))
}

// renderBanner renders a one-line warning, e.g. when no AI backend is set up.
func renderBanner(text string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ " + text)
}

// renderMascotBox renders the mascot centered in a box matching content width.
func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(variant))
}
