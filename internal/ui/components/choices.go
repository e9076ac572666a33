package components

import (
	"fmt"
	"strconv"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/parley/internal/ui/theme"
)

// Choice is one entry of a ChoiceList.
type Choice struct {
	Label string
	Hint  string // shown dimmed under the label, e.g. a translation
}

// ChoiceList is a numbered selector. A choice is taken with Enter on the
// highlighted row or by pressing its number.
type ChoiceList struct {
	Title       string
	Choices     []Choice
	Selected    int
	Submitted   bool
	ChosenIndex int
}

// NewChoiceList creates a new choice list.
func NewChoiceList(title string, choices []Choice) ChoiceList {
	return ChoiceList{
		Title:       title,
		Choices:     choices,
		ChosenIndex: -1,
	}
}

// Update handles keyboard navigation and selection.
func (m ChoiceList) Update(msg tea.Msg) (ChoiceList, tea.Cmd) {
	if m.Submitted || len(m.Choices) == 0 {
		return m, nil
	}

	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	key := kmsg.String()
	switch key {
	case "up":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down":
		if m.Selected < len(m.Choices)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
		m.ChosenIndex = m.Selected
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(m.Choices) {
			m.Selected = n - 1
			m.Submitted = true
			m.ChosenIndex = n - 1
		}
	}

	return m, nil
}

// Reset clears a submitted choice so the list can be used again.
func (m *ChoiceList) Reset() {
	m.Submitted = false
	m.ChosenIndex = -1
}

// View renders the list.
func (m ChoiceList) View() string {
	var s string
	if m.Title != "" {
		s = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true).Render(m.Title) + "\n"
	}

	for i, c := range m.Choices {
		prefix := "  "
		if i == m.Selected {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%d) %s", prefix, i+1, c.Label)

		switch {
		case m.Submitted && i == m.ChosenIndex:
			s += theme.Correct.Render(line) + "\n"
		case m.Submitted:
			s += lipgloss.NewStyle().Foreground(theme.TextDim).Render(line) + "\n"
		case i == m.Selected:
			s += theme.Selected.Render(line) + "\n"
		default:
			s += theme.Unselected.Render(line) + "\n"
		}
		if c.Hint != "" {
			s += theme.Hint.Render("     "+c.Hint) + "\n"
		}
	}

	return s
}
