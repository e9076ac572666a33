package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func testChoices() ChoiceList {
	return NewChoiceList("Greeting", []Choice{
		{Label: "Hello", Hint: "Olá"},
		{Label: "Good morning", Hint: "Bom dia"},
		{Label: "Hi there"},
	})
}

func TestChoiceList_Navigate(t *testing.T) {
	m := testChoices()
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 2 {
		t.Fatalf("Selected = %d, want 2", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !m.Submitted || m.ChosenIndex != 2 {
		t.Fatalf("expected choice 2 submitted, got %+v", m)
	}
}

func TestChoiceList_NumberKey(t *testing.T) {
	m := testChoices()
	m, _ = m.Update(tea.KeyPressMsg{Code: '2', Text: "2"})
	if !m.Submitted || m.ChosenIndex != 1 {
		t.Fatalf("expected choice 1 submitted, got %+v", m)
	}

	// Ignored once submitted.
	m, _ = m.Update(tea.KeyPressMsg{Code: '1', Text: "1"})
	if m.ChosenIndex != 1 {
		t.Fatalf("ChosenIndex changed after submit: %d", m.ChosenIndex)
	}

	m.Reset()
	m, _ = m.Update(tea.KeyPressMsg{Code: '9', Text: "9"})
	if m.Submitted {
		t.Fatal("out of range number should not submit")
	}
}

func TestChoiceList_View(t *testing.T) {
	view := testChoices().View()
	for _, want := range []string{"Greeting", "1) Hello", "Bom dia", "3) Hi there"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
