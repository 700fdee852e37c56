package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

type picked string

func TestMenu(t *testing.T) {
	items := []MenuItem{
		{Label: "Today", Key: "t", Action: func() tea.Cmd { return func() tea.Msg { return picked("today") } }},
		{Label: "Spelling", Key: "s", Action: func() tea.Cmd { return func() tea.Msg { return picked("spell") } }},
		{Label: "Nothing"},
	}
	m := NewMenu(items)

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 1 {
		t.Fatalf("expected selection 1, got %d", m.Selected)
	}
	_, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil || cmd() != picked("spell") {
		t.Error("enter should run the selected action")
	}

	m, cmd = m.Update(keyPress('t'))
	if m.Selected != 0 || cmd == nil || cmd() != picked("today") {
		t.Error("hotkey should select and run its item")
	}

	m.Selected = 2
	if _, cmd := m.Update(tea.KeyPressMsg{Code: tea.KeyEnter}); cmd != nil {
		t.Error("item without action should do nothing")
	}
	if !strings.Contains(m.View(), "[s] Spelling") {
		t.Errorf("view missing hotkey label:\n%s", m.View())
	}
}

func TestTextInputFilters(t *testing.T) {
	digits := NewTextInput("", DigitsOnly, 3)
	for _, r := range "4a2" {
		digits, _ = digits.Update(keyPress(r))
	}
	if digits.Value() != "42" {
		t.Errorf("expected 42, got %q", digits.Value())
	}
	if n, err := digits.NumericValue(); err != nil || n != 42 {
		t.Errorf("NumericValue = %d, %v", n, err)
	}

	letters := NewTextInput("", LettersOnly, 0)
	for _, r := range "c4t-" {
		letters, _ = letters.Update(keyPress(r))
	}
	if letters.Value() != "ct-" {
		t.Errorf("expected ct-, got %q", letters.Value())
	}
	letters.Reset()
	if letters.Value() != "" {
		t.Error("Reset should clear the input")
	}
}

func TestProgressBar(t *testing.T) {
	v := NewProgressBar("Words", 3, 10, 40).View()
	if !strings.Contains(v, "3/10") {
		t.Errorf("expected count in %q", v)
	}
	// An empty list must not divide by zero.
	_ = NewProgressBar("", 0, 0, 10).View()
}
