package components

import (
	"strconv"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// Filter restricts which single characters a TextInput accepts.
type Filter int

const (
	AnyText Filter = iota
	DigitsOnly
	// LettersOnly accepts a-z, A-Z, spaces and hyphens, enough to spell
	// a word out loud.
	LettersOnly
)

// TextInput wraps bubbles/textinput with a character filter.
type TextInput struct {
	Model  textinput.Model
	Filter Filter
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, filter Filter, limit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	if limit > 0 {
		ti.CharLimit = limit
	}
	return TextInput{Model: ti, Filter: filter}
}

// Init returns the initial command.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update handles messages, dropping characters the filter rejects.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		if key := kmsg.String(); len(key) == 1 && !t.accepts(key[0]) {
			return t, nil
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func (t TextInput) accepts(c byte) bool {
	switch t.Filter {
	case DigitsOnly:
		return c >= '0' && c <= '9'
	case LettersOnly:
		return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == ' ' || c == '-'
	}
	return true
}

// View renders the text input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the current input value.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// Reset clears the input.
func (t *TextInput) Reset() {
	t.Model.SetValue("")
}

// NumericValue returns the input value as an integer.
func (t TextInput) NumericValue() (int, error) {
	return strconv.Atoi(t.Model.Value())
}
