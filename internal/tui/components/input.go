package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"threadhub/internal/tui/styles"
)

// Input is a labelled single-line text field
type Input struct {
	textInput textinput.Model
	label     string
	error     string
}

// NewInput creates a new input component
func NewInput(label, placeholder string, charLimit int) Input {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = charLimit
	ti.Width = 60

	return Input{
		textInput: ti,
		label:     label,
	}
}

// NewPasswordInput creates a password input
func NewPasswordInput(label string) Input {
	in := NewInput(label, "••••••••", 100)
	in.textInput.EchoMode = textinput.EchoPassword
	in.textInput.EchoCharacter = '•'
	in.textInput.Width = 30
	return in
}

// SetLabel changes the label, e.g. when the compose target changes
func (i *Input) SetLabel(label string) {
	i.label = label
}

// SetWidth sets the visible width
func (i *Input) SetWidth(w int) {
	if w > 10 {
		i.textInput.Width = w
	}
}

// Focus sets the input as focused
func (i *Input) Focus() tea.Cmd {
	return i.textInput.Focus()
}

// Blur removes focus from input
func (i *Input) Blur() {
	i.textInput.Blur()
}

// Focused returns whether input is focused
func (i Input) Focused() bool {
	return i.textInput.Focused()
}

// SetValue sets the input value
func (i *Input) SetValue(v string) {
	i.textInput.SetValue(v)
}

// Value returns the current input value
func (i Input) Value() string {
	return i.textInput.Value()
}

// Reset clears the value and the error
func (i *Input) Reset() {
	i.textInput.Reset()
	i.error = ""
}

// SetError sets an error message
func (i *Input) SetError(err string) {
	i.error = err
}

// Error returns the current error message
func (i Input) Error() string {
	return i.error
}

// Update handles input updates
func (i *Input) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	i.textInput, cmd = i.textInput.Update(msg)

	// Clear error on input change
	if _, ok := msg.(tea.KeyMsg); ok && i.error != "" {
		i.error = ""
	}

	return cmd
}

// View renders the input
func (i Input) View() string {
	var labelStyle lipgloss.Style
	var inputStyle lipgloss.Style

	if i.Focused() {
		labelStyle = styles.InputFocusedStyle
		inputStyle = styles.InputFocusedStyle
	} else {
		labelStyle = styles.InputPromptStyle
		inputStyle = styles.InputStyle
	}

	result := labelStyle.Render(i.label) + "\n"
	result += inputStyle.Render(i.textInput.View())

	if i.error != "" {
		result += "\n" + styles.ErrorStyle.Render("✗ "+i.error)
	}

	return result
}
