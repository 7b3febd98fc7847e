package components

import (
	"threadhub/internal/tui/styles"
	"threadhub/pkg/models"
)

// ErrorView displays a failed operation with a retry hint
type ErrorView struct {
	err     error
	message string
}

// NewErrorView creates a new error view
func NewErrorView(err error, message string) ErrorView {
	return ErrorView{
		err:     err,
		message: message,
	}
}

// HasError returns whether an error is present
func (e ErrorView) HasError() bool {
	return e.err != nil
}

// Err returns the held error
func (e ErrorView) Err() error {
	return e.err
}

// Clear clears the error
func (e *ErrorView) Clear() {
	e.err = nil
	e.message = ""
}

// View renders the error
func (e ErrorView) View() string {
	if !e.HasError() {
		return ""
	}

	hint := "[ Press ctrl+r to retry ]"
	if models.KindOf(e.err) == models.KindUnauthenticated {
		hint = "[ Press ctrl+l to sign in ]"
	}

	return styles.CardStyle.Render(
		styles.ErrorStyle.Render("⚠ "+e.message) + "\n\n" +
			styles.CardContentStyle.Render(models.Classify(e.err).UserMessage()) + "\n\n" +
			styles.ButtonStyle.Render(hint),
	)
}
