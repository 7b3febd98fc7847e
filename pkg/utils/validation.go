package utils

import (
	"strings"
	"unicode/utf8"

	"threadhub/pkg/models"
)

// ValidateContent trims content and checks it against the length bounds.
// A zero bound disables that check; whitespace-only content is always
// rejected as empty.
func ValidateContent(content string, minLen, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", models.ErrEmptyContent
	}

	n := utf8.RuneCountInString(trimmed)
	if minLen > 0 && n < minLen {
		return "", models.ErrContentTooShort
	}
	if maxLen > 0 && n > maxLen {
		return "", models.ErrContentTooLong
	}
	return trimmed, nil
}

// Truncate shortens s to at most n runes, appending an ellipsis when cut
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	if n == 1 {
		return "…"
	}
	return string(runes[:n-1]) + "…"
}
