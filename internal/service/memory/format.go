package memory

import (
	"strings"
	"unicode/utf8"

	"github.com/sandevgo/svim/internal/core"
)

// FormatContext renders context messages one per line as "role: content".
func FormatContext(messages []core.ContextMessage) string {
	if len(messages) == 0 {
		return ""
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, m.Role+": "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// Truncate cuts s to at most maxChars runes. maxChars <= 0 disables the cap.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxChars])
}
