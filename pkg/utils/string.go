package utils

import "unicode/utf8"

// Truncate shortens s to maxLen runes, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
