package textutil

import (
	"regexp"
	"strings"
)

var trailingSpaceBeforeNewline = regexp.MustCompile(`[ \t\r\f\v]+\n`)

// Tidy repairs whitespace artifacts the translation step may introduce:
// any run of whitespace immediately preceding a newline collapses to a
// single newline, then leading and trailing whitespace is trimmed.
// Interior content is never touched.
func Tidy(s string) string {
	s = trailingSpaceBeforeNewline.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// Truncate shortens a string to maxLen, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
