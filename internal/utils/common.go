package utils

import (
	"strings"
)

// CleanText drops control characters other than tab and newline, then trims
// surrounding whitespace. Model output occasionally carries stray escapes.
func CleanText(text string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		if r == 0x7f {
			return -1
		}
		return r
	}, text))
}
