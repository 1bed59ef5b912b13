package meta

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanString performs basic string cleaning (Unicode, trim, collapse)
func CleanString(s string) string {
	if s == "" {
		return ""
	}

	// Tags written on macOS often arrive decomposed (NFD)
	s = norm.NFC.String(s)
	s = removeControlChars(s)

	return collapseWhitespace(s)
}

// collapseWhitespace replaces runs of whitespace with a single space
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// removeControlChars drops control characters such as NUL padding in ID3 frames
func removeControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Truncate shortens s to at most n runes, matching VARCHAR(n) columns
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
