package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize collapses every run of whitespace (including newlines and tabs)
// to a single space and trims both ends.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// Fold normalizes s and, when caseInsensitive is set, lowercases it for use
// as a mapping key.
func Fold(s string, caseInsensitive bool) string {
	s = Normalize(s)
	if caseInsensitive {
		s = strings.ToLower(s)
	}
	return s
}

// IsDigits reports whether s is non-empty and consists only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
