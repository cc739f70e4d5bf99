package utils

import (
	"strings"
	"unicode/utf8"
)

// Message length limits
const (
	MaxMessageLength = 8000 // Characters
	MaxCommentLength = 2000
	PreviewLength    = 50 // Notification previews
)

// NormalizeText trims surrounding whitespace. An empty result means the input
// carried no content and must not reach the store.
func NormalizeText(input string) string {
	return strings.TrimSpace(input)
}

// ExceedsLength reports whether s is longer than max characters.
func ExceedsLength(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// TruncateRunes truncates s to at most max characters without splitting a rune.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
