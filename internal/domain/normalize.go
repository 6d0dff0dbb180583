package domain

import (
	"strings"
	"unicode"
)

// NormalizeWord prepares a dictionary word for indexing:
//   - trims leading/trailing whitespace
//   - converts to lowercase
//
// Diacritics, hyphens, and apostrophes are preserved. Inner whitespace is
// kept as is; use ContainsSpace to reject multi-word input.
func NormalizeWord(word string) string {
	word = strings.TrimSpace(word)
	if word == "" {
		return ""
	}
	return strings.ToLower(word)
}

// ContainsSpace reports whether word contains any Unicode whitespace.
// The text dictionary format separates words by blanks, so such words
// cannot be exported.
func ContainsSpace(word string) bool {
	return strings.IndexFunc(word, unicode.IsSpace) >= 0
}
