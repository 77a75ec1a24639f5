package util

import (
	"strings"
	"unicode"
)

// Summarize shortens text to at most maxLen bytes, ending in "..." when cut.
func Summarize(text string, maxLen int) string {
	if text == "" {
		return ""
	}
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen - 3
	if cut < 0 {
		cut = 0
	}
	// back off to a rune boundary
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// Normalize performs basic string normalization (lowercase + trim)
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Slugify lowercases s and replaces each whitespace rune with an underscore,
// the form TheyWorkForYou uses in member URLs.
func Slugify(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, strings.ToLower(s))
}

// StripSpaces removes all whitespace.
func StripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
