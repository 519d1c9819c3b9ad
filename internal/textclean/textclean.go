// Package textclean maps raw review text to the canonical form used by the
// classifier. Training and inference must both go through Normalize.
//
// The canonical form is lowercase, contains no URLs, and consists only of
// ASCII letters, digits, apostrophes and single spaces.
package textclean

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	disallowedChars = regexp.MustCompile(`[^a-z0-9\s']`)
)

// Normalize lowercases s, strips URLs and every character outside
// [a-z0-9'] and whitespace, then collapses whitespace runs to a single space.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(s)
	// RE2's \S only excludes ASCII whitespace, so a URL would otherwise run
	// through a no-break or em space and swallow the next word.
	s = strings.Map(unifySpace, s)
	s = urlPattern.ReplaceAllString(s, " ")
	s = disallowedChars.ReplaceAllString(s, " ")
	return strings.Join(strings.Fields(s), " ")
}

// unifySpace maps every Unicode space, plus the ASCII file/group/record/unit
// separators, to a plain space.
func unifySpace(r rune) rune {
	if unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f) {
		return ' '
	}
	return r
}

// NormalizeAny normalizes string values and maps anything else to "".
func NormalizeAny(v any) string {
	switch s := v.(type) {
	case string:
		return Normalize(s)
	case *string:
		if s == nil {
			return ""
		}
		return Normalize(*s)
	default:
		return ""
	}
}

// NormalizeAll applies Normalize to every element of texts.
func NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Normalize(t)
	}
	return out
}
