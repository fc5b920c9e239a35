package util

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var dashSpaces = regexp.MustCompile(`\s*-\s*`)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, " ", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// CleanField is CleanText plus tightening of spaced hyphens ("Иванов - Петров"
// -> "Иванов-Петров"). Listing cells use it; free decision text does not.
func CleanField(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	return dashSpaces.ReplaceAllString(s, "-")
}

// Truncate shortens s to max runes, ending with "..." when cut.
func Truncate(s string, max int) string {
	if max <= 3 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}

// ContainsAny reports whether the lower-cased text contains one of the terms.
func ContainsAny(lower string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Lower is strings.ToLower with ё folded to е, matching how the site mixes both.
func Lower(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "ё", "е")
}
