package util

import (
	"regexp"
	"strings"

	"courtparser-engine/internal/domain"
)

var relationalParties = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Истец(?::\s*|\s+)(.+?)\s+Ответчик(?:и)?(?::\s*|\s+)(.+)`),
	regexp.MustCompile(`(?i)(.+)\s+против\s+(.+)`),
	regexp.MustCompile(`(?i)(.+)\s+к\s+(.+)`),
}

// ExtractParties splits a listing's parties cell into plaintiff and defendant.
// Separators "|" then ";" are tried before relational phrasing ("A против B",
// "A к B"). Every side goes through CleanPartyName, so role labels are dropped
// with or without a colon. Unsplittable text becomes the plaintiff with an
// unspecified defendant. Empty text yields two empty strings.
func ExtractParties(text string) (plaintiff, defendant string) {
	text = CleanText(text)
	if text == "" {
		return "", ""
	}

	for _, sep := range []string{"|", ";"} {
		parts := splitNonEmpty(text, sep)
		if len(parts) >= 2 {
			return CleanPartyName(parts[0]), CleanPartyName(parts[1])
		}
	}

	for _, re := range relationalParties {
		if m := re.FindStringSubmatch(text); m != nil {
			return CleanPartyName(m[1]), CleanPartyName(m[2])
		}
	}

	return CleanPartyName(text), domain.NotSpecified
}

var roleWords = regexp.MustCompile(`(?i)(^|\s)(истцы|истец|ответчики|ответчик|заявители|заявитель|третье лицо|третьи лица)(\s*:|\s|$)`)

// CleanPartyName removes role labels and edge punctuation. Inner hyphens
// stay, so "Иванов-Петров" survives intact.
func CleanPartyName(name string) string {
	name = roleWords.ReplaceAllString(CleanText(name), " ")
	name = strings.Trim(CleanText(name), " :;,-–—|")
	if name == "" {
		return domain.NotSpecified
	}
	return name
}

// JoinNames joins distinct non-empty names with "; ".
func JoinNames(names []string) string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = CleanText(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return strings.Join(out, "; ")
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
