package util

import (
	"net/url"
	"strings"
)

// Absolute resolves href against origin. Hrefs that already carry a scheme
// are returned as-is; an empty href stays empty.
func Absolute(origin, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return ref.String()
	}
	base, err := url.Parse(strings.TrimRight(origin, "/") + "/")
	if err != nil || base.Host == "" {
		return href
	}
	return base.ResolveReference(ref).String()
}

// Extension returns the lower-cased file extension of the URL path, with the
// leading dot, or "" when there is none.
func Extension(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	p := u.Path
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	i := strings.LastIndex(p, ".")
	if i < 0 || i == len(p)-1 {
		return ""
	}
	return strings.ToLower(p[i:])
}

// StripFragment drops "#..." from a URL.
func StripFragment(raw string) string {
	if i := strings.Index(raw, "#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
