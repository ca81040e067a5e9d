package domain

import (
	"net/url"
	"strings"
)

// NormalizeQuery trims and lowercases user input for matching.
func NormalizeQuery(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}

// MinCandidateLen returns the minimum candidate length for a query:
// max(3, len(q)+1). Anything shorter is excluded so single-letter queries
// don't flood the list with short garbage.
func MinCandidateLen(q string) int {
	if n := len(q) + 1; n > 3 {
		return n
	}
	return 3
}

// LongEnough reports whether a candidate display string passes the
// minimum length gate for the given (already normalized) query.
func LongEnough(text, q string) bool {
	return len(text) >= MinCandidateLen(q)
}

// HostOf extracts the lowercased hostname from a raw URL.
// Inputs without a scheme ("github.com/feed") are handled too.
func HostOf(rawURL string) string {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// LooksLikeURL reports whether typed input should be treated as a
// navigable URL rather than a search phrase.
func LooksLikeURL(input string) bool {
	s := strings.TrimSpace(input)
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	if strings.Contains(s, "://") || strings.HasPrefix(s, "localhost") {
		return true
	}
	host, _, _ := strings.Cut(s, "/")
	dot := strings.LastIndexByte(host, '.')
	return dot > 0 && dot < len(host)-1
}

// HasQueryPrefix reports whether s, lowercased, starts with the
// normalized query. An empty query matches everything.
func HasQueryPrefix(s, q string) bool {
	if q == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(s), q)
}

// MatchesPrefix reports whether a candidate satisfies the prefix
// invariant for the query: SearchTerm text must have q as a prefix;
// URL candidates match on host, host without "www.", title text or the
// full URL.
func MatchesPrefix(c Candidate, q string) bool {
	if q == "" {
		return true
	}
	if c.Kind == KindSearchTerm {
		return HasQueryPrefix(c.Text, q)
	}
	host := HostOf(c.URL)
	if HasQueryPrefix(host, q) || HasQueryPrefix(strings.TrimPrefix(host, "www."), q) {
		return true
	}
	return HasQueryPrefix(c.Text, q) || HasQueryPrefix(c.URL, q)
}
