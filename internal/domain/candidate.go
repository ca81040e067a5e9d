package domain

import (
	"strings"
	"time"
)

// Kind distinguishes the two candidate shapes the query box can surface.
type Kind string

const (
	// KindURL is a direct-navigation candidate. It always carries a URL.
	KindURL Kind = "url"
	// KindSearchTerm is a plain search phrase. It never carries a URL.
	KindSearchTerm Kind = "search"
)

// Source identifies which stream produced a candidate.
type Source string

const (
	SourceTyped   Source = "typed"   // literal echo of the query
	SourceRecent  Source = "recent"  // persisted recent searches
	SourceHistory Source = "history" // browsing-history cache
	SourcePopular Source = "popular" // curated URL list
	SourceRemote  Source = "remote"  // remote autocomplete gateway
)

// Candidate represents a single suggestion before and after ranking.
type Candidate struct {
	// ─────────────────────────────
	// Identity
	// ─────────────────────────────

	// Kind is URL or SearchTerm. A URL candidate always has a non-empty
	// URL; a SearchTerm candidate never does.
	Kind Kind `json:"kind"`

	// Text is the display string: the query phrase for SearchTerm
	// candidates, the page title for URL candidates.
	Text string `json:"text"`

	// URL is the navigation target, present iff Kind == KindURL.
	URL string `json:"url,omitempty"`

	// ─────────────────────────────
	// Ranking
	// ─────────────────────────────

	// Source is the stream that produced this candidate.
	Source Source `json:"source"`

	// Score is derived during ranking and never persisted.
	Score float64 `json:"score"`
}

// Key returns the deduplication key for a candidate:
// "url:<lowercased url>" for URL candidates, "text:<lowercased text>"
// for SearchTerm candidates. First occurrence of a key wins.
func (c Candidate) Key() string {
	if c.Kind == KindURL {
		return "url:" + strings.ToLower(c.URL)
	}
	return "text:" + strings.ToLower(c.Text)
}

// BlockKey returns the blocklist key for a candidate:
// "host:<domain>" for URL candidates, "text:<lowercased phrase>" otherwise.
func (c Candidate) BlockKey() string {
	if c.Kind == KindURL {
		return "host:" + HostOf(c.URL)
	}
	return "text:" + strings.ToLower(c.Text)
}

// UsageStat tracks how often and how recently a candidate was selected.
// Stats are keyed by the candidate dedup key, created on first selection,
// and only removed when the candidate is blocklisted.
type UsageStat struct {
	Count      int64     `json:"count"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// HistoryEntry is one cached browsing-history record.
type HistoryEntry struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	VisitedAt time.Time `json:"visited_at"`
}

// CuratedEntry is one entry of the static curated URL list.
type CuratedEntry struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Category string `json:"category,omitempty"` // workspace category, optional
}
