package domain

import (
	"math"
	"sort"
	"strings"
	"time"
)

const (
	// Base scores. URLs structurally outrank text searches: a direct
	// navigation is cheaper for the user than a further search.
	ScoreBaseURL        = 1000.0
	ScoreBaseSearchTerm = 900.0

	// Closeness bonuses
	ScoreExactHost  = 200.0 // query equals the URL host
	ScoreExactText  = 130.0 // query equals the full search phrase
	ScorePrefixHost = 150.0 // query is a strict prefix of the host
	ScorePrefixText = 100.0 // query is a strict prefix of the phrase
	ScorePathPrefix = 70.0  // query extends past the host into the path

	// Source bonuses. History starts penalized relative to popular and
	// recent entries but earns a large bonus when it maps to the user's
	// active workspace category.
	ScorePopularBonus   = 20.0
	ScoreRecentBonus    = 10.0
	ScoreHistoryPenalty = -20.0
	ScoreWorkspaceBonus = 80.0

	// Usage weighting: logarithmic frequency plus a recency ramp that
	// decays linearly to zero over RecencyWindow since last use.
	ScoreFrequencyWeight = 12.0
	ScoreRecencyMax      = 36.0
	RecencyWindow        = 36 * time.Hour
)

// ScoreContext carries the per-candidate ranking inputs that live
// outside the candidate itself.
type ScoreContext struct {
	Usage          *UsageStat // nil when the candidate was never selected
	WorkspaceMatch bool       // candidate host maps to the active workspace
	Now            time.Time  // zero value means time.Now()
}

// ScoreCandidate computes the rank score for a candidate against a
// normalized query. Higher wins.
func ScoreCandidate(q string, c Candidate, sc ScoreContext) float64 {
	score := baseScore(c)
	score += closenessBonus(q, c)
	score += sourceBonus(c, sc.WorkspaceMatch)
	score += usageBonus(sc.Usage, sc.Now)
	return score
}

func baseScore(c Candidate) float64 {
	if c.Kind == KindURL {
		return ScoreBaseURL
	}
	return ScoreBaseSearchTerm
}

func closenessBonus(q string, c Candidate) float64 {
	if q == "" {
		return 0.0
	}

	if c.Kind == KindSearchTerm {
		text := strings.ToLower(c.Text)
		switch {
		case text == q:
			return ScoreExactText
		case strings.HasPrefix(text, q):
			return ScorePrefixText
		}
		return 0.0
	}

	host := HostOf(c.URL)
	bare := strings.TrimPrefix(host, "www.")
	switch {
	case host == q || bare == q:
		return ScoreExactHost
	case strings.HasPrefix(host, q) || strings.HasPrefix(bare, q):
		return ScorePrefixHost
	case pathPrefixMatch(q, c.URL):
		return ScorePathPrefix
	}
	return 0.0
}

// pathPrefixMatch reports whether the query extends past the hostname
// into the URL path, e.g. "github.com/feed" against https://github.com/feed/x.
func pathPrefixMatch(q, rawURL string) bool {
	if !strings.ContainsRune(q, '/') {
		return false
	}
	trimmed := strings.ToLower(rawURL)
	if i := strings.Index(trimmed, "://"); i != -1 {
		trimmed = trimmed[i+3:]
	}
	trimmed = strings.TrimPrefix(trimmed, "www.")
	return strings.HasPrefix(trimmed, strings.TrimPrefix(q, "www."))
}

func sourceBonus(c Candidate, workspaceMatch bool) float64 {
	switch c.Source {
	case SourcePopular:
		return ScorePopularBonus
	case SourceRecent:
		return ScoreRecentBonus
	case SourceHistory:
		bonus := ScoreHistoryPenalty
		if workspaceMatch {
			bonus += ScoreWorkspaceBonus
		}
		return bonus
	}
	return 0.0
}

func usageBonus(stat *UsageStat, now time.Time) float64 {
	if stat == nil || stat.Count <= 0 {
		return 0.0
	}
	if now.IsZero() {
		now = time.Now()
	}

	bonus := ScoreFrequencyWeight * math.Log10(float64(stat.Count)+1)

	age := now.Sub(stat.LastUsedAt)
	if age >= 0 && age < RecencyWindow {
		bonus += ScoreRecencyMax * (1.0 - float64(age)/float64(RecencyWindow))
	}
	return bonus
}

// SortCandidates orders candidates by descending score. Ties are broken
// by kind (URL before SearchTerm) and then by insertion order, so the
// ordering is deterministic for a fixed input.
func SortCandidates(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Kind == KindURL && candidates[j].Kind != KindURL
	})
}
