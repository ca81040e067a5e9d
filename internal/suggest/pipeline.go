package suggest

import (
	"strings"
	"time"

	"github.com/launchpane/querybox/internal/domain"
)

// build runs the full pipeline for one query: collect streams in
// order, dedup first-wins, filter, score, sort, interleave and cap.
func (e *Engine) build(input, q string, mode Mode, remotePhrases []string) Result {
	now := time.Now()

	candidates := e.collect(input, q, mode, remotePhrases)

	for i := range candidates {
		if candidates[i].Source == domain.SourceTyped {
			continue
		}
		candidates[i].Score = e.score(q, candidates[i], mode, now)
	}

	// Typed echo stays pinned in front; everything behind it sorts by
	// score.
	sortFrom := 0
	if len(candidates) > 0 && candidates[0].Source == domain.SourceTyped {
		sortFrom = 1
	}
	domain.SortCandidates(candidates[sortFrom:])

	if len(candidates) > e.opts.MaxTotal {
		candidates = candidates[:e.opts.MaxTotal]
	}

	visible := interleave(candidates, sortFrom, e.opts.MaxVisible)

	shown := make(map[string]struct{}, len(visible))
	for _, c := range visible {
		shown[c.Key()] = struct{}{}
	}
	var extra []domain.Candidate
	for _, c := range candidates {
		if _, ok := shown[c.Key()]; !ok {
			extra = append(extra, c)
		}
	}

	ghost := ghostCompletion(input, visible)

	if e.opts.EdgeBias {
		reverse(visible)
	}

	return Result{
		Query:       input,
		Suggestions: visible,
		Extra:       extra,
		Ghost:       ghost,
	}
}

// collect gathers candidates from every stream in priority order with
// dedup (first occurrence wins), the blocklist and the minimum length
// gate applied. The typed echo bypasses both filters.
func (e *Engine) collect(input, q string, mode Mode, remotePhrases []string) []domain.Candidate {
	var out []domain.Candidate
	seen := make(map[string]struct{})

	add := func(c domain.Candidate) {
		if mode.TextOnly && c.Kind == domain.KindURL {
			return
		}
		key := c.Key()
		if _, dup := seen[key]; dup {
			return
		}
		if c.Source != domain.SourceTyped {
			if e.index.Blocked(c.BlockKey()) {
				return
			}
			if c.Kind == domain.KindSearchTerm && !domain.LongEnough(c.Text, q) {
				return
			}
			if !domain.MatchesPrefix(c, q) {
				return
			}
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}

	if trimmed := strings.TrimSpace(input); trimmed != "" {
		echo := domain.Candidate{
			Kind:   domain.KindSearchTerm,
			Text:   trimmed,
			Source: domain.SourceTyped,
		}
		if domain.LooksLikeURL(trimmed) {
			echo.Kind = domain.KindURL
			echo.URL = trimmed
		}
		// A search-term echo is subject to the same length gate as any
		// other phrase; a URL echo always offers direct navigation.
		if echo.Kind == domain.KindURL || domain.LongEnough(echo.Text, q) {
			add(echo)
		}
	}

	for _, phrase := range e.index.Recents() {
		add(domain.Candidate{
			Kind:   domain.KindSearchTerm,
			Text:   phrase,
			Source: domain.SourceRecent,
		})
	}

	for _, entry := range e.index.History() {
		add(domain.Candidate{
			Kind:   domain.KindURL,
			Text:   entry.Title,
			URL:    entry.URL,
			Source: domain.SourceHistory,
		})
	}

	for _, entry := range e.index.Curated() {
		add(domain.Candidate{
			Kind:   domain.KindURL,
			Text:   entry.Title,
			URL:    entry.URL,
			Source: domain.SourcePopular,
		})
	}

	for _, phrase := range remotePhrases {
		add(domain.Candidate{
			Kind:   domain.KindSearchTerm,
			Text:   phrase,
			Source: domain.SourceRemote,
		})
	}

	return out
}

// score computes a candidate score using the usage stats and the
// workspace table from the index. The workspace bonus applies only
// when the candidate's host maps to the currently active workspace.
func (e *Engine) score(q string, c domain.Candidate, mode Mode, now time.Time) float64 {
	sc := domain.ScoreContext{Now: now}

	if stat, ok := e.index.Usage(c.Key()); ok {
		sc.Usage = &stat
	}
	if c.Kind == domain.KindURL && mode.ActiveWorkspace != "" {
		sc.WorkspaceMatch = e.index.CategoryForHost(domain.HostOf(c.URL)) == mode.ActiveWorkspace
	}

	return domain.ScoreCandidate(q, c, sc)
}

// interleave fills the visible window alternating between URL and
// search-term candidates so neither kind monopolizes it. Positions
// before pinned are copied through untouched. When one kind runs out
// the window is topped up from the other in score order.
func interleave(candidates []domain.Candidate, pinned, maxVisible int) []domain.Candidate {
	if len(candidates) <= pinned {
		return append([]domain.Candidate(nil), candidates...)
	}

	visible := make([]domain.Candidate, 0, maxVisible)
	visible = append(visible, candidates[:pinned]...)

	var urls, terms []domain.Candidate
	for _, c := range candidates[pinned:] {
		if c.Kind == domain.KindURL {
			urls = append(urls, c)
		} else {
			terms = append(terms, c)
		}
	}

	// Start with the kind of the strongest candidate.
	pickURL := len(urls) > 0 && (len(terms) == 0 || urls[0].Score >= terms[0].Score)
	for len(visible) < maxVisible && (len(urls) > 0 || len(terms) > 0) {
		switch {
		case pickURL && len(urls) > 0:
			visible = append(visible, urls[0])
			urls = urls[1:]
		case len(terms) > 0:
			visible = append(visible, terms[0])
			terms = terms[1:]
		default:
			visible = append(visible, urls[0])
			urls = urls[1:]
		}
		pickURL = !pickURL
	}

	return visible
}

// ghostCompletion picks the inline completion: the first visible
// candidate whose text or host extends exactly what was typed.
func ghostCompletion(input string, visible []domain.Candidate) string {
	typed := strings.ToLower(strings.TrimSpace(input))
	if typed == "" {
		return ""
	}

	for _, c := range visible {
		if c.Source == domain.SourceTyped {
			continue
		}
		if c.Kind == domain.KindSearchTerm {
			if strings.HasPrefix(strings.ToLower(c.Text), typed) && len(c.Text) > len(typed) {
				return c.Text
			}
			continue
		}
		host := domain.HostOf(c.URL)
		if strings.HasPrefix(host, typed) && len(host) > len(typed) {
			return host
		}
		if bare := strings.TrimPrefix(host, "www."); strings.HasPrefix(bare, typed) && len(bare) > len(typed) {
			return bare
		}
	}
	return ""
}

func reverse(s []domain.Candidate) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
