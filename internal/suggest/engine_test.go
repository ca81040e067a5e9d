package suggest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
)

type stubRemote struct {
	mu      sync.Mutex
	phrases map[string][]string
	delay   time.Duration
	calls   int
}

func (s *stubRemote) Complete(ctx context.Context, query string) ([]string, error) {
	s.mu.Lock()
	s.calls++
	delay := s.delay
	phrases := s.phrases[query]
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return phrases, nil
}

func newTestIndex() *index.Memory {
	idx := index.NewMemory()
	idx.UpdateCurated([]domain.CuratedEntry{
		{Title: "GitHub", URL: "https://github.com", Category: "dev"},
		{Title: "GitLab", URL: "https://gitlab.com", Category: "dev"},
		{Title: "Hacker News", URL: "https://news.ycombinator.com"},
	}, map[string]string{"github.com": "dev", "gitlab.com": "dev"})
	idx.SetRecents([]string{"github actions", "golang generics"})
	idx.UpdateHistory([]domain.HistoryEntry{
		{Title: "Git Book", URL: "https://git-scm.com/book", VisitedAt: time.Now().Add(-time.Hour)},
	})
	return idx
}

func newTestEngine(idx *index.Memory, remote RemoteCompleter, opts Options) *Engine {
	return NewEngine(idx, remote, nil, logger.New("error", false), opts)
}

func findCandidate(list []domain.Candidate, match func(domain.Candidate) bool) (domain.Candidate, bool) {
	for _, c := range list {
		if match(c) {
			return c, true
		}
	}
	return domain.Candidate{}, false
}

func allCandidates(r Result) []domain.Candidate {
	return append(append([]domain.Candidate(nil), r.Suggestions...), r.Extra...)
}

func TestSuggestGitScenario(t *testing.T) {
	idx := newTestIndex()
	remote := &stubRemote{phrases: map[string][]string{
		"git": {"git tutorial", "git"},
	}}
	engine := newTestEngine(idx, remote, Options{})

	delivered := make(chan Result, 1)
	local := engine.Suggest(context.Background(), "git", func(r Result) { delivered <- r })

	if len(local.Suggestions) == 0 {
		t.Fatal("expected local suggestions")
	}
	// The 3-char input fails its own length gate, so it is not echoed.
	if _, ok := findCandidate(allCandidates(local), func(c domain.Candidate) bool {
		return c.Source == domain.SourceTyped
	}); ok {
		t.Error("expected no typed echo for a too-short query")
	}
	if _, ok := findCandidate(allCandidates(local), func(c domain.Candidate) bool {
		return c.URL == "https://github.com"
	}); !ok {
		t.Error("expected github.com in local suggestions")
	}

	var merged Result
	select {
	case merged = <-delivered:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for remote delivery")
	}

	if !merged.Remote {
		t.Error("expected merged result to be marked remote")
	}
	all := allCandidates(merged)
	if _, ok := findCandidate(all, func(c domain.Candidate) bool {
		return c.Text == "git tutorial" && c.Source == domain.SourceRemote
	}); !ok {
		t.Error("expected remote phrase in merged suggestions")
	}
	if _, ok := findCandidate(all, func(c domain.Candidate) bool {
		return c.Text == "github actions"
	}); !ok {
		t.Error("expected recent search in merged suggestions")
	}
	// The bare phrase fails the minimum length gate for a 3-char query.
	if _, ok := findCandidate(all, func(c domain.Candidate) bool {
		return c.Text == "git" && c.Source == domain.SourceRemote
	}); ok {
		t.Error("expected literal query phrase excluded")
	}
}

func TestSuggestDedupFirstWins(t *testing.T) {
	idx := newTestIndex()
	remote := &stubRemote{phrases: map[string][]string{
		"github": {"github actions"},
	}}
	engine := newTestEngine(idx, remote, Options{})

	delivered := make(chan Result, 1)
	engine.Suggest(context.Background(), "github", func(r Result) { delivered <- r })

	merged := <-delivered
	count := 0
	var kept domain.Candidate
	for _, c := range allCandidates(merged) {
		if strings.EqualFold(c.Text, "github actions") {
			count++
			kept = c
		}
	}
	if count != 1 {
		t.Fatalf("expected 1 instance of duplicate phrase, got %d", count)
	}
	if kept.Source != domain.SourceRecent {
		t.Errorf("expected earlier stream to win, got source %q", kept.Source)
	}
}

func TestSuggestBlocklist(t *testing.T) {
	idx := newTestIndex()
	idx.Block("host:github.com")
	engine := newTestEngine(idx, nil, Options{})

	result := engine.Suggest(context.Background(), "git", nil)
	if _, ok := findCandidate(allCandidates(result), func(c domain.Candidate) bool {
		return c.URL == "https://github.com"
	}); ok {
		t.Error("expected blocked host excluded")
	}
}

func TestSuggestVisibleCap(t *testing.T) {
	idx := index.NewMemory()
	entries := make([]domain.CuratedEntry, 0, 20)
	for _, host := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		entries = append(entries, domain.CuratedEntry{
			Title: "gopher " + host,
			URL:   "https://gopher-" + host + ".dev",
		})
	}
	idx.UpdateCurated(entries, nil)
	recents := make([]string, 0, 10)
	for _, s := range []string{"one", "two", "three", "four", "five", "six", "seven", "eight"} {
		recents = append(recents, "gopher "+s)
	}
	idx.SetRecents(recents)

	engine := newTestEngine(idx, nil, Options{})

	result := engine.Suggest(context.Background(), "gopher", nil)
	if len(result.Suggestions) != DefaultMaxVisible {
		t.Fatalf("expected %d visible suggestions, got %d", DefaultMaxVisible, len(result.Suggestions))
	}

	var hasURL, hasTerm bool
	for _, c := range result.Suggestions {
		switch c.Kind {
		case domain.KindURL:
			hasURL = true
		case domain.KindSearchTerm:
			hasTerm = true
		}
	}
	if !hasURL || !hasTerm {
		t.Errorf("expected both kinds in visible window: url=%v term=%v", hasURL, hasTerm)
	}
}

func TestSuggestNewerKeystrokeWins(t *testing.T) {
	idx := newTestIndex()
	remote := &stubRemote{
		phrases: map[string][]string{
			"git":    {"git tutorial"},
			"github": {"github pages"},
		},
		delay: 50 * time.Millisecond,
	}
	engine := newTestEngine(idx, remote, Options{})

	var mu sync.Mutex
	var deliveries []Result
	deliver := func(r Result) {
		mu.Lock()
		deliveries = append(deliveries, r)
		mu.Unlock()
	}

	first := engine.Suggest(context.Background(), "git", deliver)
	second := engine.Suggest(context.Background(), "github", deliver)

	if second.Seq <= first.Seq {
		t.Fatalf("expected monotonic sequence, got %d then %d", first.Seq, second.Seq)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, d := range deliveries {
		if d.Seq != second.Seq {
			t.Errorf("stale delivery leaked: seq=%d query=%q", d.Seq, d.Query)
		}
	}
}

func TestSuggestGhostCompletion(t *testing.T) {
	idx := newTestIndex()
	engine := newTestEngine(idx, nil, Options{})

	result := engine.Suggest(context.Background(), "gith", nil)
	if result.Ghost != "github.com" {
		t.Errorf("expected ghost github.com, got %q", result.Ghost)
	}
}

func TestSuggestEdgeBias(t *testing.T) {
	idx := newTestIndex()
	plain := newTestEngine(idx, nil, Options{})
	biased := newTestEngine(idx, nil, Options{EdgeBias: true})

	a := plain.Suggest(context.Background(), "git", nil)
	b := biased.Suggest(context.Background(), "git", nil)

	if len(a.Suggestions) != len(b.Suggestions) {
		t.Fatalf("expected same window size, got %d and %d", len(a.Suggestions), len(b.Suggestions))
	}
	last := b.Suggestions[len(b.Suggestions)-1]
	first := a.Suggestions[0]
	if last.Key() != first.Key() {
		t.Errorf("expected strongest candidate adjacent to input, got %+v", last)
	}
}

func TestSuggestTypedURLEcho(t *testing.T) {
	idx := index.NewMemory()
	engine := newTestEngine(idx, nil, Options{})

	result := engine.Suggest(context.Background(), "git-scm.com/book", nil)
	if len(result.Suggestions) == 0 {
		t.Fatal("expected the typed URL to be echoed")
	}
	got := result.Suggestions[0]
	if got.Source != domain.SourceTyped || got.Kind != domain.KindURL {
		t.Errorf("expected a typed URL candidate, got %+v", got)
	}
	if got.URL != "git-scm.com/book" {
		t.Errorf("unexpected echo url %q", got.URL)
	}
}

func TestSuggestSoftCapAndIdempotence(t *testing.T) {
	idx := index.NewMemory()
	entries := make([]domain.HistoryEntry, 0, 60)
	for i := 0; i < 60; i++ {
		entries = append(entries, domain.HistoryEntry{
			Title:     fmt.Sprintf("Site %02d", i),
			URL:       fmt.Sprintf("https://site%02d.example.com", i),
			VisitedAt: time.Now().Add(-time.Duration(i) * time.Minute),
		})
	}
	idx.UpdateHistory(entries)
	engine := newTestEngine(idx, nil, Options{})

	first := engine.Suggest(context.Background(), "site", nil)
	if got := len(first.Suggestions); got > DefaultMaxVisible {
		t.Errorf("visible window over cap: %d", got)
	}
	if total := len(first.Suggestions) + len(first.Extra); total > DefaultMaxTotal {
		t.Errorf("total over soft cap: %d", total)
	}
	if total := len(first.Suggestions) + len(first.Extra); total != DefaultMaxTotal {
		t.Errorf("expected the soft cap to be reached with 60 candidates, got %d", total)
	}

	second := engine.Suggest(context.Background(), "site", nil)
	firstAll := allCandidates(first)
	secondAll := allCandidates(second)
	if len(firstAll) != len(secondAll) {
		t.Fatalf("repeated call changed result size: %d vs %d", len(firstAll), len(secondAll))
	}
	for i := range firstAll {
		if firstAll[i].Key() != secondAll[i].Key() {
			t.Fatalf("ordering not deterministic at %d: %s vs %s",
				i, firstAll[i].Key(), secondAll[i].Key())
		}
	}
}

func TestSuggestActiveWorkspaceBonus(t *testing.T) {
	idx := index.NewMemory()
	idx.UpdateCurated([]domain.CuratedEntry{
		{Title: "placeholder", URL: "https://example.com"},
	}, map[string]string{"gopherdev.com": "dev", "gophernews.com": "news"})
	idx.UpdateHistory([]domain.HistoryEntry{
		{Title: "Gopher Dev", URL: "https://gopherdev.com", VisitedAt: time.Now()},
		{Title: "Gopher News", URL: "https://gophernews.com", VisitedAt: time.Now()},
	})
	engine := newTestEngine(idx, nil, Options{})

	score := func(mode Mode, url string) float64 {
		result := engine.SuggestMode(context.Background(), "gopher", mode, nil)
		c, ok := findCandidate(allCandidates(result), func(c domain.Candidate) bool {
			return c.URL == url
		})
		if !ok {
			t.Fatalf("expected %s in suggestions", url)
		}
		return c.Score
	}

	// Without an active workspace no history host earns the bonus.
	dev := score(Mode{}, "https://gopherdev.com")
	news := score(Mode{}, "https://gophernews.com")
	if dev != news {
		t.Errorf("expected equal scores without a workspace, got %v and %v", dev, news)
	}

	// With "dev" active only the dev host gains.
	devActive := score(Mode{ActiveWorkspace: "dev"}, "https://gopherdev.com")
	newsActive := score(Mode{ActiveWorkspace: "dev"}, "https://gophernews.com")
	if devActive != dev+domain.ScoreWorkspaceBonus {
		t.Errorf("expected workspace bonus for the active category, got %v", devActive)
	}
	if newsActive != news {
		t.Errorf("expected no bonus for the inactive category, got %v", newsActive)
	}
}

func TestSuggestTextOnlyMode(t *testing.T) {
	idx := newTestIndex()
	engine := newTestEngine(idx, nil, Options{})

	result := engine.SuggestMode(context.Background(), "git", Mode{TextOnly: true}, nil)
	for _, c := range allCandidates(result) {
		if c.Kind == domain.KindURL {
			t.Errorf("expected no URL candidates, got %+v", c)
		}
	}
	if _, ok := findCandidate(allCandidates(result), func(c domain.Candidate) bool {
		return c.Text == "github actions"
	}); !ok {
		t.Error("expected recent search to survive text-only mode")
	}
}

func TestRecordSelection(t *testing.T) {
	idx := newTestIndex()
	engine := newTestEngine(idx, nil, Options{})

	c := domain.Candidate{Kind: domain.KindSearchTerm, Text: "rust vs go", Source: domain.SourceRemote}
	engine.RecordSelection(c)

	stat, ok := idx.Usage(c.Key())
	if !ok || stat.Count != 1 {
		t.Errorf("expected usage recorded, got %+v ok=%v", stat, ok)
	}
	recents := idx.Recents()
	if len(recents) == 0 || recents[0] != "rust vs go" {
		t.Errorf("expected phrase in recents, got %v", recents)
	}
}

func TestRecordVisit(t *testing.T) {
	idx := index.NewMemory()
	engine := newTestEngine(idx, nil, Options{})

	engine.RecordVisit(domain.HistoryEntry{Title: "Go Blog", URL: "https://go.dev/blog"})

	history := idx.History()
	if len(history) != 1 || history[0].URL != "https://go.dev/blog" {
		t.Fatalf("expected history entry, got %v", history)
	}
	if history[0].VisitedAt.IsZero() {
		t.Error("expected visit time to be stamped")
	}

	// Same URL updates in place rather than duplicating.
	engine.RecordVisit(domain.HistoryEntry{Title: "The Go Blog", URL: "https://go.dev/blog"})
	history = idx.History()
	if len(history) != 1 || history[0].Title != "The Go Blog" {
		t.Errorf("expected entry replaced, got %v", history)
	}
}

func TestHide(t *testing.T) {
	idx := newTestIndex()
	engine := newTestEngine(idx, nil, Options{})

	c := domain.Candidate{Kind: domain.KindURL, Text: "GitHub", URL: "https://github.com", Source: domain.SourcePopular}
	engine.RecordSelection(c)
	engine.Hide(c)

	if !idx.Blocked("host:github.com") {
		t.Error("expected host blocked")
	}
	if _, ok := idx.Usage(c.Key()); ok {
		t.Error("expected usage stat dropped")
	}

	result := engine.Suggest(context.Background(), "git", nil)
	if _, ok := findCandidate(allCandidates(result), func(cand domain.Candidate) bool {
		return cand.URL == "https://github.com"
	}); ok {
		t.Error("expected hidden host excluded from suggestions")
	}
}
