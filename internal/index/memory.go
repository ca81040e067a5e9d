package index

import (
	"strings"
	"sync"
	"time"

	"github.com/launchpane/querybox/internal/domain"
)

// MaxRecents bounds the recent-search window kept in the index.
const MaxRecents = 100

// Memory provides in-memory storage and lookup for everything the
// suggestion engine reads on the hot path: curated entries, the
// workspace table, recent searches, the browsing-history cache, usage
// stats and the blocklist. It mirrors the Redis store and acts as a
// fallback when Redis is unavailable.
type Memory struct {
	mu         sync.RWMutex
	curated    []domain.CuratedEntry
	workspaces map[string]string // host -> workspace category
	recents    []string          // newest first
	history    []domain.HistoryEntry
	usage      map[string]domain.UsageStat // candidate key -> stat
	blocklist  map[string]struct{}         // block key set

	lastCuratedReload time.Time
}

// NewMemory creates an empty index.
func NewMemory() *Memory {
	return &Memory{
		workspaces: make(map[string]string),
		usage:      make(map[string]domain.UsageStat),
		blocklist:  make(map[string]struct{}),
	}
}

// ─────────────────────────────────────────────────────────────────
// Curated entries and workspaces
// ─────────────────────────────────────────────────────────────────

// UpdateCurated replaces the curated entries and the workspace table.
func (idx *Memory) UpdateCurated(entries []domain.CuratedEntry, workspaces map[string]string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.curated = append([]domain.CuratedEntry(nil), entries...)
	if workspaces == nil {
		workspaces = make(map[string]string)
	}
	idx.workspaces = workspaces
	idx.lastCuratedReload = time.Now()
}

// Curated returns the curated URL list.
func (idx *Memory) Curated() []domain.CuratedEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]domain.CuratedEntry(nil), idx.curated...)
}

// CategoryForHost returns the workspace category a host belongs to,
// or "" when the host is unmapped.
func (idx *Memory) CategoryForHost(host string) string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.workspaces[strings.ToLower(host)]
}

// CuratedCount returns the number of curated entries.
func (idx *Memory) CuratedCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.curated)
}

// LastCuratedReload returns the timestamp of the last curated reload.
func (idx *Memory) LastCuratedReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastCuratedReload
}

// ─────────────────────────────────────────────────────────────────
// Recent searches
// ─────────────────────────────────────────────────────────────────

// SetRecents replaces the recent-search list (newest first).
func (idx *Memory) SetRecents(recents []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if len(recents) > MaxRecents {
		recents = recents[:MaxRecents]
	}
	idx.recents = append([]string(nil), recents...)
}

// AppendRecent pushes a search phrase to the front of the recents,
// dropping an earlier duplicate and trimming to MaxRecents.
func (idx *Memory) AppendRecent(phrase string) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	next := make([]string, 0, len(idx.recents)+1)
	next = append(next, phrase)
	for _, r := range idx.recents {
		if strings.EqualFold(r, phrase) {
			continue
		}
		next = append(next, r)
	}
	if len(next) > MaxRecents {
		next = next[:MaxRecents]
	}
	idx.recents = next
}

// Recents returns the recent searches, newest first.
func (idx *Memory) Recents() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]string(nil), idx.recents...)
}

// ─────────────────────────────────────────────────────────────────
// Browsing-history cache
// ─────────────────────────────────────────────────────────────────

// UpdateHistory replaces the browsing-history cache.
func (idx *Memory) UpdateHistory(entries []domain.HistoryEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.history = append([]domain.HistoryEntry(nil), entries...)
}

// AppendHistory adds one browsing-history entry, replacing any cached
// entry for the same URL.
func (idx *Memory) AppendHistory(entry domain.HistoryEntry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	url := strings.ToLower(entry.URL)
	for i := range idx.history {
		if strings.ToLower(idx.history[i].URL) == url {
			idx.history[i] = entry
			return
		}
	}
	idx.history = append(idx.history, entry)
}

// History returns the cached browsing-history entries.
func (idx *Memory) History() []domain.HistoryEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]domain.HistoryEntry(nil), idx.history...)
}

// PruneHistory drops cached history entries visited before the cutoff
// and returns how many were removed.
func (idx *Memory) PruneHistory(cutoff time.Time) int {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	kept := idx.history[:0]
	for _, entry := range idx.history {
		if !entry.VisitedAt.IsZero() && entry.VisitedAt.Before(cutoff) {
			continue
		}
		kept = append(kept, entry)
	}
	removed := len(idx.history) - len(kept)
	idx.history = kept
	return removed
}

// ─────────────────────────────────────────────────────────────────
// Usage stats
// ─────────────────────────────────────────────────────────────────

// SetUsage replaces the usage stats map.
func (idx *Memory) SetUsage(stats map[string]domain.UsageStat) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if stats == nil {
		stats = make(map[string]domain.UsageStat)
	}
	idx.usage = stats
}

// Usage returns the usage stat for a candidate key.
func (idx *Memory) Usage(key string) (domain.UsageStat, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	stat, ok := idx.usage[key]
	return stat, ok
}

// RecordUsage increments the counter for a candidate key and stamps it.
func (idx *Memory) RecordUsage(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	stat := idx.usage[key]
	stat.Count++
	stat.LastUsedAt = time.Now()
	idx.usage[key] = stat
}

// RemoveUsage deletes the stat for a candidate key.
func (idx *Memory) RemoveUsage(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.usage, key)
}

// ─────────────────────────────────────────────────────────────────
// Blocklist
// ─────────────────────────────────────────────────────────────────

// SetBlocklist replaces the blocklist.
func (idx *Memory) SetBlocklist(keys []string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.blocklist = make(map[string]struct{}, len(keys))
	for _, k := range keys {
		idx.blocklist[strings.ToLower(k)] = struct{}{}
	}
}

// Block adds a block key.
func (idx *Memory) Block(key string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.blocklist[strings.ToLower(key)] = struct{}{}
}

// Blocked reports whether a block key is present.
func (idx *Memory) Blocked(key string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	_, ok := idx.blocklist[strings.ToLower(key)]
	return ok
}
