// Package suggest implements the query box suggestion engine: local
// sources are merged, deduplicated, filtered, scored and capped
// synchronously, while remote autocomplete results arrive through a
// second delivery that can never override a newer keystroke.
package suggest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
)

const (
	// DefaultMaxVisible is the size of the visible suggestion window.
	DefaultMaxVisible = 7
	// DefaultMaxTotal is the soft cap on the full candidate list.
	DefaultMaxTotal = 48

	mutationTimeout = 2 * time.Second
)

// RemoteCompleter fetches completion phrases from a remote provider.
type RemoteCompleter interface {
	Complete(ctx context.Context, query string) ([]string, error)
}

// MutationStore persists selection, hide and history mutations.
type MutationStore interface {
	PushRecent(ctx context.Context, phrase string) error
	SaveUsage(ctx context.Context, key string, stat domain.UsageStat) error
	DeleteUsage(ctx context.Context, key string) error
	AddBlocked(ctx context.Context, key string) error
	SaveHistoryEntry(ctx context.Context, entry domain.HistoryEntry) error
}

// Result is one delivery of suggestions for a query.
type Result struct {
	// Seq orders deliveries: a result with a lower Seq than one
	// already rendered must be dropped.
	Seq uint64
	// Query is the raw input the result was computed for.
	Query string
	// Suggestions is the visible window, best first (or edge-biased,
	// see Options.EdgeBias).
	Suggestions []domain.Candidate
	// Extra holds candidates beyond the visible window, up to the
	// total cap.
	Extra []domain.Candidate
	// Ghost is the full completion text for inline display, empty
	// when no candidate extends the typed input.
	Ghost string
	// Remote reports whether remote phrases were merged in.
	Remote bool
}

// Mode tunes a single query.
type Mode struct {
	// TextOnly drops URL candidates entirely; the AI prompt box wants
	// search phrases, not navigation targets.
	TextOnly bool
	// ActiveWorkspace is the workspace category the user is currently
	// in. History candidates whose host maps to it earn a relevance
	// bonus; empty means no workspace is active.
	ActiveWorkspace string
}

// Options tunes the engine.
type Options struct {
	MaxVisible int
	MaxTotal   int
	// EdgeBias reverses the visible window so the strongest item sits
	// adjacent to the input field when the dropdown opens upward.
	EdgeBias bool
}

// Engine merges suggestion sources over the memory index.
type Engine struct {
	index  *index.Memory
	remote RemoteCompleter
	store  MutationStore
	logger logger.Logger
	opts   Options

	seq        atomic.Uint64
	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

// NewEngine creates a suggestion engine. The remote completer and the
// mutation store may be nil; the engine then runs on local sources and
// memory only.
func NewEngine(idx *index.Memory, remote RemoteCompleter, store MutationStore, log logger.Logger, opts Options) *Engine {
	if opts.MaxVisible <= 0 {
		opts.MaxVisible = DefaultMaxVisible
	}
	if opts.MaxTotal <= 0 {
		opts.MaxTotal = DefaultMaxTotal
	}
	return &Engine{
		index:  idx,
		remote: remote,
		store:  store,
		logger: log,
		opts:   opts,
	}
}

// Suggest computes suggestions for the typed input. The local result
// is returned synchronously. When a remote completer is configured and
// deliver is non-nil, a second result including remote phrases is
// delivered asynchronously unless a newer call supersedes this one
// first. Starting a new call cancels the previous in-flight remote
// request.
func (e *Engine) Suggest(ctx context.Context, input string, deliver func(Result)) Result {
	return e.SuggestMode(ctx, input, Mode{}, deliver)
}

// SuggestMode is Suggest with per-query tuning.
func (e *Engine) SuggestMode(ctx context.Context, input string, mode Mode, deliver func(Result)) Result {
	q := domain.NormalizeQuery(input)
	id := e.seq.Add(1)

	local := e.build(input, q, mode, nil)
	local.Seq = id

	if e.remote == nil || deliver == nil || len(q) < 2 {
		return local
	}

	e.mu.Lock()
	if e.cancelPrev != nil {
		e.cancelPrev()
	}
	remoteCtx, cancel := context.WithCancel(ctx)
	e.cancelPrev = cancel
	e.mu.Unlock()

	go func() {
		defer cancel()

		phrases, err := e.remote.Complete(remoteCtx, q)
		if err != nil {
			// A slow or failing provider costs nothing but the
			// remote stream.
			e.logger.Debug("remote autocomplete unavailable",
				logger.String("query", q),
				logger.Error(err))
			return
		}

		if e.seq.Load() != id {
			return // superseded by a newer keystroke
		}

		merged := e.build(input, q, mode, phrases)
		merged.Seq = id
		merged.Remote = true

		if e.seq.Load() != id {
			return
		}
		deliver(merged)
	}()

	return local
}

// RecordSelection registers that a suggestion was chosen: usage stats
// are bumped and search phrases join the recents list. Persistence is
// fire-and-forget.
func (e *Engine) RecordSelection(c domain.Candidate) {
	key := c.Key()
	e.index.RecordUsage(key)
	if c.Kind == domain.KindSearchTerm {
		e.index.AppendRecent(c.Text)
	}

	if e.store == nil {
		return
	}
	stat, _ := e.index.Usage(key)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		if err := e.store.SaveUsage(ctx, key, stat); err != nil {
			e.logger.Warn("failed to persist usage stat", logger.Error(err))
		}
		if c.Kind == domain.KindSearchTerm {
			if err := e.store.PushRecent(ctx, c.Text); err != nil {
				e.logger.Warn("failed to persist recent search", logger.Error(err))
			}
		}
	}()
}

// RecordVisit caches a browsing-history entry so it can surface as a
// history suggestion. Persistence is fire-and-forget.
func (e *Engine) RecordVisit(entry domain.HistoryEntry) {
	if entry.VisitedAt.IsZero() {
		entry.VisitedAt = time.Now()
	}
	e.index.AppendHistory(entry)

	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		if err := e.store.SaveHistoryEntry(ctx, entry); err != nil {
			e.logger.Warn("failed to persist history entry", logger.Error(err))
		}
	}()
}

// Hide blocks a suggestion from appearing again: URL candidates block
// the whole host, search terms block the exact phrase. Any usage stat
// for the candidate is dropped so it cannot resurface through scoring.
func (e *Engine) Hide(c domain.Candidate) {
	blockKey := c.BlockKey()
	key := c.Key()

	e.index.Block(blockKey)
	e.index.RemoveUsage(key)

	if e.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		if err := e.store.AddBlocked(ctx, blockKey); err != nil {
			e.logger.Warn("failed to persist blocklist key", logger.Error(err))
		}
		if err := e.store.DeleteUsage(ctx, key); err != nil {
			e.logger.Warn("failed to drop usage stat", logger.Error(err))
		}
	}()
}
