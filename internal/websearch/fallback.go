package websearch

import (
	"context"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/logger"
)

// FallbackSearcher tries a primary provider and falls back to a
// secondary when the primary errors or returns nothing. The whole
// attempt shares one time budget so a slow primary cannot starve the
// fallback.
type FallbackSearcher struct {
	primary   Searcher
	secondary Searcher
	budget    time.Duration
	logger    logger.Logger
}

// NewFallbackSearcher wraps two searchers. A nil secondary disables
// the fallback; a non-positive budget falls back to DefaultBudget.
func NewFallbackSearcher(primary, secondary Searcher, budget time.Duration, log logger.Logger) *FallbackSearcher {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &FallbackSearcher{
		primary:   primary,
		secondary: secondary,
		budget:    budget,
		logger:    log,
	}
}

// Search retrieves web results, trying the secondary provider when
// the primary fails or comes back empty.
func (f *FallbackSearcher) Search(ctx context.Context, query string, limit int) ([]domain.WebSource, error) {
	ctx, cancel := context.WithTimeout(ctx, f.budget)
	defer cancel()

	results, err := f.primary.Search(ctx, query, limit)
	if err == nil && len(results) > 0 {
		return results, nil
	}

	if f.secondary == nil {
		return results, err
	}

	if err != nil {
		f.logger.Warn("primary search provider failed, trying fallback",
			logger.Error(err))
	} else {
		f.logger.Debug("primary search provider returned no results, trying fallback")
	}

	return f.secondary.Search(ctx, query, limit)
}
