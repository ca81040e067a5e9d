// Package websearch fetches web results used to ground AI answers in
// current information. Two provider styles are supported plus a
// fallback wrapper that tries a secondary provider when the primary
// fails or comes back empty.
package websearch

import (
	"context"
	"time"

	"github.com/launchpane/querybox/internal/domain"
)

// DefaultBudget bounds a full search attempt, fallback included.
const DefaultBudget = 12 * time.Second

// DefaultLimit is the number of results requested from a provider.
const DefaultLimit = 5

// Searcher retrieves web results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.WebSource, error)
}
