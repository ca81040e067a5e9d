package scheduler

import (
	"context"
	"time"

	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
	redisstore "github.com/launchpane/querybox/internal/store/redis"
)

const (
	// DefaultGCThreshold is the age after which cached history entries are deleted
	DefaultGCThreshold = 30 * 24 * time.Hour // 30 days
)

// HistoryGC handles cleanup of stale browsing-history cache entries
type HistoryGC struct {
	store     *redisstore.Store
	index     *index.Memory
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	stopCh    chan struct{}
}

// NewHistoryGC creates a new history garbage collector
func NewHistoryGC(
	store *redisstore.Store,
	idx *index.Memory,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *HistoryGC {
	if threshold == 0 {
		threshold = DefaultGCThreshold
	}

	return &HistoryGC{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *HistoryGC) Start(ctx context.Context) error {
	// Run immediately on start
	if err := gc.Collect(ctx); err != nil {
		gc.logger.Warn("initial garbage collection failed",
			logger.Error(err))
	}

	// Start periodic collection
	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := gc.Collect(ctx); err != nil {
					gc.logger.Error("garbage collection failed",
						logger.Error(err))
				}
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *HistoryGC) Stop() {
	close(gc.stopCh)
}

// Collect prunes history entries older than the threshold from the
// index and, when a store is configured, from Redis.
func (gc *HistoryGC) Collect(ctx context.Context) error {
	cutoff := time.Now().Add(-gc.threshold)

	removed := gc.index.PruneHistory(cutoff)

	if gc.store != nil {
		persisted, err := gc.store.PruneHistory(ctx, cutoff)
		if err != nil {
			return err
		}
		if persisted > removed {
			removed = persisted
		}
	}

	if removed > 0 {
		gc.logger.Info("pruned stale history entries",
			logger.Int("removed", removed))
	}

	return nil
}
