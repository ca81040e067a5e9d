package scheduler

import (
	"context"

	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/logger"
	redisstore "github.com/launchpane/querybox/internal/store/redis"
)

// RedisSyncer loads the persisted suggestion state from Redis into the
// memory index on startup.
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.Memory
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.Memory,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads recents, history, usage stats and the blocklist from
// Redis and updates the memory index.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	rs.logger.Info("syncing suggestion state from redis to memory")

	recents, err := rs.store.GetRecents(ctx)
	if err != nil {
		return err
	}
	rs.index.SetRecents(recents)

	history, err := rs.store.GetHistory(ctx)
	if err != nil {
		return err
	}
	rs.index.UpdateHistory(history)

	usage, err := rs.store.GetAllUsage(ctx)
	if err != nil {
		return err
	}
	rs.index.SetUsage(usage)

	blocklist, err := rs.store.GetBlocklist(ctx)
	if err != nil {
		return err
	}
	rs.index.SetBlocklist(blocklist)

	rs.logger.Info("synced suggestion state from redis",
		logger.Int("recents", len(recents)),
		logger.Int("history", len(history)),
		logger.Int("usage", len(usage)),
		logger.Int("blocklist", len(blocklist)))

	return nil
}
