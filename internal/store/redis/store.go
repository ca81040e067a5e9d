package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/index"
	"github.com/redis/go-redis/v9"
)

// Store handles Redis persistence for the suggestion state and chat
// sessions. The in-memory index stays authoritative for reads; the
// store exists so state survives restarts.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store.
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// ─────────────────────────────────────────────────────────────────
// Recent searches
// ─────────────────────────────────────────────────────────────────

// PushRecent pushes a search phrase to the front of the recents list
// and trims the list to the retention window.
func (s *Store) PushRecent(ctx context.Context, phrase string) error {
	pipe := s.client.TxPipeline()
	pipe.LRem(ctx, KeyRecents, 0, phrase)
	pipe.LPush(ctx, KeyRecents, phrase)
	pipe.LTrim(ctx, KeyRecents, 0, index.MaxRecents-1)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to push recent: %w", err)
	}
	return nil
}

// GetRecents retrieves the recent search phrases, newest first.
func (s *Store) GetRecents(ctx context.Context) ([]string, error) {
	recents, err := s.client.LRange(ctx, KeyRecents, 0, index.MaxRecents-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get recents: %w", err)
	}
	return recents, nil
}

// ─────────────────────────────────────────────────────────────────
// Browsing-history cache
// ─────────────────────────────────────────────────────────────────

// SaveHistoryEntry stores a browsing-history entry keyed by URL.
func (s *Store) SaveHistoryEntry(ctx context.Context, entry domain.HistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	field := strings.ToLower(entry.URL)
	if err := s.client.HSet(ctx, KeyHistory, field, data).Err(); err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// GetHistory retrieves all cached browsing-history entries.
func (s *Store) GetHistory(ctx context.Context) ([]domain.HistoryEntry, error) {
	fields, err := s.client.HGetAll(ctx, KeyHistory).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(fields))
	for _, raw := range fields {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			// Skip entries that couldn't be decoded
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// PruneHistory removes entries visited before the cutoff and returns
// how many were deleted.
func (s *Store) PruneHistory(ctx context.Context, cutoff time.Time) (int, error) {
	fields, err := s.client.HGetAll(ctx, KeyHistory).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get history: %w", err)
	}

	stale := make([]string, 0)
	for field, raw := range fields {
		var entry domain.HistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			stale = append(stale, field)
			continue
		}
		if !entry.VisitedAt.IsZero() && entry.VisitedAt.Before(cutoff) {
			stale = append(stale, field)
		}
	}

	if len(stale) == 0 {
		return 0, nil
	}
	if err := s.client.HDel(ctx, KeyHistory, stale...).Err(); err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return len(stale), nil
}

// ─────────────────────────────────────────────────────────────────
// Usage stats
// ─────────────────────────────────────────────────────────────────

// SaveUsage stores the usage stat for a candidate key.
func (s *Store) SaveUsage(ctx context.Context, key string, stat domain.UsageStat) error {
	data, err := json.Marshal(stat)
	if err != nil {
		return fmt.Errorf("failed to marshal usage stat: %w", err)
	}

	if err := s.client.HSet(ctx, KeyUsage, key, data).Err(); err != nil {
		return fmt.Errorf("failed to save usage stat: %w", err)
	}
	return nil
}

// GetAllUsage retrieves all usage stats keyed by candidate key.
func (s *Store) GetAllUsage(ctx context.Context) (map[string]domain.UsageStat, error) {
	fields, err := s.client.HGetAll(ctx, KeyUsage).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	stats := make(map[string]domain.UsageStat, len(fields))
	for key, raw := range fields {
		var stat domain.UsageStat
		if err := json.Unmarshal([]byte(raw), &stat); err != nil {
			continue
		}
		stats[key] = stat
	}
	return stats, nil
}

// DeleteUsage removes the usage stat for a candidate key.
func (s *Store) DeleteUsage(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, KeyUsage, key).Err(); err != nil {
		return fmt.Errorf("failed to delete usage stat: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Blocklist
// ─────────────────────────────────────────────────────────────────

// AddBlocked adds a candidate block key to the blocklist.
func (s *Store) AddBlocked(ctx context.Context, key string) error {
	if err := s.client.SAdd(ctx, KeyBlocklist, strings.ToLower(key)).Err(); err != nil {
		return fmt.Errorf("failed to add blocklist key: %w", err)
	}
	return nil
}

// GetBlocklist retrieves all blocked candidate keys.
func (s *Store) GetBlocklist(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, KeyBlocklist).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get blocklist: %w", err)
	}
	return keys, nil
}
