package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveSession stores a chat session in Redis.
func (s *Store) SaveSession(ctx context.Context, session *domain.ChatSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	key := SessionKey(session.ID)

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllSessions, session.ID).Err(); err != nil {
		return fmt.Errorf("failed to add session to set: %w", err)
	}

	return nil
}

// GetSession retrieves a chat session from Redis by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.ChatSession, error) {
	data, err := s.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session domain.ChatSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// LoadSessions retrieves all chat sessions from Redis.
func (s *Store) LoadSessions(ctx context.Context) ([]*domain.ChatSession, error) {
	ids, err := s.client.SMembers(ctx, KeyAllSessions).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session IDs: %w", err)
	}

	if len(ids) == 0 {
		return []*domain.ChatSession{}, nil
	}

	sessions := make([]*domain.ChatSession, 0, len(ids))
	for _, id := range ids {
		session, err := s.GetSession(ctx, id)
		if err != nil {
			// Skip sessions that couldn't be retrieved
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// DeleteSession removes a chat session from Redis.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, SessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllSessions, id).Err(); err != nil {
		return fmt.Errorf("failed to remove session from set: %w", err)
	}

	return nil
}
