package chat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/logger"
)

const persistTimeout = 2 * time.Second

// Persister saves and loads chat sessions. The Redis store satisfies
// this; a nil persister keeps sessions in memory only.
type Persister interface {
	SaveSession(ctx context.Context, session *domain.ChatSession) error
	DeleteSession(ctx context.Context, id string) error
	LoadSessions(ctx context.Context) ([]*domain.ChatSession, error)
}

// Store keeps chat sessions in memory and mirrors changes to the
// persister. One session is active at a time; deleting it activates
// the most recently updated survivor.
type Store struct {
	mu        sync.RWMutex
	sessions  map[string]*domain.ChatSession
	activeID  string
	persister Persister
	logger    logger.Logger
}

// NewStore creates a session store.
func NewStore(persister Persister, log logger.Logger) *Store {
	return &Store{
		sessions:  make(map[string]*domain.ChatSession),
		persister: persister,
		logger:    log,
	}
}

// Load restores persisted sessions into memory.
func (s *Store) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	sessions, err := s.persister.LoadSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, session := range sessions {
		s.sessions[session.ID] = session
	}
	if s.activeID == "" && len(sessions) > 0 {
		s.activeID = s.newestLocked().ID
	}
	return nil
}

// Create starts a new session and makes it active.
func (s *Store) Create() *domain.ChatSession {
	now := time.Now()
	session := &domain.ChatSession{
		ID:        uuid.NewString(),
		Title:     "New chat",
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.activeID = session.ID
	s.mu.Unlock()

	s.persist(session)
	return session
}

// Get returns a copy of a session by ID.
func (s *Store) Get(id string) (*domain.ChatSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return cloneSession(session), true
}

// List returns all sessions, pinned first, then newest first.
func (s *Store) List() []*domain.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ChatSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, cloneSession(session))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Active returns the active session, if any.
func (s *Store) Active() (*domain.ChatSession, bool) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()

	if id == "" {
		return nil, false
	}
	return s.Get(id)
}

// SetActive switches the active session.
func (s *Store) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return fmt.Errorf("session not found: %s", id)
	}
	s.activeID = id
	return nil
}

// Rename sets a session title.
func (s *Store) Rename(id, title string) error {
	return s.update(id, func(session *domain.ChatSession) {
		session.Title = title
		session.TitleCustom = true
	})
}

// Pin toggles whether a session is pinned.
func (s *Store) Pin(id string, pinned bool) error {
	return s.update(id, func(session *domain.ChatSession) {
		session.Pinned = pinned
	})
}

// Delete removes a session. Deleting the active session promotes the
// most recently updated remaining session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("session not found: %s", id)
	}
	delete(s.sessions, id)
	needFresh := false
	if s.activeID == id {
		s.activeID = ""
		if newest := s.newestLocked(); newest != nil {
			s.activeID = newest.ID
		} else {
			needFresh = true
		}
	}
	s.mu.Unlock()

	// Deleting the last session leaves a fresh empty one active.
	if needFresh {
		s.Create()
	}

	if s.persister != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
			defer cancel()

			if err := s.persister.DeleteSession(ctx, id); err != nil {
				s.logger.Warn("failed to delete persisted session", logger.Error(err))
			}
		}()
	}
	return nil
}

// Append adds a message to a session. The first user message derives
// the session title.
func (s *Store) Append(id string, msg domain.ChatMessage) error {
	return s.update(id, func(session *domain.ChatSession) {
		if msg.Role == domain.RoleUser && !hasUserMessage(session) && !session.TitleCustom {
			session.Title = domain.DeriveTitle(msg.Content)
		}
		session.Messages = append(session.Messages, msg)
	})
}

// ReplaceMessage swaps the stored copy of a message, matched by ID.
func (s *Store) ReplaceMessage(id string, msg domain.ChatMessage) error {
	return s.update(id, func(session *domain.ChatSession) {
		for i := range session.Messages {
			if session.Messages[i].ID == msg.ID {
				session.Messages[i] = msg
				return
			}
		}
	})
}

// TruncateFrom removes a message and everything after it, returning
// the removed message. Used when the user edits an earlier prompt.
func (s *Store) TruncateFrom(id, messageID string) (domain.ChatMessage, error) {
	var removed domain.ChatMessage
	found := false

	err := s.update(id, func(session *domain.ChatSession) {
		for i := range session.Messages {
			if session.Messages[i].ID == messageID {
				removed = session.Messages[i]
				found = true
				session.Messages = session.Messages[:i]
				return
			}
		}
	})
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if !found {
		return domain.ChatMessage{}, fmt.Errorf("message not found: %s", messageID)
	}
	return removed, nil
}

func (s *Store) update(id string, fn func(*domain.ChatSession)) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("session not found: %s", id)
	}
	fn(session)
	session.UpdatedAt = time.Now()
	snapshot := cloneSession(session)
	s.mu.Unlock()

	s.persist(snapshot)
	return nil
}

// persist mirrors a session to the persister, fire-and-forget.
func (s *Store) persist(session *domain.ChatSession) {
	if s.persister == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.persister.SaveSession(ctx, session); err != nil {
			s.logger.Warn("failed to persist session",
				logger.String("session", session.ID),
				logger.Error(err))
		}
	}()
}

// newestLocked returns the most recently updated session. Callers must
// hold the lock.
func (s *Store) newestLocked() *domain.ChatSession {
	var newest *domain.ChatSession
	for _, session := range s.sessions {
		if newest == nil || session.UpdatedAt.After(newest.UpdatedAt) {
			newest = session
		}
	}
	return newest
}

func hasUserMessage(session *domain.ChatSession) bool {
	for _, m := range session.Messages {
		if m.Role == domain.RoleUser {
			return true
		}
	}
	return false
}

func cloneSession(session *domain.ChatSession) *domain.ChatSession {
	copied := *session
	copied.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	return &copied
}
