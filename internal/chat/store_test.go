package chat

import (
	"testing"
	"time"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/logger"
)

func newTestStore() *Store {
	return NewStore(nil, logger.New("error", false))
}

func userMsg(content string) domain.ChatMessage {
	return domain.ChatMessage{
		ID:        content + "-id",
		Role:      domain.RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestCreateSession(t *testing.T) {
	store := newTestStore()

	session := store.Create()
	if session.ID == "" {
		t.Fatal("expected session ID")
	}
	if session.Title != "New chat" {
		t.Errorf("expected placeholder title, got %q", session.Title)
	}

	active, ok := store.Active()
	if !ok || active.ID != session.ID {
		t.Error("expected new session to be active")
	}
}

func TestFirstUserMessageDerivesTitle(t *testing.T) {
	store := newTestStore()
	session := store.Create()

	if err := store.Append(session.ID, userMsg("how do go channels work")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.Get(session.ID)
	if got.Title != "how do go channels work" {
		t.Errorf("expected derived title, got %q", got.Title)
	}

	// A second user message must not rename the session.
	if err := store.Append(session.ID, userMsg("what about buffered ones")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ = store.Get(session.ID)
	if got.Title != "how do go channels work" {
		t.Errorf("title changed on second message: %q", got.Title)
	}
}

func TestCustomTitleNotOverwritten(t *testing.T) {
	store := newTestStore()
	session := store.Create()

	if err := store.Rename(session.ID, "go questions"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Append(session.ID, userMsg("how do go channels work")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.Get(session.ID)
	if got.Title != "go questions" {
		t.Errorf("custom title overwritten: %q", got.Title)
	}
}

func TestListPinnedFirst(t *testing.T) {
	store := newTestStore()
	older := store.Create()
	time.Sleep(2 * time.Millisecond)
	newer := store.Create()

	if err := store.Pin(older.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	list := store.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].ID != older.ID {
		t.Error("expected pinned session first")
	}
	if list[1].ID != newer.ID {
		t.Error("expected unpinned session second")
	}
}

func TestDeleteActivePromotesNewest(t *testing.T) {
	store := newTestStore()
	first := store.Create()
	time.Sleep(2 * time.Millisecond)
	second := store.Create()

	if err := store.Delete(second.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, ok := store.Active()
	if !ok {
		t.Fatal("expected an active session after delete")
	}
	if active.ID != first.ID {
		t.Errorf("expected %s active, got %s", first.ID, active.ID)
	}

	if err := store.Delete(first.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	active, ok = store.Active()
	if !ok {
		t.Fatal("expected a fresh session after deleting the last one")
	}
	if active.ID == first.ID || active.ID == second.ID {
		t.Errorf("expected a new session, got %s", active.ID)
	}
	if active.Title != "New chat" || len(active.Messages) != 0 {
		t.Errorf("expected an empty fresh session, got %q with %d messages", active.Title, len(active.Messages))
	}
}

func TestTruncateFrom(t *testing.T) {
	store := newTestStore()
	session := store.Create()

	msgs := []domain.ChatMessage{
		userMsg("first"),
		{ID: "a1", Role: domain.RoleAssistant, Content: "answer one"},
		userMsg("second"),
		{ID: "a2", Role: domain.RoleAssistant, Content: "answer two"},
	}
	for _, m := range msgs {
		if err := store.Append(session.ID, m); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	removed, err := store.TruncateFrom(session.ID, "first-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed.Content != "first" {
		t.Errorf("expected removed message to be returned, got %+v", removed)
	}

	got, _ := store.Get(session.ID)
	if len(got.Messages) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(got.Messages))
	}

	if _, err := store.TruncateFrom(session.ID, "missing"); err == nil {
		t.Error("expected error for unknown message")
	}
}
