package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/launchpane/querybox/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, timeout time.Duration) (*Client, *httptest.Server) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(srv.URL, timeout, logger.New("error", false)), srv
}

func TestCompletePhraseListShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "go test" {
			t.Errorf("expected query %q, got %q", "go test", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"phrase":"go testing"},{"phrase":"go test coverage"}]`))
	}, time.Second)

	phrases, err := client.Complete(context.Background(), "go test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"go testing", "go test coverage"}
	if !reflect.DeepEqual(phrases, want) {
		t.Errorf("expected %v, got %v", want, phrases)
	}
}

func TestCompleteOpenSearchShape(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["go test",["go testing","go test flags"]]`))
	}, time.Second)

	phrases, err := client.Complete(context.Background(), "go test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"go testing", "go test flags"}
	if !reflect.DeepEqual(phrases, want) {
		t.Errorf("expected %v, got %v", want, phrases)
	}
}

func TestCompleteTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}, 20*time.Millisecond)

	_, err := client.Complete(context.Background(), "slow")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCompleteProviderError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}, time.Second)

	_, err := client.Complete(context.Background(), "anything")

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if provErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", provErr.StatusCode)
	}
}

func TestParsePhrasesEmpty(t *testing.T) {
	phrases, err := parsePhrases([]byte(`[]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(phrases) != 0 {
		t.Errorf("expected no phrases, got %v", phrases)
	}
}
