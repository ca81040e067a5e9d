package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/llm"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/websearch"
)

type stubGateway struct {
	models    []string
	modelsErr error
	stream    func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error)
}

func (g *stubGateway) ListModels(ctx context.Context) ([]string, error) {
	return g.models, g.modelsErr
}

func (g *stubGateway) ChatStream(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
	return g.stream(ctx, model, messages, onChunk)
}

type stubWebSearcher struct {
	results []domain.WebSource
	err     error
}

func (s *stubWebSearcher) Search(ctx context.Context, query string, limit int) ([]domain.WebSource, error) {
	return s.results, s.err
}

func echoStream(parts ...string) func(context.Context, string, []llm.Message, func(string)) (string, error) {
	return func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
		var full strings.Builder
		for _, p := range parts {
			full.WriteString(p)
			if onChunk != nil {
				onChunk(p)
			}
		}
		return full.String(), nil
	}
}

func newTestOrchestrator(gateway ModelGateway, searcher websearch.Searcher) (*Orchestrator, *Store) {
	store := newTestStore()
	o := NewOrchestrator(store, gateway, searcher, RoutingTable{Default: "llama3", Code: "qwen3-coder"}, logger.New("error", false))
	return o, store
}

func TestSendStreamsResponse(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3", "qwen3-coder"},
		stream: echoStream("Hello", ", ", "world"),
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	var chunks []string
	msg, err := o.Send(context.Background(), session.ID, "say hello",
		func(s string) { chunks = append(chunks, s) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "Hello, world" {
		t.Errorf("expected full response, got %q", msg.Content)
	}
	if msg.Model != "llama3" {
		t.Errorf("expected default model, got %q", msg.Model)
	}
	if strings.Join(chunks, "") != "Hello, world" {
		t.Errorf("chunks out of order: %v", chunks)
	}
	if o.State() != StateSettled {
		t.Errorf("expected settled state, got %q", o.State())
	}

	got, _ := store.Get(session.ID)
	if len(got.Messages) != 2 {
		t.Fatalf("expected user+assistant messages, got %d", len(got.Messages))
	}
	if got.Messages[1].Content != "Hello, world" {
		t.Errorf("transcript not updated: %q", got.Messages[1].Content)
	}
}

func TestSendRoutesCodePromptToCodeModel(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3", "qwen3-coder"},
		stream: echoStream("looks fine"),
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "review this:\n```go\nfunc main() {}\n```", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Model != "qwen3-coder" {
		t.Errorf("expected code model, got %q", msg.Model)
	}
}

func TestSendDiscoveryFailureBecomesTranscriptMessage(t *testing.T) {
	gateway := &stubGateway{modelsErr: errors.New("gateway unreachable")}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "hello", nil)
	if err != nil {
		t.Fatalf("expected failure as message, got error: %v", err)
	}
	if !msg.Failed {
		t.Error("expected failed assistant message")
	}

	got, _ := store.Get(session.ID)
	if len(got.Messages) != 2 || got.Messages[1].Role != domain.RoleAssistant {
		t.Fatalf("expected failure in transcript, got %+v", got.Messages)
	}
}

func TestSendFiltersNonChatModels(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"nomic-embed-text", "reranker-pipeline", "mistral"},
		stream: echoStream("ok"),
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Model != "mistral" {
		t.Errorf("expected embedding models filtered, got %q", msg.Model)
	}
}

func TestSendWebAugmentation(t *testing.T) {
	var gotMessages []llm.Message
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
			gotMessages = messages
			return "grounded answer", nil
		},
	}
	searcher := &stubWebSearcher{results: []domain.WebSource{
		{Title: "Go 1.25 released", URL: "https://go.dev/blog/go1.25", Snippet: "The latest Go release."},
	}}
	o, store := newTestOrchestrator(gateway, searcher)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "latest go release", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gotMessages) == 0 || gotMessages[0].Role != "system" {
		t.Fatalf("expected grounding preamble, got %+v", gotMessages)
	}
	if !strings.Contains(gotMessages[0].Content, "go.dev/blog/go1.25") {
		t.Errorf("expected source URL in preamble: %q", gotMessages[0].Content)
	}
	if len(msg.Panels) != 1 || len(msg.Panels[0].Sources) != 1 {
		t.Errorf("expected web sources panel, got %+v", msg.Panels)
	}
}

func TestSendWebSearchFailureStillAnswers(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: echoStream("best effort answer"),
	}
	searcher := &stubWebSearcher{err: errors.New("both providers down")}
	o, store := newTestOrchestrator(gateway, searcher)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "latest news", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Failed {
		t.Error("expected answer despite search failure")
	}
	if msg.Content != "best effort answer" {
		t.Errorf("unexpected content: %q", msg.Content)
	}
}

func TestSendRequestExplicitModelSkipsDiscovery(t *testing.T) {
	gateway := &stubGateway{
		modelsErr: errors.New("discovery endpoint down"),
		stream:    echoStream("pinned answer"),
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	msg, err := o.SendRequest(context.Background(), session.ID,
		Request{Prompt: "hello", Model: "mistral"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Failed {
		t.Fatalf("expected success with pinned model, got %+v", msg)
	}
	if msg.Model != "mistral" {
		t.Errorf("expected pinned model, got %q", msg.Model)
	}
}

func TestSendRequestWebOff(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: echoStream("ungrounded answer"),
	}
	searcher := &stubWebSearcher{results: []domain.WebSource{
		{Title: "should not appear", URL: "https://example.com"},
	}}
	o, store := newTestOrchestrator(gateway, searcher)
	session := store.Create()

	// The prompt trips the web heuristic but the flag overrides it.
	msg, err := o.SendRequest(context.Background(), session.ID,
		Request{Prompt: "latest news", Web: WebOff}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Panels) != 0 {
		t.Errorf("expected no web panel, got %+v", msg.Panels)
	}
}

func TestSendRequestWebOn(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: echoStream("grounded answer"),
	}
	searcher := &stubWebSearcher{results: []domain.WebSource{
		{Title: "Example", URL: "https://example.com", Snippet: "snippet"},
	}}
	o, store := newTestOrchestrator(gateway, searcher)
	session := store.Create()

	// Nothing in the prompt trips the heuristic; the flag forces it.
	msg, err := o.SendRequest(context.Background(), session.ID,
		Request{Prompt: "tell me a joke", Web: WebOn}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msg.Panels) != 1 {
		t.Errorf("expected forced web panel, got %+v", msg.Panels)
	}
}

func TestAbortKeepsPartialText(t *testing.T) {
	started := make(chan struct{})
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
			if onChunk != nil {
				onChunk("partial ")
			}
			close(started)
			<-ctx.Done()
			return "partial ", ctx.Err()
		},
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	go func() {
		<-started
		o.Abort()
	}()

	msg, err := o.Send(context.Background(), session.ID, "long story", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Failed {
		t.Error("aborted response must not be marked failed")
	}
	if msg.Content != "partial " {
		t.Errorf("expected partial text preserved, got %q", msg.Content)
	}

	got, _ := store.Get(session.ID)
	if got.Messages[1].Content != "partial " {
		t.Errorf("transcript lost partial text: %q", got.Messages[1].Content)
	}
}

func TestSendStreamErrorWithoutTextFails(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
			return "", errors.New("connection reset")
		},
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	msg, err := o.Send(context.Background(), session.ID, "hello", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !msg.Failed {
		t.Error("expected failed assistant message")
	}
	if !strings.Contains(msg.Content, "connection reset") {
		t.Errorf("expected error in content, got %q", msg.Content)
	}
}

func TestEditAndResubmit(t *testing.T) {
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: echoStream("fresh answer"),
	}
	o, store := newTestOrchestrator(gateway, nil)
	session := store.Create()

	if _, err := o.Send(context.Background(), session.ID, "first question", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := o.Send(context.Background(), session.ID, "second question", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before, _ := store.Get(session.ID)
	if len(before.Messages) != 4 {
		t.Fatalf("expected 4 messages before edit, got %d", len(before.Messages))
	}
	firstUserID := before.Messages[0].ID

	msg, err := o.EditAndResubmit(context.Background(), session.ID, firstUserID,
		Request{Prompt: "first question, rephrased"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg.Content != "fresh answer" {
		t.Errorf("unexpected response: %q", msg.Content)
	}

	after, _ := store.Get(session.ID)
	if len(after.Messages) != 2 {
		t.Fatalf("expected 2 messages after edit, got %d", len(after.Messages))
	}
	if after.Messages[0].Content != "first question, rephrased" {
		t.Errorf("expected edited prompt, got %q", after.Messages[0].Content)
	}

	// Editing an assistant message is rejected.
	if _, err := o.EditAndResubmit(context.Background(), session.ID, after.Messages[1].ID,
		Request{Prompt: "nope"}, nil); err == nil {
		t.Error("expected error editing assistant message")
	}
}

func TestEditAndResubmitCarriesModeFlags(t *testing.T) {
	var streamedModel string
	gateway := &stubGateway{
		models: []string{"llama3"},
		stream: func(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error) {
			streamedModel = model
			return "edited answer", nil
		},
	}
	searcher := &stubWebSearcher{results: []domain.WebSource{
		{Title: "Example", URL: "https://example.com", Snippet: "snippet"},
	}}
	o, store := newTestOrchestrator(gateway, searcher)
	session := store.Create()

	if _, err := o.Send(context.Background(), session.ID, "original question", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := store.Get(session.ID)

	msg, err := o.EditAndResubmit(context.Background(), session.ID, before.Messages[0].ID,
		Request{Prompt: "rephrased question", Model: "mistral", Web: WebOn}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if streamedModel != "mistral" {
		t.Errorf("expected pinned model on resubmit, got %q", streamedModel)
	}
	if len(msg.Panels) != 1 {
		t.Errorf("expected forced web panel on resubmit, got %+v", msg.Panels)
	}
}
