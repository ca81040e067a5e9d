package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/llm"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/websearch"
)

// State tracks where the orchestrator is in handling a prompt.
type State string

const (
	StateIdle          State = "idle"
	StateRouting       State = "routing"
	StateWebAugmenting State = "web_augmenting"
	StateStreaming     State = "streaming"
	StateSettled       State = "settled"
)

// WebPref controls web augmentation for one prompt.
type WebPref int

const (
	WebAuto WebPref = iota // decided by the prompt heuristic
	WebOn
	WebOff
)

// Request is one prompt submission with its mode flags.
type Request struct {
	Prompt string
	// Model pins an explicit model and skips auto-routing when set.
	Model string
	Web   WebPref
}

// ModelGateway is the slice of the LLM client the orchestrator needs.
type ModelGateway interface {
	ChatStream(ctx context.Context, model string, messages []llm.Message, onChunk func(string)) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Orchestrator drives one AI response at a time: it routes the prompt
// to a model, optionally augments it with web results, streams the
// answer into the transcript and settles. Failures become assistant
// messages so the conversation never dead-ends. Starting a new prompt
// aborts any stream still running.
type Orchestrator struct {
	store    *Store
	gateway  ModelGateway
	searcher websearch.Searcher
	table    RoutingTable
	logger   logger.Logger

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
}

// NewOrchestrator creates an orchestrator. The searcher may be nil, in
// which case prompts are never web-augmented.
func NewOrchestrator(store *Store, gateway ModelGateway, searcher websearch.Searcher, table RoutingTable, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		gateway:  gateway,
		searcher: searcher,
		table:    table,
		logger:   log,
		state:    StateIdle,
	}
}

// State returns the current orchestrator state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Abort cancels the in-flight response, if any. Text already streamed
// stays in the transcript.
func (o *Orchestrator) Abort() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Send handles a user prompt end to end and returns the resulting
// assistant message. onChunk is invoked for every streamed piece of
// text; it may be nil. The returned error is reserved for transcript
// bookkeeping problems; model and search failures surface as failed
// assistant messages instead.
func (o *Orchestrator) Send(ctx context.Context, sessionID, prompt string, onChunk func(string)) (*domain.ChatMessage, error) {
	return o.SendRequest(ctx, sessionID, Request{Prompt: prompt}, onChunk)
}

// SendRequest is Send with explicit mode flags.
func (o *Orchestrator) SendRequest(ctx context.Context, sessionID string, req Request, onChunk func(string)) (*domain.ChatMessage, error) {
	streamCtx := o.begin(ctx)
	defer o.settle()

	userMsg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleUser,
		Content:   req.Prompt,
		CreatedAt: time.Now(),
	}
	if err := o.store.Append(sessionID, userMsg); err != nil {
		return nil, err
	}

	decision, routeErr := o.route(streamCtx, req)
	if routeErr != nil {
		return o.fail(sessionID, fmt.Sprintf("I couldn't reach a model to answer this. %v", routeErr))
	}

	var panels []domain.Panel
	var sources []domain.WebSource
	if decision.WebSearch && o.searcher != nil {
		o.setState(StateWebAugmenting)

		found, err := o.searcher.Search(streamCtx, req.Prompt, websearch.DefaultLimit)
		if err != nil {
			// Answer without grounding rather than not at all.
			o.logger.Warn("web augmentation failed", logger.Error(err))
		} else if len(found) > 0 {
			sources = found
			panels = []domain.Panel{{Kind: "web_sources", Title: "Web results", Sources: found}}
		}
	}

	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	messages := buildMessages(session, sources)

	o.setState(StateStreaming)

	assistant := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Model:     decision.Model,
		Panels:    panels,
		CreatedAt: time.Now(),
	}
	if err := o.store.Append(sessionID, assistant); err != nil {
		return nil, err
	}

	full, err := o.gateway.ChatStream(streamCtx, decision.Model, messages, onChunk)
	assistant.Content = full

	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		// Aborted mid-stream; the partial text stands.
		o.logger.Debug("response aborted",
			logger.String("session", sessionID),
			logger.Int("partial_len", len(full)))
	default:
		o.logger.Error("model stream failed", logger.Error(err))
		if full == "" {
			assistant.Content = fmt.Sprintf("The model request failed: %v", err)
			assistant.Failed = true
		}
	}

	if err := o.store.ReplaceMessage(sessionID, assistant); err != nil {
		return nil, err
	}
	return &assistant, nil
}

// EditAndResubmit rewrites an earlier user message: the message and
// everything after it are removed from the transcript and the edited
// prompt is sent as if typed fresh, carrying the request's mode flags.
func (o *Orchestrator) EditAndResubmit(ctx context.Context, sessionID, messageID string, req Request, onChunk func(string)) (*domain.ChatMessage, error) {
	session, ok := o.store.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	for _, m := range session.Messages {
		if m.ID == messageID && m.Role != domain.RoleUser {
			return nil, fmt.Errorf("only user messages can be edited, %s is %s", messageID, m.Role)
		}
	}

	o.Abort()

	if _, err := o.store.TruncateFrom(sessionID, messageID); err != nil {
		return nil, err
	}

	return o.SendRequest(ctx, sessionID, req, onChunk)
}

// begin aborts any running response and enters the routing state,
// returning the context the new response runs under.
func (o *Orchestrator) begin(ctx context.Context) context.Context {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	streamCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.state = StateRouting
	return streamCtx
}

func (o *Orchestrator) settle() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.state = StateSettled
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

func (o *Orchestrator) route(ctx context.Context, req Request) (Decision, error) {
	var decision Decision

	if req.Model != "" {
		decision = Decision{
			Model:     req.Model,
			WebSearch: needsWeb(req.Prompt),
			Reason:    "explicit model",
		}
	} else {
		models, err := o.gateway.ListModels(ctx)
		if err != nil {
			return Decision{}, fmt.Errorf("model discovery failed: %w", err)
		}
		decision, err = Route(req.Prompt, models, o.table)
		if err != nil {
			return Decision{}, err
		}
	}

	switch req.Web {
	case WebOn:
		decision.WebSearch = true
	case WebOff:
		decision.WebSearch = false
	}

	o.logger.Debug("routed prompt",
		logger.String("model", decision.Model),
		logger.String("reason", decision.Reason))
	return decision, nil
}

// fail records a failed assistant message so the error lives in the
// transcript.
func (o *Orchestrator) fail(sessionID, content string) (*domain.ChatMessage, error) {
	msg := domain.ChatMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		Failed:    true,
		CreatedAt: time.Now(),
	}
	if err := o.store.Append(sessionID, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// buildMessages converts a transcript to gateway messages. Failed
// messages are skipped; web sources become a grounding preamble.
func buildMessages(session *domain.ChatSession, sources []domain.WebSource) []llm.Message {
	messages := make([]llm.Message, 0, len(session.Messages)+1)

	if len(sources) > 0 {
		var b strings.Builder
		b.WriteString("Use the following web results to ground your answer. Cite them by number.\n")
		for i, src := range sources {
			fmt.Fprintf(&b, "[%d] %s (%s)", i+1, src.Title, src.URL)
			if src.Snippet != "" {
				fmt.Fprintf(&b, " %s", src.Snippet)
			}
			b.WriteString("\n")
		}
		messages = append(messages, llm.Message{Role: "system", Content: b.String()})
	}

	for _, m := range session.Messages {
		if m.Failed || m.Content == "" {
			continue
		}
		messages = append(messages, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return messages
}
