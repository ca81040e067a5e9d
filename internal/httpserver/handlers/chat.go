package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/launchpane/querybox/internal/chat"
	"github.com/launchpane/querybox/internal/domain"
	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/logger"
)

type chatRequest struct {
	SessionID string `json:"session_id"`
	Prompt    string `json:"prompt"`
	// Model pins an explicit model; empty means auto-route.
	Model string `json:"model,omitempty"`
	// Web forces augmentation "on" or "off"; empty means heuristic.
	Web string `json:"web,omitempty"`
	// EditMessageID rewrites an earlier user message instead of
	// appending a new one.
	EditMessageID string `json:"edit_message_id,omitempty"`
}

func webPref(v string) chat.WebPref {
	switch v {
	case "on":
		return chat.WebOn
	case "off":
		return chat.WebOff
	}
	return chat.WebAuto
}

// Chat streams an AI response over server-sent events: one "chunk"
// event per piece of text, then a "done" event carrying the final
// assistant message.
func Chat(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Orchestrator == nil {
			http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid chat payload", http.StatusBadRequest)
			return
		}
		if req.Prompt == "" {
			http.Error(w, "prompt is required", http.StatusBadRequest)
			return
		}

		sessionID := req.SessionID
		if sessionID == "" {
			sessionID = d.Sessions.Create().ID
		} else if _, ok := d.Sessions.Get(sessionID); !ok {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		writeEvent(w, flusher, "session", map[string]string{"session_id": sessionID})

		onChunk := func(text string) {
			writeEvent(w, flusher, "chunk", map[string]string{"text": text})
		}

		var msg *domain.ChatMessage
		var err error
		chatReq := chat.Request{
			Prompt: req.Prompt,
			Model:  req.Model,
			Web:    webPref(req.Web),
		}
		if req.EditMessageID != "" {
			msg, err = d.Orchestrator.EditAndResubmit(r.Context(), sessionID, req.EditMessageID, chatReq, onChunk)
		} else {
			msg, err = d.Orchestrator.SendRequest(r.Context(), sessionID, chatReq, onChunk)
		}
		if err != nil {
			d.Logger.Error("chat request failed", logger.Error(err))
			writeEvent(w, flusher, "error", map[string]string{"error": err.Error()})
			return
		}

		writeEvent(w, flusher, "done", msg)
	}
}

// AbortChat cancels the in-flight response. Text already streamed
// stays in the transcript.
func AbortChat(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Orchestrator == nil {
			http.Error(w, "chat is not configured", http.StatusServiceUnavailable)
			return
		}
		d.Orchestrator.Abort()
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
