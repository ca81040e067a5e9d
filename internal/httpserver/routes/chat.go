package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/httpserver/handlers"
)

// The chat route streams for as long as the model talks, so it is
// registered without the per-request timeout.
func init() { Register(registerChat) }

func registerChat(r chi.Router, d deps.Deps) {
	r.Post("/api/chat", handlers.Chat(d))
	r.Post("/api/chat/abort", handlers.AbortChat(d))
}
