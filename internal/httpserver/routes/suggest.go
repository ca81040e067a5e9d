package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/httpserver/handlers"
)

func init() { Register(registerSuggest, middleware.Timeout(2*time.Second)) }

func registerSuggest(r chi.Router, d deps.Deps) {
	r.Get("/api/suggest", handlers.Suggest(d))
	r.Post("/api/suggest/select", handlers.Select(d))
	r.Post("/api/suggest/hide", handlers.Hide(d))
	r.Post("/api/history", handlers.RecordHistory(d))
}
