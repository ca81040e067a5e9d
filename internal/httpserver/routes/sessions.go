package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/httpserver/handlers"
)

func init() { Register(registerSessions, middleware.Timeout(2*time.Second)) }

func registerSessions(r chi.Router, d deps.Deps) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", handlers.ListSessions(d))
		r.Post("/", handlers.CreateSession(d))
		r.Get("/{id}", handlers.GetSession(d))
		r.Patch("/{id}", handlers.UpdateSession(d))
		r.Delete("/{id}", handlers.DeleteSession(d))
		r.Post("/{id}/activate", handlers.ActivateSession(d))
	})
}
