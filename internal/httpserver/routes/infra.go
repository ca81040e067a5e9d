package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/httpserver/handlers"
)

func init() { Register(registerInfra, middleware.Timeout(2*time.Second)) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/infra", handlers.Infra(d))
	r.Post("/reload", handlers.Reload(d))
}
