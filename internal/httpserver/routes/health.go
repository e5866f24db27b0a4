package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

// Batches are not wrapped in a request timeout: each probe carries its
// own deadline and the batch runs to completion.
func registerHealth(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(d.HealthLimit)).Post("/api/bookmarks/health", handlers.CheckHealth(d))
	r.Get("/api/bookmarks/health", handlers.HealthInfo(d))
}
