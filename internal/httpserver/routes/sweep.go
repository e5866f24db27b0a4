package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/mw"
)

func init() { Register(registerSweep) }

func registerSweep(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/sweep", handlers.Sweep(d))
}
