package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready once the bookmark store answers.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := storeProbeContext(r)
		defer cancel()

		if err := d.Bookmarks.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed",
				logger.String("store", d.StoreBackend),
				logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{
				Ready: false,
				Store: d.StoreBackend,
				Error: "store unavailable",
			})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: d.StoreBackend})
	}
}
