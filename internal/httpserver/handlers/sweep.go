package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
)

// Sweep triggers an immediate health sweep of every bookmark.
func Sweep(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Sweeper == nil {
			writeError(w, http.StatusNotFound, "sweeper disabled")
			return
		}

		if !d.Sweeper.Trigger() {
			d.Logger.Warn("sweep already queued",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, messageResponse{Success: false, Message: "Sweep already queued, please wait"})
			return
		}

		d.Logger.Info("manual sweep triggered via endpoint",
			logger.String("remote_ip", r.RemoteAddr))
		writeJSON(w, http.StatusAccepted, messageResponse{Success: true, Message: "Sweep triggered"})
	}
}
