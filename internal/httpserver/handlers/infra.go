package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
)

const storeProbeTimeout = 2 * time.Second

type componentStatus struct {
	OK        bool           `json:"ok"`
	Backend   string         `json:"backend,omitempty"`
	Bookmarks *int           `json:"bookmarks,omitempty"`
	Health    map[string]int `json:"health,omitempty"`
	LastRun   string         `json:"last_run,omitempty"`
	Mode      string         `json:"mode,omitempty"`
	Error     string         `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func storeProbeContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), storeProbeTimeout)
}

// Infra reports the state of the store and the background sweeper.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := storeProbeContext(r)
		defer cancel()

		components := map[string]componentStatus{
			"store":   checkStore(ctx, d),
			"sweeper": checkSweeper(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	if store, exists := components["store"]; exists && !store.OK {
		return "critical" // no store = no health checks
	}
	if sweeper, exists := components["sweeper"]; exists && !sweeper.OK {
		return "degraded"
	}
	return "operational"
}

func checkStore(ctx context.Context, d deps.Deps) componentStatus {
	all, err := d.Bookmarks.Snapshot(ctx)
	if err != nil {
		return componentStatus{OK: false, Backend: d.StoreBackend, Error: "unavailable"}
	}

	count := len(all)
	health := make(map[string]int, len(domain.AllTiers)+1)
	for _, b := range all {
		tier := string(b.SiteHealth)
		if tier == "" {
			tier = "unchecked"
		}
		health[tier]++
	}
	return componentStatus{OK: true, Backend: d.StoreBackend, Bookmarks: &count, Health: health}
}

func checkSweeper(d deps.Deps) componentStatus {
	if d.Sweeper == nil {
		// Sweeping is optional; its absence is not a fault.
		return componentStatus{OK: true, Mode: "disabled"}
	}

	lastRun := "never"
	if t := d.Sweeper.LastRun(); !t.IsZero() {
		lastRun = t.Format(time.RFC3339)
	}
	return componentStatus{OK: true, Mode: "scheduled", LastRun: lastRun}
}
