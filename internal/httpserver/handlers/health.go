package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/healthcheck"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
	"github.com/MrSnakeDoc/bookaimark/internal/version"
)

const (
	maxHealthBody = 1 << 20

	msgIDsRequired     = "bookmarkIds array is required"
	msgInvalidBody     = "Invalid request body"
	msgHealthCheckFail = "Failed to check bookmark health"
)

type healthRequest struct {
	BookmarkIDs json.RawMessage `json:"bookmarkIds"`
	UserID      string          `json:"userId"`
}

type healthResponse struct {
	Success bool                       `json:"success"`
	Results []domain.HealthCheckResult `json:"results"`
	Message string                     `json:"message"`
	Summary healthcheck.Summary        `json:"summary"`
}

type healthInfoResponse struct {
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

// CheckHealth runs a health-check batch for the posted bookmark IDs.
func CheckHealth(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req healthRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxHealthBody)).Decode(&req); err != nil {
			msg := msgInvalidBody
			if errors.Is(err, io.EOF) {
				msg = msgIDsRequired
			}
			writeError(w, http.StatusBadRequest, msg)
			return
		}

		ids, ok := parseBookmarkIDs(req.BookmarkIDs)
		if !ok {
			writeError(w, http.StatusBadRequest, msgIDsRequired)
			return
		}

		// A batch has no overall deadline; the server write timeout would
		// drop the response of a batch that is already saved.
		if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
			d.Logger.Warn("failed to clear write deadline", logger.Error(err))
		}

		report, err := d.Checker.Run(r.Context(), healthcheck.Request{UserID: req.UserID, BookmarkIDs: ids})
		switch {
		case errors.Is(err, healthcheck.ErrUserRequired):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			d.Logger.Error("health check failed",
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Int("bookmarks", len(ids)),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, msgHealthCheckFail)
			return
		}

		writeJSON(w, http.StatusOK, healthResponse{
			Success: true,
			Results: report.Results,
			Message: fmt.Sprintf("Health check completed for %d bookmarks", len(report.Results)),
			Summary: report.Summary,
		})
	}
}

// parseBookmarkIDs accepts only a JSON array of strings and numbers.
func parseBookmarkIDs(raw json.RawMessage) ([]domain.BookmarkID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var ids []domain.BookmarkID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

// HealthInfo describes the health-check service.
func HealthInfo(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthInfoResponse{
			Service: version.ServiceName,
			Version: version.APIVersion,
			Status:  "active",
			Endpoints: map[string]string{
				"POST /api/bookmarks/health": "Check health status of bookmarks",
			},
		})
	}
}
