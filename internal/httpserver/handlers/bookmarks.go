package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/bookaimark/internal/domain"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/logger"
)

const (
	maxBookmarkBody = 64 << 10

	defaultCategory  = "General"
	defaultSearchMax = 20
)

var errBookmarkNotFound = errors.New("bookmark not found")

type listResponse struct {
	Success   bool              `json:"success"`
	Bookmarks []domain.Bookmark `json:"bookmarks"`
	Total     int               `json:"total"`
}

type createRequest struct {
	UserID      string   `json:"user_id"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Notes       string   `json:"notes"`
}

type bookmarkResponse struct {
	Success  bool            `json:"success"`
	Bookmark domain.Bookmark `json:"bookmark"`
	Message  string          `json:"message"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type searchResponse struct {
	Success bool               `json:"success"`
	Query   string             `json:"query"`
	Results []domain.SearchHit `json:"results"`
	Total   int                `json:"total"`
}

// resolveUser writes a 400 and returns false when no user can be determined.
func resolveUser(w http.ResponseWriter, d deps.Deps, userID string) (string, bool) {
	userID, err := d.Checker.ResolveUser(strings.TrimSpace(userID))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return userID, true
}

// ListBookmarks returns every bookmark of a user.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := resolveUser(w, d, r.URL.Query().Get("user_id"))
		if !ok {
			return
		}

		all, err := d.Bookmarks.Snapshot(r.Context())
		if err != nil {
			d.Logger.Error("failed to list bookmarks", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to load bookmarks")
			return
		}

		owned := domain.FilterByUser(all, userID)
		writeJSON(w, http.StatusOK, listResponse{Success: true, Bookmarks: owned, Total: len(owned)})
	}
}

// CreateBookmark appends a bookmark with the next numeric ID.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookmarkBody)).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, msgInvalidBody)
			return
		}
		req.Title = strings.TrimSpace(req.Title)
		req.URL = strings.TrimSpace(req.URL)
		if req.Title == "" || req.URL == "" {
			writeError(w, http.StatusBadRequest, "Title and URL are required")
			return
		}
		userID, ok := resolveUser(w, d, req.UserID)
		if !ok {
			return
		}

		now := d.Now().UTC()
		created := domain.Bookmark{
			UserID:      userID,
			Title:       req.Title,
			URL:         req.URL,
			Description: req.Description,
			Category:    req.Category,
			Tags:        req.Tags,
			Notes:       req.Notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if created.Category == "" {
			created.Category = defaultCategory
		}
		if created.Tags == nil {
			created.Tags = []string{}
		}

		err := d.Bookmarks.Update(r.Context(), func(all []domain.Bookmark) ([]domain.Bookmark, bool, error) {
			created.ID = domain.NextNumericID(all)
			return append(all, created), true, nil
		})
		if err != nil {
			d.Logger.Error("failed to create bookmark", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to create bookmark")
			return
		}

		d.Logger.Info("bookmark created",
			logger.String("bookmark_id", created.ID.String()),
			logger.String("user_id", userID))
		writeJSON(w, http.StatusCreated, bookmarkResponse{
			Success:  true,
			Bookmark: created,
			Message:  "Bookmark created successfully",
		})
	}
}

// DeleteBookmark removes one bookmark owned by the user.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		id := domain.BookmarkID(strings.TrimSpace(q.Get("id")))
		if id == "" {
			writeError(w, http.StatusBadRequest, "Bookmark ID is required")
			return
		}
		userID, ok := resolveUser(w, d, q.Get("user_id"))
		if !ok {
			return
		}

		err := d.Bookmarks.Update(r.Context(), func(all []domain.Bookmark) ([]domain.Bookmark, bool, error) {
			kept := all[:0:0]
			for _, b := range all {
				if b.ID == id && b.OwnedBy(userID) {
					continue
				}
				kept = append(kept, b)
			}
			if len(kept) == len(all) {
				return nil, false, errBookmarkNotFound
			}
			return kept, true, nil
		})
		switch {
		case errors.Is(err, errBookmarkNotFound):
			writeError(w, http.StatusNotFound, domain.NotFoundError)
			return
		case err != nil:
			d.Logger.Error("failed to delete bookmark",
				logger.String("bookmark_id", id.String()),
				logger.String("user_id", userID),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to delete bookmark")
			return
		}

		d.Logger.Info("bookmark deleted",
			logger.String("bookmark_id", id.String()),
			logger.String("user_id", userID))
		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Bookmark deleted successfully"})
	}
}

// SearchBookmarks ranks a user's bookmarks against q, optionally keeping
// only the listed site_health tiers.
func SearchBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		userID, ok := resolveUser(w, d, q.Get("user_id"))
		if !ok {
			return
		}

		query, err := parseSearchQuery(q.Get("q"), q.Get("site_health"), q.Get("limit"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		all, err := d.Bookmarks.Snapshot(r.Context())
		if err != nil {
			d.Logger.Error("failed to search bookmarks", logger.String("user_id", userID), logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Failed to search bookmarks")
			return
		}

		results := domain.Search(query, domain.FilterByUser(all, userID))

		d.Logger.Debug("search request",
			logger.String("user_id", userID),
			logger.String("query", query.Text),
			logger.Int("hits", len(results)))
		writeJSON(w, http.StatusOK, searchResponse{Success: true, Query: query.Text, Results: results, Total: len(results)})
	}
}

func parseSearchQuery(text, health, limit string) (domain.SearchQuery, error) {
	query := domain.SearchQuery{Text: strings.TrimSpace(text), Limit: defaultSearchMax}

	for _, raw := range strings.Split(health, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		tier, err := domain.ParseHealthTier(strings.ToLower(raw))
		if err != nil {
			return domain.SearchQuery{}, err
		}
		query.Health = append(query.Health, tier)
	}

	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return domain.SearchQuery{}, errors.New("limit must be a positive integer")
		}
		query.Limit = n
	}
	return query, nil
}
