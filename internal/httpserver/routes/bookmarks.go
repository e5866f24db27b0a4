package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookaimark/internal/httpserver/handlers"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	sub := r.With(requestTimeout(d))
	sub.Get("/api/bookmarks", handlers.ListBookmarks(d))
	sub.Post("/api/bookmarks", handlers.CreateBookmark(d))
	sub.Delete("/api/bookmarks", handlers.DeleteBookmark(d))
	sub.Get("/api/bookmarks/search", handlers.SearchBookmarks(d))
}

func requestTimeout(d deps.Deps) Middleware {
	if d.RequestTimeout <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(d.RequestTimeout)
}
