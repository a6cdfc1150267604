package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/handlers"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	r.Route("/api/bookmarks", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Sessions, d.Logger))

		r.Get("/", handlers.ListBookmarks(d))
		r.Post("/", handlers.CreateBookmark(d))

		// Fixed segments before the id wildcard.
		r.Get("/review/today", handlers.ReviewToday(d))
		r.Get("/review/range", handlers.ReviewRange(d))

		r.Get("/{id}", handlers.GetBookmark(d))
		r.Put("/{id}", handlers.UpdateBookmark(d))
		r.Delete("/{id}", handlers.DeleteBookmark(d))
		r.Post("/{id}/summary", handlers.QueueSummary(d))
		r.Post("/{id}/mark-reviewed", handlers.MarkReviewed(d))
	})
}
