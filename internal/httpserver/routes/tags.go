package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/handlers"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
)

func init() { Register(registerTags) }

func registerTags(r chi.Router, d deps.Deps) {
	r.Route("/api/tags", func(r chi.Router) {
		r.Use(mw.RequireAuth(d.Sessions, d.Logger))

		r.Get("/", handlers.ListTags(d))
		r.Post("/", handlers.CreateTag(d))
		r.Delete("/{id}", handlers.DeleteTag(d))

		r.Get("/bookmark/{bookmarkID}", handlers.BookmarkTags(d))
		r.Post("/bookmark/{bookmarkID}", handlers.AddTagToBookmark(d))
		r.Delete("/bookmark/{bookmarkID}/{tagID}", handlers.RemoveTagFromBookmark(d))
	})
}
