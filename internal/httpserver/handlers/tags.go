package handlers

import (
	"net/http"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
	"github.com/stashspark/stashspark/internal/logger"
)

// ListTags returns the caller's tags ordered by name.
func ListTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Store.ListTags(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toTagList(tags))
	}
}

type createTagRequest struct {
	Name string `json:"name"`
}

// CreateTag registers a new tag name. Duplicate names map to 409.
func CreateTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createTagRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		tag, err := d.Store.CreateTag(r.Context(), mw.UserID(r.Context()), req.Name)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, toTagJSON(*tag))
	}
}

// DeleteTag removes a tag. Its bookmark associations disappear with
// it.
func DeleteTag(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		if err := d.Store.DeleteTag(r.Context(), mw.UserID(r.Context()), id); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		d.Logger.Info("tag deleted", logger.Int64("tag_id", id))
		writeMessage(w, http.StatusOK, "tag deleted")
	}
}

// BookmarkTags lists the tags attached to one bookmark.
func BookmarkTags(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarkID, err := pathID(r, "bookmarkID")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		tags, err := d.Store.ListBookmarkTags(r.Context(), mw.UserID(r.Context()), bookmarkID)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toTagList(tags))
	}
}

type addTagRequest struct {
	TagID int64 `json:"tagId"`
}

// AddTagToBookmark attaches a tag to a bookmark. Both must belong to
// the caller; attaching twice is a conflict. Responds with the
// bookmark's full tag list.
func AddTagToBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())
		bookmarkID, err := pathID(r, "bookmarkID")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		var req addTagRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		if err := d.Store.AddTag(r.Context(), ownerID, bookmarkID, req.TagID); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		tags, err := d.Store.ListBookmarkTags(r.Context(), ownerID, bookmarkID)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toTagList(tags))
	}
}

// RemoveTagFromBookmark detaches a tag from a bookmark.
func RemoveTagFromBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())
		bookmarkID, err := pathID(r, "bookmarkID")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		tagID, err := pathID(r, "tagID")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		if err := d.Store.RemoveTag(r.Context(), ownerID, bookmarkID, tagID); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeMessage(w, http.StatusOK, "tag removed")
	}
}
