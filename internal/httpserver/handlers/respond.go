// Package handlers implements the HTTP endpoints. Handlers decode the
// request, delegate to storage and the scheduling policy, and map
// domain errors onto HTTP status codes.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func writeErrMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeErr maps a domain error to a status code. Anything outside the
// taxonomy is a 500 logged with its cause; the client only sees a
// generic message.
func writeErr(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeErrMsg(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrValidation):
		writeErrMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeErrMsg(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrUnauthenticated):
		writeErrMsg(w, http.StatusUnauthorized, "not logged in")
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Error("storage unavailable", logger.Error(err))
		writeErrMsg(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		log.Error("request failed", logger.Error(err))
		writeErrMsg(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(domain.ErrValidation, err)
	}
	return nil
}

// bookmarkJSON is the wire shape of a bookmark, matching the column
// naming of the store.
type bookmarkJSON struct {
	ID                 int64      `json:"id"`
	UserID             int64      `json:"user_id"`
	URL                string     `json:"url"`
	Title              string     `json:"title"`
	Domain             string     `json:"domain"`
	Notes              string     `json:"notes"`
	AISummary          string     `json:"ai_summary"`
	ReviewIntervalDays int        `json:"review_interval_days"`
	NextReviewAt       *time.Time `json:"next_review_at"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"`
	CreatedAt          time.Time  `json:"created_at"`
	TagIDs             []int64    `json:"tag_ids"`
}

func toBookmarkJSON(b domain.Bookmark) bookmarkJSON {
	tagIDs := b.TagIDs
	if tagIDs == nil {
		tagIDs = []int64{}
	}
	return bookmarkJSON{
		ID:                 b.ID,
		UserID:             b.OwnerID,
		URL:                b.URL,
		Title:              b.Title,
		Domain:             b.Domain,
		Notes:              b.Notes,
		AISummary:          b.Summary,
		ReviewIntervalDays: b.ReviewIntervalDays,
		NextReviewAt:       b.NextReviewAt,
		LastReviewedAt:     b.LastReviewedAt,
		CreatedAt:          b.CreatedAt,
		TagIDs:             tagIDs,
	}
}

func toBookmarkList(bs []domain.Bookmark) []bookmarkJSON {
	out := make([]bookmarkJSON, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookmarkJSON(b))
	}
	return out
}

type tagJSON struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toTagJSON(t domain.Tag) tagJSON {
	return tagJSON{ID: t.ID, UserID: t.OwnerID, Name: t.Name, CreatedAt: t.CreatedAt}
}

func toTagList(ts []domain.Tag) []tagJSON {
	out := make([]tagJSON, 0, len(ts))
	for _, t := range ts {
		out = append(out, toTagJSON(t))
	}
	return out
}
