package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/filter"
	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
	"github.com/stashspark/stashspark/internal/logger"
	"github.com/stashspark/stashspark/internal/metadata"
	"github.com/stashspark/stashspark/internal/revisit"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return id, nil
}

// parseTagIDs parses the ?tags=1,2,3 query parameter. Empty input
// means no tag filtering.
func parseTagIDs(raw string) ([]int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: invalid tag id %q", domain.ErrValidation, p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ListBookmarks returns the caller's bookmarks, optionally narrowed
// by a text search and a tag selection. Tags combine with OR: a
// bookmark matches when it carries at least one selected tag.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())

		tagIDs, err := parseTagIDs(r.URL.Query().Get("tags"))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		bookmarks, err := d.Store.ListBookmarks(r.Context(), ownerID, r.URL.Query().Get("search"))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toBookmarkList(filter.ByTags(bookmarks, tagIDs)))
	}
}

type createBookmarkRequest struct {
	URL                string `json:"url"`
	Title              string `json:"title"`
	Notes              string `json:"notes"`
	ReviewIntervalDays *int   `json:"review_interval_days"`
}

// CreateBookmark saves a new bookmark. Page metadata is fetched
// inline but is best effort: an unreachable page falls back to a
// title derived from the URL. The AI summary is queued for the
// background worker and never delays the response.
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())

		var req createBookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		if !metadata.ValidURL(req.URL) {
			writeErr(w, d.Logger, fmt.Errorf("%w: a valid http(s) url is required", domain.ErrValidation))
			return
		}

		interval := d.DefaultIntervalDays
		if req.ReviewIntervalDays != nil {
			interval = *req.ReviewIntervalDays
		}
		schedule, err := d.Policy.Initialize(d.Now(), interval)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		title := strings.TrimSpace(req.Title)
		if title == "" {
			if meta, err := d.Metadata.Fetch(r.Context(), req.URL); err == nil && meta.Title != "" {
				title = meta.Title
			} else {
				title = metadata.FallbackTitle(req.URL)
			}
		}

		b := &domain.Bookmark{
			OwnerID:            ownerID,
			URL:                req.URL,
			Title:              title,
			Domain:             metadata.Domain(req.URL),
			Notes:              req.Notes,
			ReviewIntervalDays: schedule.IntervalDays,
			NextReviewAt:       schedule.NextReviewAt,
		}
		if err := d.Store.CreateBookmark(r.Context(), b); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		if d.Summaries != nil {
			d.Summaries.Enqueue(ownerID, b.ID)
		}

		d.Logger.Info("bookmark created",
			logger.Int64("bookmark_id", b.ID),
			logger.String("domain", b.Domain))
		writeJSON(w, http.StatusCreated, toBookmarkJSON(*b))
	}
}

// GetBookmark returns a single bookmark.
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		b, err := d.Store.GetBookmark(r.Context(), mw.UserID(r.Context()), id)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookmarkJSON(*b))
	}
}

type updateBookmarkRequest struct {
	Title              *string         `json:"title"`
	Notes              *string         `json:"notes"`
	ReviewIntervalDays *int            `json:"review_interval_days"`
	NextReviewAt       json.RawMessage `json:"next_review_at"`
}

// UpdateBookmark applies a partial update. Absent fields stay
// untouched. Editing the interval alone keeps the current due date;
// an explicit next_review_at (or null to unschedule) wins over the
// derived one.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		var req updateBookmarkRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		var explicitNext *time.Time
		clearNext := false
		if len(req.NextReviewAt) > 0 {
			if bytes.Equal(bytes.TrimSpace(req.NextReviewAt), []byte("null")) {
				clearNext = true
			} else {
				var t time.Time
				if err := json.Unmarshal(req.NextReviewAt, &t); err != nil {
					writeErr(w, d.Logger, fmt.Errorf("%w: next_review_at must be an RFC 3339 timestamp or null", domain.ErrValidation))
					return
				}
				day := d.Policy.DayStart(t)
				explicitNext = &day
			}
		}

		patch := domain.BookmarkPatch{Title: req.Title, Notes: req.Notes}

		if req.ReviewIntervalDays != nil {
			current, err := d.Store.GetBookmark(r.Context(), ownerID, id)
			if err != nil {
				writeErr(w, d.Logger, err)
				return
			}
			schedule, err := d.Policy.SetInterval(revisit.ScheduleOf(*current), *req.ReviewIntervalDays, explicitNext)
			if err != nil {
				writeErr(w, d.Logger, err)
				return
			}
			patch.ReviewIntervalDays = &schedule.IntervalDays
			patch.NextReviewAt = toNullTime(schedule.NextReviewAt)
		}
		switch {
		case clearNext:
			patch.NextReviewAt = &sql.NullTime{}
		case explicitNext != nil && patch.NextReviewAt == nil:
			patch.NextReviewAt = &sql.NullTime{Time: *explicitNext, Valid: true}
		}

		b, err := d.Store.UpdateBookmark(r.Context(), ownerID, id, patch)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookmarkJSON(*b))
	}
}

func toNullTime(t *time.Time) *sql.NullTime {
	if t == nil {
		return &sql.NullTime{}
	}
	return &sql.NullTime{Time: *t, Valid: true}
}

// DeleteBookmark removes a bookmark and its tag associations.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		if err := d.Store.DeleteBookmark(r.Context(), mw.UserID(r.Context()), id); err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeMessage(w, http.StatusOK, "bookmark deleted")
	}
}

// ReviewToday returns every bookmark due now or earlier, ordered by
// due date.
func ReviewToday(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bookmarks, err := d.Store.ListDue(r.Context(), mw.UserID(r.Context()), d.Now())
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookmarkList(bookmarks))
	}
}

const dateLayout = "2006-01-02"

// ReviewRange groups scheduled bookmarks by due day over an inclusive
// date window, for the calendar view.
func ReviewRange(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loc := d.Policy.Location()
		start, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("start"), loc)
		if err != nil {
			writeErr(w, d.Logger, fmt.Errorf("%w: start must be YYYY-MM-DD", domain.ErrValidation))
			return
		}
		end, err := time.ParseInLocation(dateLayout, r.URL.Query().Get("end"), loc)
		if err != nil {
			writeErr(w, d.Logger, fmt.Errorf("%w: end must be YYYY-MM-DD", domain.ErrValidation))
			return
		}
		if end.Before(start) {
			writeErr(w, d.Logger, fmt.Errorf("%w: end before start", domain.ErrValidation))
			return
		}

		bookmarks, err := d.Store.ListScheduled(r.Context(), mw.UserID(r.Context()))
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		days := make(map[string][]bookmarkJSON)
		for key, bs := range d.Policy.Aggregate(bookmarks, start, end) {
			days[key.String()] = toBookmarkList(bs)
		}
		writeJSON(w, http.StatusOK, days)
	}
}

// MarkReviewed confirms a revisit: stamps last_reviewed_at and pushes
// the due date forward by the interval.
func MarkReviewed(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		current, err := d.Store.GetBookmark(r.Context(), ownerID, id)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		schedule := d.Policy.ConfirmRevisit(revisit.ScheduleOf(*current), d.Now())
		patch := domain.BookmarkPatch{
			NextReviewAt:   toNullTime(schedule.NextReviewAt),
			LastReviewedAt: schedule.LastReviewedAt,
		}

		b, err := d.Store.UpdateBookmark(r.Context(), ownerID, id, patch)
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toBookmarkJSON(*b))
	}
}

// QueueSummary schedules regeneration of the AI summary.
func QueueSummary(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerID := mw.UserID(r.Context())
		id, err := pathID(r, "id")
		if err != nil {
			writeErr(w, d.Logger, err)
			return
		}
		if _, err := d.Store.GetBookmark(r.Context(), ownerID, id); err != nil {
			writeErr(w, d.Logger, err)
			return
		}

		if d.Summaries == nil {
			writeErrMsg(w, http.StatusServiceUnavailable, "summaries are disabled")
			return
		}
		if !d.Summaries.Enqueue(ownerID, id) {
			writeErrMsg(w, http.StatusServiceUnavailable, "summary queue is full, try again later")
			return
		}
		writeMessage(w, http.StatusAccepted, "summary queued")
	}
}
