package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stashspark/stashspark/internal/httpserver/deps"
	"github.com/stashspark/stashspark/internal/httpserver/mw"
	"github.com/stashspark/stashspark/internal/httpserver/routes"
	"github.com/stashspark/stashspark/internal/logger"
	"github.com/stashspark/stashspark/internal/revisit"
	"github.com/stashspark/stashspark/internal/storage"
)

var testNow = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type fakeSessions struct {
	next     int
	sessions map[string]int64
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]int64)}
}

func (f *fakeSessions) Create(_ context.Context, userID int64) (string, error) {
	f.next++
	id := fmt.Sprintf("sess-%d", f.next)
	f.sessions[id] = userID
	return id, nil
}

func (f *fakeSessions) Resolve(_ context.Context, id string) (int64, error) {
	userID, ok := f.sessions[id]
	if !ok {
		return 0, fmt.Errorf("unknown session: %w", errUnauthenticated)
	}
	return userID, nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessions) Ping(context.Context) error { return nil }

type fakeQueue struct{ jobs []int64 }

func (q *fakeQueue) Enqueue(_, bookmarkID int64) bool {
	q.jobs = append(q.jobs, bookmarkID)
	return true
}

type env struct {
	router   *chi.Mux
	deps     deps.Deps
	sessions *fakeSessions
	queue    *fakeQueue
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	sessions := newFakeSessions()
	queue := &fakeQueue{}
	d := deps.Deps{
		Logger:              logger.New("error", false),
		StartTime:           time.Now(),
		TimeNow:             func() time.Time { return testNow },
		Store:               store,
		Sessions:            sessions,
		Summaries:           queue,
		Policy:              revisit.NewPolicy(time.UTC),
		DefaultIntervalDays: 3,
		SessionTTL:          time.Hour,
		LoginRateBurst:      100,
		LoginRatePerMin:     100,
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)

	return &env{router: r, deps: d, sessions: sessions, queue: queue}
}

// login creates an account directly in the store and returns a live
// session cookie for it.
func (e *env) login(t *testing.T, email string) (*http.Cookie, int64) {
	t.Helper()
	user, err := e.deps.Store.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	sid, _ := e.sessions.Create(context.Background(), user.ID)
	return &http.Cookie{Name: mw.SessionCookie, Value: sid}, user.ID
}

func (e *env) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

var errUnauthenticated = fmt.Errorf("unauthenticated")

type bookmarkResp struct {
	ID                 int64      `json:"id"`
	URL                string     `json:"url"`
	Title              string     `json:"title"`
	Domain             string     `json:"domain"`
	Notes              string     `json:"notes"`
	AISummary          string     `json:"ai_summary"`
	ReviewIntervalDays int        `json:"review_interval_days"`
	NextReviewAt       *time.Time `json:"next_review_at"`
	LastReviewedAt     *time.Time `json:"last_reviewed_at"`
	TagIDs             []int64    `json:"tag_ids"`
}

type tagResp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestAuthFlow(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "Reader@Example.com", "password": "hunter2hunter2"}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 || cookies[0].Name != mw.SessionCookie {
		t.Fatal("register should set a session cookie")
	}
	sessionCookie := cookies[0]

	rec = e.do(t, http.MethodGet, "/api/auth/me", nil, sessionCookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d", rec.Code)
	}
	me := decodeBody[map[string]any](t, rec)
	if me["email"] != "reader@example.com" {
		t.Errorf("email = %v, want lowercased", me["email"])
	}

	rec = e.do(t, http.MethodPost, "/api/auth/register",
		map[string]string{"email": "reader@example.com", "password": "hunter2hunter2"}, nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "reader@example.com", "password": "wrong-password"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "reader@example.com", "password": "hunter2hunter2"}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("login status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("me without cookie status = %d, want 401", rec.Code)
	}
}

func TestCreateBookmarkSchedulesReview(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.login(t, "a@example.com")

	rec := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://go.dev/blog/slices", "title": "Slices"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}

	b := decodeBody[bookmarkResp](t, rec)
	if b.Domain != "go.dev" {
		t.Errorf("domain = %q", b.Domain)
	}
	if b.ReviewIntervalDays != 3 {
		t.Errorf("interval = %d, want default 3", b.ReviewIntervalDays)
	}
	wantNext := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	if b.NextReviewAt == nil || !b.NextReviewAt.Equal(wantNext) {
		t.Errorf("next_review_at = %v, want %v", b.NextReviewAt, wantNext)
	}
	if len(e.queue.jobs) != 1 || e.queue.jobs[0] != b.ID {
		t.Errorf("summary queue = %v, want one job for bookmark %d", e.queue.jobs, b.ID)
	}

	rec = e.do(t, http.MethodPost, "/api/bookmarks", map[string]any{"url": "not a url"}, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid url status = %d, want 400", rec.Code)
	}
}

func TestUpdateBookmarkScheduleEdges(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.login(t, "a@example.com")

	rec := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://example.com/a", "title": "A"}, cookie)
	b := decodeBody[bookmarkResp](t, rec)
	path := fmt.Sprintf("/api/bookmarks/%d", b.ID)

	// Interval change alone keeps the existing due date.
	rec = e.do(t, http.MethodPut, path, map[string]any{"review_interval_days": 14}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	got := decodeBody[bookmarkResp](t, rec)
	if got.ReviewIntervalDays != 14 {
		t.Errorf("interval = %d, want 14", got.ReviewIntervalDays)
	}
	if got.NextReviewAt == nil || !got.NextReviewAt.Equal(*b.NextReviewAt) {
		t.Errorf("next_review_at = %v, want unchanged %v", got.NextReviewAt, b.NextReviewAt)
	}

	// Explicit null unschedules.
	rec = e.do(t, http.MethodPut, path, json.RawMessage(`{"next_review_at": null}`), cookie)
	got = decodeBody[bookmarkResp](t, rec)
	if got.NextReviewAt != nil {
		t.Errorf("next_review_at = %v, want cleared", got.NextReviewAt)
	}

	// Explicit date is normalized to its day start.
	rec = e.do(t, http.MethodPut, path,
		map[string]any{"next_review_at": "2024-02-10T15:30:00Z"}, cookie)
	got = decodeBody[bookmarkResp](t, rec)
	wantDay := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if got.NextReviewAt == nil || !got.NextReviewAt.Equal(wantDay) {
		t.Errorf("next_review_at = %v, want %v", got.NextReviewAt, wantDay)
	}

	// Untouched fields survive a partial update.
	rec = e.do(t, http.MethodPut, path, map[string]any{"notes": "updated"}, cookie)
	got = decodeBody[bookmarkResp](t, rec)
	if got.Title != "A" || got.Notes != "updated" {
		t.Errorf("got title=%q notes=%q", got.Title, got.Notes)
	}
	if got.NextReviewAt == nil || !got.NextReviewAt.Equal(wantDay) {
		t.Errorf("notes-only update moved due date to %v", got.NextReviewAt)
	}
}

func TestMarkReviewedAdvancesSchedule(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.login(t, "a@example.com")

	rec := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://example.com/a", "title": "A", "review_interval_days": 0}, cookie)
	b := decodeBody[bookmarkResp](t, rec)
	if b.NextReviewAt != nil {
		t.Fatalf("zero interval bookmark should be unscheduled, got %v", b.NextReviewAt)
	}

	rec = e.do(t, http.MethodPost, fmt.Sprintf("/api/bookmarks/%d/mark-reviewed", b.ID), nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-reviewed status = %d", rec.Code)
	}
	got := decodeBody[bookmarkResp](t, rec)

	// No interval still advances one day.
	wantNext := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got.NextReviewAt == nil || !got.NextReviewAt.Equal(wantNext) {
		t.Errorf("next_review_at = %v, want %v", got.NextReviewAt, wantNext)
	}
	if got.ReviewIntervalDays != 0 {
		t.Errorf("interval = %d, confirming must not rewrite it", got.ReviewIntervalDays)
	}
	if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(testNow) {
		t.Errorf("last_reviewed_at = %v, want %v", got.LastReviewedAt, testNow)
	}
}

func TestReviewTodayAndRange(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.login(t, "a@example.com")

	for i, interval := range []int{1, 3, 0} {
		rec := e.do(t, http.MethodPost, "/api/bookmarks", map[string]any{
			"url":                  fmt.Sprintf("https://example.com/%d", i),
			"title":                fmt.Sprintf("B%d", i),
			"review_interval_days": interval,
		}, cookie)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d status = %d", i, rec.Code)
		}
	}

	// Nothing is due at creation time.
	rec := e.do(t, http.MethodGet, "/api/bookmarks/review/today", nil, cookie)
	if got := decodeBody[[]bookmarkResp](t, rec); len(got) != 0 {
		t.Errorf("due today = %d bookmarks, want 0", len(got))
	}

	rec = e.do(t, http.MethodGet, "/api/bookmarks/review/range?start=2024-01-01&end=2024-01-31", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("range status = %d", rec.Code)
	}
	days := decodeBody[map[string][]bookmarkResp](t, rec)
	if len(days) != 2 {
		t.Fatalf("got %d buckets, want 2: %v", len(days), days)
	}
	if len(days["2024-01-02"]) != 1 || len(days["2024-01-04"]) != 1 {
		t.Errorf("buckets = %v, want one bookmark each on 01-02 and 01-04", days)
	}

	rec = e.do(t, http.MethodGet, "/api/bookmarks/review/range?start=2024-01-31&end=2024-01-01", nil, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range status = %d, want 400", rec.Code)
	}
}

func TestTagLifecycle(t *testing.T) {
	e := newEnv(t)
	cookie, _ := e.login(t, "a@example.com")

	rec := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://example.com/a", "title": "A"}, cookie)
	b := decodeBody[bookmarkResp](t, rec)

	rec = e.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "go"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create tag status = %d", rec.Code)
	}
	tag := decodeBody[tagResp](t, rec)

	rec = e.do(t, http.MethodPost, "/api/tags", map[string]string{"name": "go"}, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate tag status = %d, want 409", rec.Code)
	}

	attachPath := fmt.Sprintf("/api/tags/bookmark/%d", b.ID)
	rec = e.do(t, http.MethodPost, attachPath, map[string]int64{"tagId": tag.ID}, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("attach status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := decodeBody[[]tagResp](t, rec); len(got) != 1 || got[0].Name != "go" {
		t.Errorf("bookmark tags = %v", got)
	}

	rec = e.do(t, http.MethodPost, attachPath, map[string]int64{"tagId": tag.ID}, cookie)
	if rec.Code != http.StatusConflict {
		t.Errorf("re-attach status = %d, want 409", rec.Code)
	}

	// Tag filter: only tagged bookmarks match.
	rec = e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://example.com/b", "title": "B"}, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create second bookmark status = %d", rec.Code)
	}
	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/bookmarks?tags=%d", tag.ID), nil, cookie)
	if got := decodeBody[[]bookmarkResp](t, rec); len(got) != 1 || got[0].ID != b.ID {
		t.Errorf("filtered bookmarks = %v, want only %d", got, b.ID)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/tags/bookmark/%d/%d", b.ID, tag.ID), nil, cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("detach status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/tags/%d", tag.ID), nil, cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("delete tag status = %d", rec.Code)
	}
}

func TestOwnerScoping(t *testing.T) {
	e := newEnv(t)
	aliceCookie, _ := e.login(t, "alice@example.com")
	bobCookie, _ := e.login(t, "bob@example.com")

	rec := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]any{"url": "https://example.com/private", "title": "Private"}, aliceCookie)
	b := decodeBody[bookmarkResp](t, rec)

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/api/bookmarks/%d", b.ID), nil, bobCookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner read status = %d, want 404", rec.Code)
	}

	rec = e.do(t, http.MethodDelete, fmt.Sprintf("/api/bookmarks/%d", b.ID), nil, bobCookie)
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner delete status = %d, want 404", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d", rec.Code)
	}

	rec = e.do(t, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("readyz status = %d, body %s", rec.Code, rec.Body.String())
	}
}
