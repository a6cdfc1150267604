package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/stashspark/stashspark/internal/domain"
)

var ignoreBookmarkTimes = cmpopts.IgnoreFields(domain.Bookmark{}, "CreatedAt")

func newTestDB(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestUser(t *testing.T, s *SQLite, email string) int64 {
	t.Helper()
	u, err := s.CreateUser(context.Background(), email, "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	if _, err := s.CreateUser(ctx, "a@example.com", "h1"); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := s.CreateUser(ctx, "a@example.com", "h2")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestBookmarkCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	owner := newTestUser(t, s, "crud@example.com")

	next := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	b := domain.Bookmark{
		OwnerID:            owner,
		URL:                "https://go.dev/blog/error-handling",
		Title:              "Error handling",
		Domain:             "go.dev",
		Notes:              "re-read before the next refactor",
		ReviewIntervalDays: 3,
		NextReviewAt:       &next,
	}
	if err := s.CreateBookmark(ctx, &b); err != nil {
		t.Fatalf("create: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("expected non-zero ID")
	}

	got, err := s.GetBookmark(ctx, owner, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(b, *got, ignoreBookmarkTimes); diff != "" {
		t.Errorf("GetBookmark mismatch (-want +got):\n%s", diff)
	}

	if err := s.DeleteBookmark(ctx, owner, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetBookmark(ctx, owner, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestBookmarkOwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	alice := newTestUser(t, s, "alice@example.com")
	bob := newTestUser(t, s, "bob@example.com")

	b := domain.Bookmark{OwnerID: alice, URL: "https://example.com"}
	if err := s.CreateBookmark(ctx, &b); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.GetBookmark(ctx, bob, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-owner get: expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteBookmark(ctx, bob, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-owner delete: expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateBookmark(ctx, bob, b.ID, domain.BookmarkPatch{Title: strPtr("x")}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-owner update: expected ErrNotFound, got %v", err)
	}
}

func TestListBookmarksSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	owner := newTestUser(t, s, "search@example.com")

	seed := []domain.Bookmark{
		{OwnerID: owner, URL: "https://go.dev", Title: "The Go website"},
		{OwnerID: owner, URL: "https://rust-lang.org", Title: "Rust", Notes: "systems language"},
		{OwnerID: owner, URL: "https://example.com/golang-tips", Title: "Tips"},
	}
	for i := range seed {
		if err := s.CreateBookmark(ctx, &seed[i]); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{name: "no search returns all", search: "", want: 3},
		{name: "title match", search: "Go website", want: 1},
		{name: "url match", search: "golang", want: 1},
		{name: "notes match", search: "systems", want: 1},
		{name: "no match", search: "zebra", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListBookmarks(ctx, owner, tt.search)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d bookmarks, want %d", len(got), tt.want)
			}
		})
	}
}

func TestUpdateBookmarkPatchPresence(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	owner := newTestUser(t, s, "patch@example.com")

	next := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	b := domain.Bookmark{
		OwnerID:            owner,
		URL:                "https://example.com",
		Title:              "Original",
		Notes:              "keep me",
		ReviewIntervalDays: 3,
		NextReviewAt:       &next,
	}
	if err := s.CreateBookmark(ctx, &b); err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("absent fields untouched", func(t *testing.T) {
		got, err := s.UpdateBookmark(ctx, owner, b.ID, domain.BookmarkPatch{Title: strPtr("Renamed")})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.Title != "Renamed" {
			t.Errorf("title = %q, want Renamed", got.Title)
		}
		if got.Notes != "keep me" {
			t.Errorf("notes changed to %q", got.Notes)
		}
		if got.NextReviewAt == nil || !got.NextReviewAt.Equal(next) {
			t.Errorf("next review changed to %v", got.NextReviewAt)
		}
	})

	t.Run("explicit null clears due date", func(t *testing.T) {
		got, err := s.UpdateBookmark(ctx, owner, b.ID, domain.BookmarkPatch{
			NextReviewAt: &sql.NullTime{Valid: false},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.NextReviewAt != nil {
			t.Errorf("next review = %v, want nil", got.NextReviewAt)
		}
	})

	t.Run("set due date", func(t *testing.T) {
		newDue := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
		got, err := s.UpdateBookmark(ctx, owner, b.ID, domain.BookmarkPatch{
			NextReviewAt: &sql.NullTime{Time: newDue, Valid: true},
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if got.NextReviewAt == nil || !got.NextReviewAt.Equal(newDue) {
			t.Errorf("next review = %v, want %v", got.NextReviewAt, newDue)
		}
	})
}

func TestListDue(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)
	owner := newTestUser(t, s, "due@example.com")

	asOf := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		t := time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	seed := []domain.Bookmark{
		{OwnerID: owner, URL: "https://a.com", NextReviewAt: day(8)},
		{OwnerID: owner, URL: "https://b.com", NextReviewAt: day(10)},
		{OwnerID: owner, URL: "https://c.com", NextReviewAt: day(12)},
		{OwnerID: owner, URL: "https://d.com"}, // unscheduled
	}
	for i := range seed {
		if err := s.CreateBookmark(ctx, &seed[i]); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	got, err := s.ListDue(ctx, owner, asOf)
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d due bookmarks, want 2", len(got))
	}
	if got[0].URL != "https://a.com" || got[1].URL != "https://b.com" {
		t.Errorf("wrong order or set: %q, %q", got[0].URL, got[1].URL)
	}

	scheduled, err := s.ListScheduled(ctx, owner)
	if err != nil {
		t.Fatalf("list scheduled: %v", err)
	}
	if len(scheduled) != 3 {
		t.Errorf("got %d scheduled bookmarks, want 3", len(scheduled))
	}
}

func strPtr(s string) *string { return &s }
