// Package storage defines the persistence interface and its SQLite
// implementation.
package storage

import (
	"context"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
)

// Storage is the interface for all persistence operations. Every
// bookmark and tag operation is scoped by the owning user; a record
// that exists but belongs to someone else behaves exactly like a
// missing one.
type Storage interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	CreateBookmark(ctx context.Context, b *domain.Bookmark) error
	GetBookmark(ctx context.Context, ownerID, id int64) (*domain.Bookmark, error)
	ListBookmarks(ctx context.Context, ownerID int64, search string) ([]domain.Bookmark, error)
	ListScheduled(ctx context.Context, ownerID int64) ([]domain.Bookmark, error)
	ListDue(ctx context.Context, ownerID int64, asOf time.Time) ([]domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, ownerID, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error)
	DeleteBookmark(ctx context.Context, ownerID, id int64) error

	CreateTag(ctx context.Context, ownerID int64, name string) (*domain.Tag, error)
	ListTags(ctx context.Context, ownerID int64) ([]domain.Tag, error)
	DeleteTag(ctx context.Context, ownerID, tagID int64) error
	AddTag(ctx context.Context, ownerID, bookmarkID, tagID int64) error
	RemoveTag(ctx context.Context, ownerID, bookmarkID, tagID int64) error
	ListBookmarkTags(ctx context.Context, ownerID, bookmarkID int64) ([]domain.Tag, error)

	Ping(ctx context.Context) error
	Close() error
}
