package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stashspark/stashspark/internal/domain"
)

// CreateTag inserts a tag for the owner. The name is trimmed first;
// an empty result is rejected, a duplicate maps to ErrConflict via
// the (user_id, name) unique constraint.
func (s *SQLite) CreateTag(ctx context.Context, ownerID int64, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is required", domain.ErrValidation)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (user_id, name, created_at) VALUES (?, ?, ?)`,
		ownerID, name, now.Format(timeLayout),
	)
	if err != nil {
		if constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, fmt.Errorf("tag %q: %w", name, domain.ErrConflict)
		}
		return nil, storeErr("insert tag", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("last insert id", err)
	}
	return &domain.Tag{ID: id, OwnerID: ownerID, Name: name, CreatedAt: now}, nil
}

// ListTags returns the owner's tags sorted by name.
func (s *SQLite) ListTags(ctx context.Context, ownerID int64) ([]domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at FROM tags WHERE user_id = ? ORDER BY name ASC`, ownerID)
	if err != nil {
		return nil, storeErr("query tags", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

// DeleteTag removes an owned tag. Every association referencing it
// goes away in the same statement through the cascade, so no dangling
// link can survive a concurrent AddTag.
func (s *SQLite) DeleteTag(ctx context.Context, ownerID, tagID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM tags WHERE id = ? AND user_id = ?`, tagID, ownerID)
	if err != nil {
		return storeErr("delete tag", err)
	}
	return requireAffected(res, "delete tag")
}

// AddTag links a tag to a bookmark. Both sides must belong to the
// owner. The association's primary key decides races: of two
// concurrent adds for the same pair exactly one succeeds, the other
// gets ErrConflict. An insert racing a tag delete fails on the
// foreign key and reads as ErrNotFound.
func (s *SQLite) AddTag(ctx context.Context, ownerID, bookmarkID, tagID int64) error {
	if err := s.requireOwned(ctx, "bookmarks", bookmarkID, ownerID); err != nil {
		return err
	}
	if err := s.requireOwned(ctx, "tags", tagID, ownerID); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmark_tags (bookmark_id, tag_id) VALUES (?, ?)`, bookmarkID, tagID)
	if err != nil {
		switch constraintCode(err) {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return fmt.Errorf("association: %w", domain.ErrConflict)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return domain.ErrNotFound
		}
		return storeErr("insert association", err)
	}
	return nil
}

// RemoveTag unlinks a tag from a bookmark. A missing association is
// an error, not a silent no-op.
func (s *SQLite) RemoveTag(ctx context.Context, ownerID, bookmarkID, tagID int64) error {
	if err := s.requireOwned(ctx, "bookmarks", bookmarkID, ownerID); err != nil {
		return err
	}
	if err := s.requireOwned(ctx, "tags", tagID, ownerID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmark_tags WHERE bookmark_id = ? AND tag_id = ?`, bookmarkID, tagID)
	if err != nil {
		return storeErr("delete association", err)
	}
	return requireAffected(res, "delete association")
}

// ListBookmarkTags returns the tags attached to an owned bookmark,
// sorted by name.
func (s *SQLite) ListBookmarkTags(ctx context.Context, ownerID, bookmarkID int64) ([]domain.Tag, error) {
	if err := s.requireOwned(ctx, "bookmarks", bookmarkID, ownerID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.name, t.created_at
		 FROM tags t
		 JOIN bookmark_tags bt ON bt.tag_id = t.id
		 WHERE bt.bookmark_id = ?
		 ORDER BY t.name ASC`, bookmarkID)
	if err != nil {
		return nil, storeErr("query bookmark tags", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

// requireOwned checks that a row exists and belongs to the owner.
// table is always a compile-time constant here.
func (s *SQLite) requireOwned(ctx context.Context, table string, id, ownerID int64) error {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE id = ? AND user_id = ?`, id, ownerID).Scan(&n)
	if err != nil {
		return storeErr("check ownership", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTags(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]domain.Tag, error) {
	var tags []domain.Tag
	for rows.Next() {
		var t domain.Tag
		var created string
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &created); err != nil {
			return nil, storeErr("scan tag", err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, created)
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate tags", err)
	}
	return tags, nil
}
