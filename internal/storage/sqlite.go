package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending
// migrations. Foreign keys are switched on: the cascade from tags to
// bookmark_tags is part of the store's contract.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrations.Apply(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Ping checks database reachability.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts an account. A duplicate email maps to
// ErrConflict via the unique constraint.
func (s *SQLite) CreateUser(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		email, passwordHash, now.Format(timeLayout),
	)
	if err != nil {
		if constraintCode(err) == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
			return nil, fmt.Errorf("user %s: %w", email, domain.ErrConflict)
		}
		return nil, storeErr("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, storeErr("last insert id", err)
	}
	return &domain.User{ID: id, Email: email, PasswordHash: passwordHash, CreatedAt: now}, nil
}

// GetUser returns a user by id.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns a user by email.
func (s *SQLite) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func (s *SQLite) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var created string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("scan user", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

const bookmarkColumns = `id, user_id, url, title, domain, notes, ai_summary,
	review_interval_days, next_review_at, last_reviewed_at, created_at`

// CreateBookmark inserts a bookmark and populates its ID and CreatedAt.
func (s *SQLite) CreateBookmark(ctx context.Context, b *domain.Bookmark) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (user_id, url, title, domain, notes, ai_summary,
		 review_interval_days, next_review_at, last_reviewed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.OwnerID, b.URL, b.Title, b.Domain, b.Notes, b.Summary,
		b.ReviewIntervalDays, formatNullableTime(b.NextReviewAt), formatNullableTime(b.LastReviewedAt),
		now.Format(timeLayout),
	)
	if err != nil {
		return storeErr("insert bookmark", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storeErr("last insert id", err)
	}
	b.ID = id
	b.CreatedAt = now
	return nil
}

// GetBookmark returns a single owned bookmark with its tag ids.
func (s *SQLite) GetBookmark(ctx context.Context, ownerID, id int64) (*domain.Bookmark, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`, id, ownerID)
	b, err := scanBookmark(row)
	if err != nil {
		return nil, err
	}
	if err := s.attachTagIDs(ctx, ownerID, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBookmarks returns all bookmarks of the owner, newest first. A
// non-empty search narrows to bookmarks whose title, notes or url
// contain it.
func (s *SQLite) ListBookmarks(ctx context.Context, ownerID int64, search string) ([]domain.Bookmark, error) {
	query := `SELECT ` + bookmarkColumns + ` FROM bookmarks WHERE user_id = ?`
	args := []any{ownerID}
	if search != "" {
		query += ` AND (title LIKE ? OR notes LIKE ? OR url LIKE ?)`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return s.queryBookmarks(ctx, ownerID, query, args...)
}

// ListScheduled returns every owned bookmark carrying a due date, in
// due-date order. This is the input set for calendar aggregation.
func (s *SQLite) ListScheduled(ctx context.Context, ownerID int64) ([]domain.Bookmark, error) {
	return s.queryBookmarks(ctx, ownerID,
		`SELECT `+bookmarkColumns+` FROM bookmarks
		 WHERE user_id = ? AND next_review_at IS NOT NULL
		 ORDER BY next_review_at ASC, id ASC`, ownerID)
}

// ListDue returns owned bookmarks due at or before asOf, soonest
// first.
func (s *SQLite) ListDue(ctx context.Context, ownerID int64, asOf time.Time) ([]domain.Bookmark, error) {
	return s.queryBookmarks(ctx, ownerID,
		`SELECT `+bookmarkColumns+` FROM bookmarks
		 WHERE user_id = ? AND next_review_at IS NOT NULL AND next_review_at <= ?
		 ORDER BY next_review_at ASC, id ASC`,
		ownerID, asOf.UTC().Format(timeLayout))
}

// UpdateBookmark applies a partial update. Only fields present in the
// patch are written; everything else keeps its stored value.
func (s *SQLite) UpdateBookmark(ctx context.Context, ownerID, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storeErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`, id, ownerID)
	b, err := scanBookmark(row)
	if err != nil {
		return nil, err
	}

	applyPatch(b, patch)

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookmarks
		 SET title = ?, notes = ?, ai_summary = ?, review_interval_days = ?,
		     next_review_at = ?, last_reviewed_at = ?
		 WHERE id = ? AND user_id = ?`,
		b.Title, b.Notes, b.Summary, b.ReviewIntervalDays,
		formatNullableTime(b.NextReviewAt), formatNullableTime(b.LastReviewedAt),
		id, ownerID,
	); err != nil {
		return nil, storeErr("update bookmark", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, storeErr("commit", err)
	}

	if err := s.attachTagIDs(ctx, ownerID, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBookmark removes an owned bookmark; associations go with it
// through the cascade.
func (s *SQLite) DeleteBookmark(ctx context.Context, ownerID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return storeErr("delete bookmark", err)
	}
	return requireAffected(res, "delete bookmark")
}

func applyPatch(b *domain.Bookmark, patch domain.BookmarkPatch) {
	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Notes != nil {
		b.Notes = *patch.Notes
	}
	if patch.Summary != nil {
		b.Summary = *patch.Summary
	}
	if patch.ReviewIntervalDays != nil {
		b.ReviewIntervalDays = *patch.ReviewIntervalDays
	}
	if patch.NextReviewAt != nil {
		if patch.NextReviewAt.Valid {
			t := patch.NextReviewAt.Time
			b.NextReviewAt = &t
		} else {
			b.NextReviewAt = nil
		}
	}
	if patch.LastReviewedAt != nil {
		t := *patch.LastReviewedAt
		b.LastReviewedAt = &t
	}
}

func (s *SQLite) queryBookmarks(ctx context.Context, ownerID int64, query string, args ...any) ([]domain.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("query bookmarks", err)
	}
	defer func() { _ = rows.Close() }()

	var ptrs []*domain.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate bookmarks", err)
	}

	if err := s.attachTagIDs(ctx, ownerID, ptrs); err != nil {
		return nil, err
	}

	bookmarks := make([]domain.Bookmark, len(ptrs))
	for i, b := range ptrs {
		bookmarks[i] = *b
	}
	return bookmarks, nil
}

// attachTagIDs fills TagIDs for the given bookmarks in one query.
func (s *SQLite) attachTagIDs(ctx context.Context, ownerID int64, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT bt.bookmark_id, bt.tag_id
		 FROM bookmark_tags bt
		 JOIN bookmarks b ON b.id = bt.bookmark_id
		 WHERE b.user_id = ?
		 ORDER BY bt.tag_id`, ownerID)
	if err != nil {
		return storeErr("query associations", err)
	}
	defer func() { _ = rows.Close() }()

	byBookmark := make(map[int64][]int64)
	for rows.Next() {
		var bookmarkID, tagID int64
		if err := rows.Scan(&bookmarkID, &tagID); err != nil {
			return storeErr("scan association", err)
		}
		byBookmark[bookmarkID] = append(byBookmark[bookmarkID], tagID)
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate associations", err)
	}

	for _, b := range bookmarks {
		b.TagIDs = byBookmark[b.ID]
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanBookmark(row scannable) (*domain.Bookmark, error) {
	var b domain.Bookmark
	var next, last sql.NullString
	var created string
	err := row.Scan(&b.ID, &b.OwnerID, &b.URL, &b.Title, &b.Domain, &b.Notes, &b.Summary,
		&b.ReviewIntervalDays, &next, &last, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("scan bookmark", err)
	}
	b.NextReviewAt = parseNullableTime(next)
	b.LastReviewedAt = parseNullableTime(last)
	b.CreatedAt, _ = time.Parse(timeLayout, created)
	return &b, nil
}

func formatNullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(timeLayout)
	return &v
}

func parseNullableTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil
	}
	return &t
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func constraintCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
