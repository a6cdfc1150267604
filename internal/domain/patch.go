package domain

import (
	"database/sql"
	"time"
)

// BookmarkPatch is a partial update for a bookmark. Only non-nil
// fields are applied, which preserves the "only supplied fields are
// updated" contract without building SQL clauses dynamically.
type BookmarkPatch struct {
	Title              *string
	Notes              *string
	ReviewIntervalDays *int

	// NextReviewAt distinguishes three states: nil leaves the column
	// untouched, a value with Valid=false clears it, a value with
	// Valid=true sets it.
	NextReviewAt *sql.NullTime

	// LastReviewedAt is set on revisit confirmation; never cleared.
	LastReviewedAt *time.Time

	// Summary is written by the background summarizer.
	Summary *string
}

// IsZero reports whether the patch carries no fields at all.
func (p BookmarkPatch) IsZero() bool {
	return p.Title == nil &&
		p.Notes == nil &&
		p.ReviewIntervalDays == nil &&
		p.NextReviewAt == nil &&
		p.LastReviewedAt == nil &&
		p.Summary == nil
}
