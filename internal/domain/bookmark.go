package domain

import "time"

// Bookmark is a saved page owned by a single user.
//
// A bookmark optionally carries a revisit schedule: when
// ReviewIntervalDays > 0 the bookmark has a NextReviewAt date and shows
// up in due-today and calendar queries. NextReviewAt is always
// normalized to the start of a calendar day so that "due today" stays
// stable across repeated reads within the same day.
type Bookmark struct {
	// ID is the store-assigned unique identifier.
	ID int64

	// OwnerID scopes the bookmark to its user. Every query and
	// mutation is filtered by this value; a mismatch reads as
	// not-found, never as forbidden.
	OwnerID int64

	// Content fields. Opaque to the scheduling core.
	URL    string
	Title  string
	Domain string
	Notes  string

	// Summary is the AI-generated text, filled in asynchronously
	// after creation. Empty until the background task completes.
	Summary string

	// ReviewIntervalDays is the number of days added to "now" when a
	// revisit is confirmed. Zero means no schedule.
	ReviewIntervalDays int

	// NextReviewAt is non-nil iff the bookmark is scheduled. Always a
	// day-start instant.
	NextReviewAt *time.Time

	// LastReviewedAt records the most recent confirmation. Audit
	// only; scheduling never reads it.
	LastReviewedAt *time.Time

	CreatedAt time.Time

	// TagIDs holds the identifiers of the tags attached to this
	// bookmark, populated on read paths that need filtering.
	TagIDs []int64
}

// Tag is a user-owned label. Names are unique per owner after
// trimming, compared case-sensitively.
type Tag struct {
	ID        int64
	OwnerID   int64
	Name      string
	CreatedAt time.Time
}

// User is an account record. Only the id participates in owner
// scoping; everything else belongs to the auth boundary.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
