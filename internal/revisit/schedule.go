// Package revisit owns the temporal lifecycle of bookmark revisit
// schedules: computing due dates, advancing them on confirmation and
// bucketing scheduled bookmarks by calendar day.
//
// Every function here is pure: the evaluation instant is always passed
// in by the caller and the day-boundary zone is fixed at construction,
// so the same inputs always produce the same schedule regardless of
// server locale or wall clock.
package revisit

import (
	"fmt"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
)

// Schedule is the scheduling slice of a bookmark: the interval plus
// the two timestamps derived from it.
type Schedule struct {
	IntervalDays   int
	NextReviewAt   *time.Time
	LastReviewedAt *time.Time
}

// Policy fixes the day-boundary zone used for normalization. All
// schedule computations for one deployment go through a single Policy
// so that "start of day" means the same thing everywhere.
type Policy struct {
	loc *time.Location
}

// NewPolicy returns a Policy anchored to loc. A nil loc falls back to
// UTC.
func NewPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{loc: loc}
}

// Location returns the policy's day-boundary zone.
func (p Policy) Location() *time.Location {
	return p.loc
}

// DayStart truncates t to 00:00:00 of its calendar day in the policy
// zone. Due dates are always day starts, never sub-day instants.
func (p Policy) DayStart(t time.Time) time.Time {
	y, m, d := t.In(p.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc)
}

// Initialize computes the schedule for a freshly created bookmark.
// With intervalDays == 0 the bookmark stays unscheduled.
func (p Policy) Initialize(createdAt time.Time, intervalDays int) (Schedule, error) {
	if intervalDays < 0 {
		return Schedule{}, fmt.Errorf("%w: interval must be >= 0, got %d", domain.ErrValidation, intervalDays)
	}
	s := Schedule{IntervalDays: intervalDays}
	if intervalDays > 0 {
		next := p.DayStart(createdAt.AddDate(0, 0, intervalDays))
		s.NextReviewAt = &next
	}
	return s, nil
}

// SetInterval updates the interval of an existing schedule.
//
// When explicitNextReviewAt is supplied it is used verbatim, so a
// caller editing interval and due date together stays in control.
// Otherwise the due date is left untouched: editing notes alone must
// not silently reschedule. Setting the interval to zero clears the
// due date.
func (p Policy) SetInterval(current Schedule, intervalDays int, explicitNextReviewAt *time.Time) (Schedule, error) {
	if intervalDays < 0 {
		return Schedule{}, fmt.Errorf("%w: interval must be >= 0, got %d", domain.ErrValidation, intervalDays)
	}
	next := current.NextReviewAt
	switch {
	case explicitNextReviewAt != nil:
		t := *explicitNextReviewAt
		next = &t
	case intervalDays == 0:
		next = nil
	}
	return Schedule{
		IntervalDays:   intervalDays,
		NextReviewAt:   next,
		LastReviewedAt: current.LastReviewedAt,
	}, nil
}

// ConfirmRevisit records a user-confirmed revisit at now and advances
// the due date. A schedule with no interval still advances by one day:
// confirming is an explicit action and must always produce forward
// progress.
func (p Policy) ConfirmRevisit(current Schedule, now time.Time) Schedule {
	intervalDays := current.IntervalDays
	if intervalDays <= 0 {
		intervalDays = 1
	}
	next := p.DayStart(now.AddDate(0, 0, intervalDays))
	reviewed := now
	return Schedule{
		IntervalDays:   current.IntervalDays,
		NextReviewAt:   &next,
		LastReviewedAt: &reviewed,
	}
}

// IsDue reports whether a bookmark with the given due date is due at
// asOf. Unscheduled bookmarks are never due.
func IsDue(nextReviewAt *time.Time, asOf time.Time) bool {
	return nextReviewAt != nil && !nextReviewAt.After(asOf)
}

// ScheduleOf extracts the scheduling slice of a bookmark.
func ScheduleOf(b domain.Bookmark) Schedule {
	return Schedule{
		IntervalDays:   b.ReviewIntervalDays,
		NextReviewAt:   b.NextReviewAt,
		LastReviewedAt: b.LastReviewedAt,
	}
}
