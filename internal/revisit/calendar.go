package revisit

import (
	"fmt"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
)

// DateKey identifies one calendar day in the policy zone.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// String renders the key as YYYY-MM-DD.
func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, k.Month, k.Day)
}

// DateKeyOf returns the calendar-day key of t in the policy zone.
func (p Policy) DateKeyOf(t time.Time) DateKey {
	y, m, d := t.In(p.loc).Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// Aggregate groups scheduled bookmarks by the calendar day of their
// due date over the inclusive window [rangeStart, rangeEnd].
//
// Comparison is by calendar day, not exact instant, using the same
// normalization as the scheduler. Unscheduled bookmarks never appear;
// a bookmark due outside the window is excluded entirely rather than
// clipped to the window edges. Each bookmark lands in at most one
// bucket, and bucket order follows the stable order of the input.
//
// This is deliberately a pure recomputation with no caching: the
// window changes on every month navigation and a full pass over a
// user's bookmarks is cheap at the expected scale.
func (p Policy) Aggregate(bookmarks []domain.Bookmark, rangeStart, rangeEnd time.Time) map[DateKey][]domain.Bookmark {
	start := p.DayStart(rangeStart)
	end := p.DayStart(rangeEnd)

	buckets := make(map[DateKey][]domain.Bookmark)
	for _, b := range bookmarks {
		if b.NextReviewAt == nil {
			continue
		}
		due := p.DayStart(*b.NextReviewAt)
		if due.Before(start) || due.After(end) {
			continue
		}
		key := p.DateKeyOf(due)
		buckets[key] = append(buckets[key], b)
	}
	return buckets
}
