package revisit

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stashspark/stashspark/internal/domain"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse time %q: %v", value, err)
	}
	return ts.UTC()
}

func timePtr(ts time.Time) *time.Time { return &ts }

func TestInitialize(t *testing.T) {
	p := NewPolicy(time.UTC)

	tests := []struct {
		name      string
		createdAt string
		interval  int
		wantNext  *time.Time
		wantErr   error
	}{
		{
			name:      "default interval truncates to day start",
			createdAt: "2024-01-01T10:00:00Z",
			interval:  3,
			wantNext:  timePtr(time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:      "creation at midnight",
			createdAt: "2024-03-15T00:00:00Z",
			interval:  7,
			wantNext:  timePtr(time.Date(2024, 3, 22, 0, 0, 0, 0, time.UTC)),
		},
		{
			name:      "zero interval leaves bookmark unscheduled",
			createdAt: "2024-01-01T10:00:00Z",
			interval:  0,
			wantNext:  nil,
		},
		{
			name:      "negative interval rejected",
			createdAt: "2024-01-01T10:00:00Z",
			interval:  -1,
			wantErr:   domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Initialize(mustTime(t, tt.createdAt), tt.interval)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("initialize: %v", err)
			}
			want := Schedule{IntervalDays: tt.interval, NextReviewAt: tt.wantNext}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("schedule mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetInterval(t *testing.T) {
	p := NewPolicy(time.UTC)
	existing := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	explicit := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		current  Schedule
		interval int
		explicit *time.Time
		want     Schedule
		wantErr  error
	}{
		{
			name:     "interval change alone keeps due date",
			current:  Schedule{IntervalDays: 3, NextReviewAt: &existing},
			interval: 10,
			want:     Schedule{IntervalDays: 10, NextReviewAt: &existing},
		},
		{
			name:     "explicit due date wins",
			current:  Schedule{IntervalDays: 3, NextReviewAt: &existing},
			interval: 3,
			explicit: &explicit,
			want:     Schedule{IntervalDays: 3, NextReviewAt: &explicit},
		},
		{
			name:     "zero interval clears due date",
			current:  Schedule{IntervalDays: 3, NextReviewAt: &existing},
			interval: 0,
			want:     Schedule{IntervalDays: 0},
		},
		{
			name:     "explicit due date survives zero interval",
			current:  Schedule{IntervalDays: 3, NextReviewAt: &existing},
			interval: 0,
			explicit: &explicit,
			want:     Schedule{IntervalDays: 0, NextReviewAt: &explicit},
		},
		{
			name:     "negative interval rejected",
			current:  Schedule{IntervalDays: 3},
			interval: -5,
			wantErr:  domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.SetInterval(tt.current, tt.interval, tt.explicit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("set interval: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("schedule mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfirmRevisit(t *testing.T) {
	p := NewPolicy(time.UTC)

	t.Run("advances by interval from now", func(t *testing.T) {
		now := mustTime(t, "2024-03-10T15:30:00Z")
		got := p.ConfirmRevisit(Schedule{IntervalDays: 7}, now)

		if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(now) {
			t.Errorf("last reviewed = %v, want %v", got.LastReviewedAt, now)
		}
		wantNext := time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)
		if got.NextReviewAt == nil || !got.NextReviewAt.Equal(wantNext) {
			t.Errorf("next review = %v, want %v", got.NextReviewAt, wantNext)
		}
		if got.IntervalDays != 7 {
			t.Errorf("interval = %d, want 7", got.IntervalDays)
		}
	})

	t.Run("zero interval falls back to one day", func(t *testing.T) {
		now := mustTime(t, "2024-02-10T09:00:00Z")
		got := p.ConfirmRevisit(Schedule{IntervalDays: 0}, now)

		if got.LastReviewedAt == nil || !got.LastReviewedAt.Equal(now) {
			t.Errorf("last reviewed = %v, want %v", got.LastReviewedAt, now)
		}
		wantNext := time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)
		if got.NextReviewAt == nil || !got.NextReviewAt.Equal(wantNext) {
			t.Errorf("next review = %v, want %v", got.NextReviewAt, wantNext)
		}
		if got.IntervalDays != 0 {
			t.Errorf("interval = %d, want 0 (fallback must not persist)", got.IntervalDays)
		}
	})
}

func TestIsDue(t *testing.T) {
	asOf := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		next *time.Time
		want bool
	}{
		{name: "nil never due", next: nil, want: false},
		{name: "past date due", next: timePtr(asOf.AddDate(0, 0, -1)), want: true},
		{name: "exact instant due", next: timePtr(asOf), want: true},
		{name: "future date not due", next: timePtr(asOf.AddDate(0, 0, 1)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDue(tt.next, asOf); got != tt.want {
				t.Errorf("IsDue(%v, %v) = %v, want %v", tt.next, asOf, got, tt.want)
			}
		})
	}
}

func TestDayStartUsesPolicyZone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	p := NewPolicy(tokyo)

	// 23:30 UTC on Jan 1 is already Jan 2 in Tokyo.
	instant := time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC)
	got := p.DayStart(instant)
	want := time.Date(2024, 1, 2, 0, 0, 0, 0, tokyo)
	if !got.Equal(want) {
		t.Errorf("DayStart = %v, want %v", got, want)
	}
}
