package deps

import (
	"context"
	"time"

	"github.com/stashspark/stashspark/internal/logger"
	"github.com/stashspark/stashspark/internal/metadata"
	"github.com/stashspark/stashspark/internal/revisit"
	"github.com/stashspark/stashspark/internal/storage"
)

// SessionStore issues and resolves browser sessions.
type SessionStore interface {
	Create(ctx context.Context, userID int64) (string, error)
	Resolve(ctx context.Context, id string) (int64, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// SummaryQueue accepts background summary jobs.
type SummaryQueue interface {
	Enqueue(ownerID, bookmarkID int64) bool
}

// Deps carries everything handlers need. Built once in app.New and
// passed by value to every route registrar.
type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // injectable clock, defaults to time.Now

	Store     storage.Storage
	Sessions  SessionStore
	Metadata  *metadata.Fetcher
	Summaries SummaryQueue // nil disables background summaries

	Policy              revisit.Policy
	DefaultIntervalDays int

	SessionTTL      time.Duration
	CORSOrigin      string
	LoginRateBurst  int
	LoginRatePerMin int
	TrustProxy      bool
}

// Now returns the injected clock, falling back to time.Now.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
