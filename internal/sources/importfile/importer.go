package importfile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/logger"
	"github.com/stashspark/stashspark/internal/metadata"
	"github.com/stashspark/stashspark/internal/revisit"
	"github.com/stashspark/stashspark/internal/storage"
)

// Importer writes the entries of an import file into the store.
type Importer struct {
	store           storage.Storage
	policy          revisit.Policy
	defaultInterval int
	log             logger.Logger
}

// NewImporter creates an importer. defaultInterval applies to entries
// that do not set review_interval_days themselves.
func NewImporter(store storage.Storage, policy revisit.Policy, defaultInterval int, log logger.Logger) *Importer {
	return &Importer{store: store, policy: policy, defaultInterval: defaultInterval, log: log}
}

// Stats summarizes one import run.
type Stats struct {
	Imported int
	Skipped  int
}

// Run imports the file at path into the account identified by
// ownerEmail. The account must already exist. Invalid entries and
// URLs the owner already has are skipped, not fatal.
func (i *Importer) Run(ctx context.Context, path, ownerEmail string) (Stats, error) {
	f, err := Load(path)
	if err != nil {
		return Stats{}, err
	}

	owner, err := i.store.GetUserByEmail(ctx, ownerEmail)
	if err != nil {
		return Stats{}, fmt.Errorf("resolve import owner %s: %w", ownerEmail, err)
	}

	existing, err := i.store.ListBookmarks(ctx, owner.ID, "")
	if err != nil {
		return Stats{}, fmt.Errorf("list existing bookmarks: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, b := range existing {
		seen[b.URL] = struct{}{}
	}

	tagIDs, err := i.tagIndex(ctx, owner.ID)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, entry := range f.Bookmarks {
		if !metadata.ValidURL(entry.URL) {
			i.log.Warn("import entry skipped, invalid url", logger.String("url", entry.URL))
			stats.Skipped++
			continue
		}
		if _, ok := seen[entry.URL]; ok {
			stats.Skipped++
			continue
		}

		b, err := i.createBookmark(ctx, owner.ID, entry)
		if err != nil {
			return stats, err
		}
		seen[entry.URL] = struct{}{}

		for _, name := range entry.Tags {
			tagID, err := i.ensureTag(ctx, owner.ID, name, tagIDs)
			if err != nil {
				return stats, err
			}
			if err := i.store.AddTag(ctx, owner.ID, b.ID, tagID); err != nil && !errors.Is(err, domain.ErrConflict) {
				return stats, fmt.Errorf("tag bookmark %s: %w", entry.URL, err)
			}
		}
		stats.Imported++
	}

	i.log.Info("bookmark import finished",
		logger.String("file", path),
		logger.Int("imported", stats.Imported),
		logger.Int("skipped", stats.Skipped))
	return stats, nil
}

func (i *Importer) createBookmark(ctx context.Context, ownerID int64, entry Entry) (*domain.Bookmark, error) {
	interval := i.defaultInterval
	if entry.ReviewIntervalDays != nil {
		interval = *entry.ReviewIntervalDays
	}

	schedule, err := i.policy.Initialize(time.Now(), interval)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", entry.URL, err)
	}

	title := entry.Title
	if title == "" {
		title = metadata.FallbackTitle(entry.URL)
	}

	b := &domain.Bookmark{
		OwnerID:            ownerID,
		URL:                entry.URL,
		Title:              title,
		Domain:             metadata.Domain(entry.URL),
		Notes:              entry.Notes,
		ReviewIntervalDays: schedule.IntervalDays,
		NextReviewAt:       schedule.NextReviewAt,
	}
	if err := i.store.CreateBookmark(ctx, b); err != nil {
		return nil, fmt.Errorf("create bookmark %s: %w", entry.URL, err)
	}
	return b, nil
}

// ensureTag returns the id for name, creating the tag on first use.
// ids caches name to id across the whole run.
func (i *Importer) ensureTag(ctx context.Context, ownerID int64, name string, ids map[string]int64) (int64, error) {
	if id, ok := ids[name]; ok {
		return id, nil
	}
	tag, err := i.store.CreateTag(ctx, ownerID, name)
	if err != nil {
		return 0, fmt.Errorf("create tag %q: %w", name, err)
	}
	ids[tag.Name] = tag.ID
	return tag.ID, nil
}

func (i *Importer) tagIndex(ctx context.Context, ownerID int64) (map[string]int64, error) {
	tags, err := i.store.ListTags(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	ids := make(map[string]int64, len(tags))
	for _, t := range tags {
		ids[t.Name] = t.ID
	}
	return ids, nil
}
