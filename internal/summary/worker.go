package summary

import (
	"context"

	"github.com/stashspark/stashspark/internal/domain"
	"github.com/stashspark/stashspark/internal/logger"
)

// Store is the slice of bookmark storage the worker needs.
type Store interface {
	GetBookmark(ctx context.Context, ownerID, id int64) (*domain.Bookmark, error)
	UpdateBookmark(ctx context.Context, ownerID, id int64, patch domain.BookmarkPatch) (*domain.Bookmark, error)
}

// Job identifies one bookmark whose summary should be (re)generated.
type Job struct {
	OwnerID    int64
	BookmarkID int64
}

// Worker drains a bounded queue of summary jobs in a single
// goroutine. Enqueue never blocks the caller: when the queue is full
// the job is dropped and logged.
type Worker struct {
	store  Store
	gen    Summarizer
	log    logger.Logger
	jobs   chan Job
	stopCh chan struct{}
	done   chan struct{}
}

// NewWorker creates a worker with the given queue capacity.
func NewWorker(store Store, gen Summarizer, log logger.Logger, queueSize int) *Worker {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Worker{
		store:  store,
		gen:    gen,
		log:    log,
		jobs:   make(chan Job, queueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the drain loop.
func (w *Worker) Start() {
	go w.run()
	w.log.Info("summary worker started", logger.Int("queue_size", cap(w.jobs)))
}

// Stop shuts the worker down and waits for the in-flight job, if any,
// to finish. Queued jobs are discarded.
func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.done
	w.log.Info("summary worker stopped")
}

// Enqueue schedules a summary job. Returns false when the queue is
// full and the job was dropped.
func (w *Worker) Enqueue(ownerID, bookmarkID int64) bool {
	select {
	case w.jobs <- Job{OwnerID: ownerID, BookmarkID: bookmarkID}:
		return true
	default:
		w.log.Warn("summary queue full, dropping job",
			logger.Int64("owner_id", ownerID),
			logger.Int64("bookmark_id", bookmarkID))
		return false
	}
}

func (w *Worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stopCh:
			return
		case job := <-w.jobs:
			w.Process(context.Background(), job)
		}
	}
}

// Process runs one job synchronously. The bookmark may have been
// deleted since the job was queued; that is not an error worth more
// than a debug line.
func (w *Worker) Process(ctx context.Context, job Job) {
	b, err := w.store.GetBookmark(ctx, job.OwnerID, job.BookmarkID)
	if err != nil {
		w.log.Debug("summary job skipped, bookmark gone",
			logger.Int64("bookmark_id", job.BookmarkID),
			logger.Error(err))
		return
	}

	text, err := w.gen.Summarize(ctx, *b)
	if err != nil {
		w.log.Warn("summary generation failed",
			logger.Int64("bookmark_id", job.BookmarkID),
			logger.Error(err))
		return
	}

	if _, err := w.store.UpdateBookmark(ctx, job.OwnerID, job.BookmarkID, domain.BookmarkPatch{Summary: &text}); err != nil {
		w.log.Warn("summary save failed",
			logger.Int64("bookmark_id", job.BookmarkID),
			logger.Error(err))
		return
	}
	w.log.Info("summary saved", logger.Int64("bookmark_id", job.BookmarkID))
}
