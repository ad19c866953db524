package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/events"
	"github.com/phrazzld/postmedia/internal/media"
)

// completeIfReady starts finalize when every item still listed on t has been
// uploaded. Dropped items do not count. It runs only on the loop, and the
// finalizing flag makes any call after the first a no-op, so finalize starts
// at most once per task however many item completions race to call it.
func (s *Scheduler) completeIfReady(t *submissionTask) bool {
	if t.finalizing || t.status != TaskStatusProcessing {
		return false
	}

	refs := make([]media.RemoteRef, 0, len(t.order))
	for _, id := range t.order {
		switch st := t.items[id].State().(type) {
		case media.Uploaded:
			refs = append(refs, st.Ref)
		case media.Dropped:
			// Excluded from consideration
		case media.Uncompressed, media.Compressed, media.Uploading:
			return false
		default:
			return false
		}
	}

	if !t.hadMedia {
		refs = nil
	}

	t.finalizing = true
	s.logger.Debug("all media settled, finalizing submission",
		"task_id", t.id,
		"uploaded_count", len(refs),
		"dropped_count", t.dropped)
	s.startFinalize(t, refs)
	return true
}

// startFinalize runs the caller's finalize off the loop. Finalize is bounded
// by its own timeout and is not interrupted by Stop.
func (s *Scheduler) startFinalize(t *submissionTask, refs []media.RemoteRef) {
	ctx := context.WithoutCancel(t.ctx)
	finalize := t.finalize
	taskID := t.id

	s.pool.Go(func() {
		err := s.pool.Run(ctx, s.config.FinalizeTimeout, func(ctx context.Context) error {
			return finalize(ctx, refs)
		})
		s.post(func() { s.finalizeDone(taskID, err) })
	})
}

// finalizeDone settles a task once its finalize returned.
func (s *Scheduler) finalizeDone(taskID uuid.UUID, err error) {
	t := s.queue.Get(taskID)
	if t == nil {
		return
	}

	if err != nil {
		s.settle(t, fmt.Errorf("%w: %w", ErrFinalizeFailed, err), events.TaskFailed)
		return
	}
	s.settle(t, nil, events.TaskFinalized)
}
