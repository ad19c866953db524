package task

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/events"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/redact"
)

// Item outcomes reported in ItemSettled events
const (
	outcomeUploaded = "uploaded"
	outcomeDropped  = "dropped"
)

// launchPipeline starts the compress → upload pipeline of one item. Runs on
// the loop; the pipeline itself runs on a pool goroutine.
func (s *Scheduler) launchPipeline(t *submissionTask, itemID uuid.UUID, raw media.Raw) {
	ctx := t.ctx
	taskID := t.id
	useCase := t.useCase

	s.pool.Go(func() {
		s.runPipeline(ctx, taskID, itemID, useCase, raw)
	})
}

// runPipeline drives one item through compression and upload. It never
// touches the item directly: each stage result is handed back to the loop,
// which applies the transition. Results arrive in the order they were posted.
func (s *Scheduler) runPipeline(
	ctx context.Context,
	taskID uuid.UUID,
	itemID uuid.UUID,
	useCase media.UseCase,
	raw media.Raw,
) {
	logger := s.logger.With(
		"task_id", taskID,
		"item_id", itemID,
		"media_kind", raw.Kind,
	)

	logger.Debug("compressing media item", "size_bytes", len(raw.Data))
	encoded, err := s.compress(ctx, raw)
	if err != nil {
		logger.Warn("media compression failed, dropping item", "error", redact.Error(err))
		s.post(func() { s.itemFailed(taskID, itemID, err) })
		return
	}
	encoded.ItemID = itemID
	s.post(func() { s.itemCompressed(taskID, itemID, encoded) })

	logger.Debug("uploading media item", "size_bytes", len(encoded.Data))
	ref, err := s.upload(ctx, encoded, useCase)
	if err != nil {
		logger.Warn("media upload failed, dropping item", "error", redact.Error(err))
		s.post(func() { s.itemFailed(taskID, itemID, err) })
		return
	}
	s.post(func() { s.itemUploaded(taskID, itemID, ref) })
}

func (s *Scheduler) compress(ctx context.Context, raw media.Raw) (media.Encoded, error) {
	encoded, err := runStage(ctx, s.pool, s.config.CompressTimeout, func(ctx context.Context) (media.Encoded, error) {
		return s.compressor.Compress(ctx, raw)
	})
	if err != nil {
		return media.Encoded{}, fmt.Errorf("%w: %w", media.ErrCompressionFailed, err)
	}
	return encoded, nil
}

func (s *Scheduler) upload(ctx context.Context, encoded media.Encoded, useCase media.UseCase) (media.RemoteRef, error) {
	ref, err := runStage(ctx, s.pool, s.config.UploadTimeout, func(ctx context.Context) (media.RemoteRef, error) {
		return s.uploader.Upload(ctx, encoded, useCase)
	})
	if err != nil {
		return media.RemoteRef{}, fmt.Errorf("%w: %w", media.ErrUploadFailed, err)
	}
	return ref, nil
}

// runStage runs fn in a pool slot under timeout. The item settles as soon as
// the deadline passes; value is only read when fn returned in time.
func runStage[T any](
	ctx context.Context,
	pool *WorkerPool,
	timeout time.Duration,
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var value T
	err := pool.Do(ctx, timeout, func(ctx context.Context) error {
		v, err := fn(ctx)
		value = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// lookupItem finds an item that is still listed on a queued task. Results for
// tasks that were cancelled or stopped are discarded here.
func (s *Scheduler) lookupItem(taskID, itemID uuid.UUID) (*submissionTask, *media.Item, bool) {
	t := s.queue.Get(taskID)
	if t == nil {
		return nil, nil, false
	}
	item, ok := t.activeItem(itemID)
	if !ok {
		return nil, nil, false
	}
	return t, item, true
}

// itemCompressed applies Uncompressed → Compressed → Uploading on the loop.
func (s *Scheduler) itemCompressed(taskID, itemID uuid.UUID, encoded media.Encoded) {
	_, item, ok := s.lookupItem(taskID, itemID)
	if !ok {
		return
	}

	if err := item.MarkCompressed(encoded); err != nil {
		s.logger.Error("unexpected item transition", "task_id", taskID, "error", err)
		return
	}
	if err := item.MarkUploading(); err != nil {
		s.logger.Error("unexpected item transition", "task_id", taskID, "error", err)
	}
}

// itemUploaded applies Uploading → Uploaded and re-evaluates completion.
func (s *Scheduler) itemUploaded(taskID, itemID uuid.UUID, ref media.RemoteRef) {
	t, item, ok := s.lookupItem(taskID, itemID)
	if !ok {
		return
	}

	if err := item.MarkUploaded(ref); err != nil {
		s.logger.Error("unexpected item transition", "task_id", taskID, "error", err)
		return
	}

	s.publish(events.ItemSettled, taskID, events.ItemSettledPayload{
		ItemID:  itemID,
		Outcome: outcomeUploaded,
	})
	s.completeIfReady(t)
}

// itemFailed drops the item from its task and re-evaluates completion.
func (s *Scheduler) itemFailed(taskID, itemID uuid.UUID, cause error) {
	t, item, ok := s.lookupItem(taskID, itemID)
	if !ok {
		return
	}

	if err := item.Drop(cause); err != nil {
		s.logger.Error("unexpected item transition", "task_id", taskID, "error", err)
		return
	}
	t.removeFromOrder(itemID)

	s.publish(events.ItemSettled, taskID, events.ItemSettledPayload{
		ItemID:  itemID,
		Outcome: outcomeDropped,
		Error:   redact.Error(cause),
	})
	s.completeIfReady(t)
}
