package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/events"
	"github.com/phrazzld/postmedia/internal/media"
	"github.com/phrazzld/postmedia/internal/redact"
)

// SchedulerConfig holds configuration for the scheduler
type SchedulerConfig struct {
	// CompressTimeout bounds a single compression call
	CompressTimeout time.Duration

	// UploadTimeout bounds a single upload call
	UploadTimeout time.Duration

	// FinalizeTimeout bounds the caller's finalize function
	FinalizeTimeout time.Duration

	// MaxConcurrentStages bounds concurrent compressions and uploads
	MaxConcurrentStages int
}

// DefaultSchedulerConfig returns a SchedulerConfig with reasonable defaults
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CompressTimeout:     2 * time.Minute,
		UploadTimeout:       5 * time.Minute,
		FinalizeTimeout:     1 * time.Minute,
		MaxConcurrentStages: 4,
	}
}

// Option customizes a Scheduler
type Option func(*Scheduler)

// WithEventEmitter publishes lifecycle events to emitter.
func WithEventEmitter(emitter events.EventEmitter) Option {
	return func(s *Scheduler) {
		s.emitter = emitter
	}
}

// WithClock overrides the time source used for progress estimates.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler processes submissions one at a time in FIFO order.
//
// All queue state is owned by a single loop goroutine. Public methods and
// pipeline goroutines hand closures to the loop over a channel, so queue
// mutations are serialized without locks and two submissions can never be
// Processing at once.
type Scheduler struct {
	compressor media.Compressor
	uploader   media.Uploader
	emitter    events.EventEmitter
	dispatch   *events.AsyncEmitter
	pool       *WorkerPool
	config     SchedulerConfig
	logger     *slog.Logger
	now        func() time.Time

	ops  chan func()
	quit chan struct{}
	done chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool

	// Owned by the loop goroutine
	queue    *taskQueue
	stopping bool
}

// NewScheduler creates a Scheduler. Call Start before submitting.
func NewScheduler(
	compressor media.Compressor,
	uploader media.Uploader,
	config SchedulerConfig,
	logger *slog.Logger,
	opts ...Option,
) (*Scheduler, error) {
	if compressor == nil {
		return nil, ErrNilCompressor
	}
	if uploader == nil {
		return nil, ErrNilUploader
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	// Apply defaults for unset durations
	defaults := DefaultSchedulerConfig()
	if config.CompressTimeout <= 0 {
		config.CompressTimeout = defaults.CompressTimeout
	}
	if config.UploadTimeout <= 0 {
		config.UploadTimeout = defaults.UploadTimeout
	}
	if config.FinalizeTimeout <= 0 {
		config.FinalizeTimeout = defaults.FinalizeTimeout
	}

	logger = logger.With("component", "scheduler")
	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		compressor: compressor,
		uploader:   uploader,
		pool:       NewWorkerPool(WorkerPoolConfig{MaxConcurrentStages: config.MaxConcurrentStages}, logger),
		config:     config,
		logger:     logger,
		now:        time.Now,
		ops:        make(chan func(), 64),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
		baseCtx:    ctx,
		baseCancel: cancel,
		queue:      newTaskQueue(logger),
	}

	for _, opt := range opts {
		opt(s)
	}
	// Handlers run off the loop so they may block or query the scheduler
	if s.emitter != nil {
		s.dispatch = events.NewAsyncEmitter(s.emitter, logger)
	}

	return s, nil
}

// Start launches the scheduler loop. Calling Start more than once has no effect.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		if s.dispatch != nil {
			s.pool.Go(s.dispatch.Run)
		}
		go s.run()
		s.logger.Info("scheduler started",
			"max_concurrent_stages", s.pool.Capacity(),
			"compress_timeout", s.config.CompressTimeout,
			"upload_timeout", s.config.UploadTimeout,
			"finalize_timeout", s.config.FinalizeTimeout)
	})
}

// Stop cancels all queued and in-flight work and waits for the loop to exit
// and for every stage function to return, including ones past their deadline.
// Submissions that have not started finalizing receive ErrSchedulerStopped on
// their OnError. A finalize already running is allowed to finish within its
// own timeout. Returns ctx.Err() if ctx expires first.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() {
		close(s.quit)
	})

	if !s.started.Load() {
		return nil
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduler loop: %w", ctx.Err())
	}
	if s.dispatch != nil {
		s.dispatch.Close()
	}

	waited := make(chan struct{})
	go func() {
		s.pool.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for pipeline goroutines: %w", ctx.Err())
	}
}

// Submit queues a submission and returns its id. If nothing is processing,
// the submission starts immediately.
func (s *Scheduler) Submit(ctx context.Context, sub Submission) (uuid.UUID, error) {
	if sub.Finalize == nil {
		return uuid.Nil, ErrNilFinalize
	}
	if !sub.UseCase.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidUseCase, sub.UseCase)
	}

	t := newSubmissionTask(sub)
	if t.dropped > 0 {
		s.logger.Warn("submission media rejected before processing",
			"task_id", t.id,
			"dropped_count", t.dropped,
			"item_count", len(t.order))
	}
	if t.onError == nil {
		taskID := t.id
		t.onError = func(err error) {
			s.logger.Warn("submission failed without error callback",
				"task_id", taskID,
				"error", redact.Error(err))
		}
	}

	var submitErr error
	err := s.call(ctx, func() {
		if s.stopping {
			submitErr = ErrSchedulerStopped
			return
		}
		s.queue.Enqueue(t)
		s.emit(events.TaskSubmitted, t, "")
		s.startNext()
	})
	if err != nil {
		return uuid.Nil, err
	}
	if submitErr != nil {
		return uuid.Nil, submitErr
	}

	return t.id, nil
}

// Cancel abandons a queued submission. Its OnError receives ErrTaskCancelled,
// its finalize never runs and in-flight stages are cancelled. Returns
// ErrTaskFinalizing if finalize has already started.
func (s *Scheduler) Cancel(ctx context.Context, taskID uuid.UUID) error {
	var cancelErr error
	err := s.call(ctx, func() {
		t := s.queue.Get(taskID)
		if t == nil {
			cancelErr = ErrTaskNotFound
			return
		}
		if t.finalizing {
			cancelErr = ErrTaskFinalizing
			return
		}
		s.logger.Info("cancelling submission", "task_id", taskID, "status", t.status)
		s.settle(t, ErrTaskCancelled, events.TaskCancelled)
	})
	if err != nil {
		return err
	}
	return cancelErr
}

// Progress returns the UI-facing progress estimate of a queued submission.
func (s *Scheduler) Progress(ctx context.Context, taskID uuid.UUID) (float64, error) {
	snap, err := s.Status(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return snap.Progress, nil
}

// Status returns a snapshot of a queued submission.
func (s *Scheduler) Status(ctx context.Context, taskID uuid.UUID) (Snapshot, error) {
	var snap Snapshot
	var statusErr error
	err := s.call(ctx, func() {
		t := s.queue.Get(taskID)
		if t == nil {
			statusErr = ErrTaskNotFound
			return
		}
		snap = t.snapshot(s.now())
	})
	if err != nil {
		return Snapshot{}, err
	}
	if statusErr != nil {
		return Snapshot{}, statusErr
	}
	return snap, nil
}

// Snapshots returns every queued submission in FIFO order.
func (s *Scheduler) Snapshots(ctx context.Context) ([]Snapshot, error) {
	var snaps []Snapshot
	err := s.call(ctx, func() {
		now := s.now()
		for _, t := range s.queue.All() {
			snaps = append(snaps, t.snapshot(now))
		}
	})
	return snaps, err
}

// IsProcessing reports whether a submission is currently being processed.
func (s *Scheduler) IsProcessing() bool {
	var processing bool
	if err := s.call(context.Background(), func() {
		processing = s.queue.Processing() != nil
	}); err != nil {
		return false
	}
	return processing
}

// Pending returns how many submissions are waiting to start.
func (s *Scheduler) Pending() int {
	var pending int
	if err := s.call(context.Background(), func() {
		pending = s.queue.PendingCount()
	}); err != nil {
		return 0
	}
	return pending
}

// run is the scheduler loop. It is the only goroutine touching s.queue.
func (s *Scheduler) run() {
	defer close(s.done)

	quit := s.quit
	for {
		select {
		case op := <-s.ops:
			op()
		case <-quit:
			quit = nil
			s.beginStop()
		}

		if s.stopping && s.queue.Len() == 0 {
			return
		}
	}
}

// call runs op on the loop and waits for it to finish.
func (s *Scheduler) call(ctx context.Context, op func()) error {
	if !s.started.Load() {
		return ErrSchedulerNotStarted
	}

	finished := make(chan struct{})
	wrapped := func() {
		defer close(finished)
		op()
	}

	select {
	case s.ops <- wrapped:
	case <-s.done:
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-s.done:
		// The loop may have run op right before exiting
		select {
		case <-finished:
			return nil
		default:
			return ErrSchedulerStopped
		}
	}
}

// post hands op to the loop without waiting. Used by pipeline goroutines;
// dropped silently once the loop has exited.
func (s *Scheduler) post(op func()) {
	select {
	case s.ops <- op:
	case <-s.done:
	}
}

// beginStop runs on the loop when Stop is called.
func (s *Scheduler) beginStop() {
	s.stopping = true
	s.baseCancel()

	for _, t := range s.queue.All() {
		if t.finalizing {
			continue
		}
		s.settle(t, ErrSchedulerStopped, events.TaskFailed)
	}

	s.logger.Info("scheduler stopping", "finalizing", s.queue.Len())
}

// startNext moves the earliest pending submission to Processing and fans
// out its media pipelines.
func (s *Scheduler) startNext() {
	if s.stopping {
		return
	}

	t := s.queue.StartNext()
	if t == nil {
		return
	}

	t.startedAt = s.now()
	t.ctx, t.cancel = context.WithCancel(s.baseCtx)

	s.logger.Info("submission processing started",
		"task_id", t.id,
		"use_case", t.useCase,
		"item_count", len(t.order))
	s.emit(events.TaskStarted, t, "")

	if len(t.order) == 0 {
		s.completeIfReady(t)
		return
	}

	for _, id := range t.order {
		item := t.items[id]
		switch st := item.State().(type) {
		case media.Uncompressed:
			s.launchPipeline(t, item.ID, st.Raw)
		case media.Compressed, media.Uploading, media.Uploaded, media.Dropped:
			// Already past compression; nothing to launch
		}
	}
}

// settle removes a submission exactly once, reports cause to its OnError
// (when non-nil) and advances to the next pending submission.
func (s *Scheduler) settle(t *submissionTask, cause error, eventType events.Type) {
	if !s.queue.Remove(t.id) {
		return
	}
	if t.cancel != nil {
		t.cancel()
	}

	errMsg := ""
	if cause != nil {
		errMsg = redact.Error(cause)
		s.logger.Warn("submission ended without finalize",
			"task_id", t.id,
			"error", errMsg)
		s.notify(t.onError, cause)
	} else {
		s.logger.Info("submission finalized",
			"task_id", t.id,
			"uploaded_count", t.uploadedCount(),
			"dropped_count", t.dropped)
	}

	s.emit(eventType, t, errMsg)
	s.startNext()
}

// notify delivers err to a caller callback off the loop.
func (s *Scheduler) notify(onError ErrorFunc, err error) {
	s.pool.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("error callback panicked", "panic", r)
			}
		}()
		onError(err)
	})
}

// emit publishes a task-level lifecycle event.
func (s *Scheduler) emit(eventType events.Type, t *submissionTask, errMsg string) {
	s.publish(eventType, t.id, events.TaskPayload{
		Title:         t.title,
		UseCase:       string(t.useCase),
		ItemCount:     len(t.order),
		UploadedCount: t.uploadedCount(),
		Error:         errMsg,
	})
}

func (s *Scheduler) publish(eventType events.Type, taskID uuid.UUID, payload interface{}) {
	if s.dispatch == nil {
		return
	}

	event, err := events.NewLifecycleEvent(eventType, taskID, payload)
	if err != nil {
		s.logger.Error("failed to build lifecycle event", "event_type", eventType, "error", err)
		return
	}
	_ = s.dispatch.EmitEvent(context.Background(), event)
}
