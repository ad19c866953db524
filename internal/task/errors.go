package task

import "errors"

// Errors returned by the Scheduler
var (
	// ErrFinalizeFailed wraps an error returned (or a panic raised) by a
	// submission's finalize function. It is delivered to OnError exactly once.
	ErrFinalizeFailed = errors.New("finalize failed")

	// ErrTaskCancelled is delivered to OnError when a submission is cancelled
	// before its finalize started.
	ErrTaskCancelled = errors.New("submission cancelled")

	// ErrTaskFinalizing is returned by Cancel once finalize is running.
	ErrTaskFinalizing = errors.New("submission is already finalizing")

	// ErrTaskNotFound is returned for ids that are not (or no longer) queued.
	ErrTaskNotFound = errors.New("submission not found")

	// ErrSchedulerStopped is returned by calls made after Stop, and delivered
	// to OnError for submissions still queued when the scheduler stops.
	ErrSchedulerStopped = errors.New("scheduler is stopped")

	// ErrSchedulerNotStarted is returned by calls made before Start.
	ErrSchedulerNotStarted = errors.New("scheduler is not started")

	// ErrNilFinalize is returned by Submit when the submission has no finalize function.
	ErrNilFinalize = errors.New("finalize function cannot be nil")

	// ErrInvalidUseCase is returned by Submit for an unknown use case.
	ErrInvalidUseCase = errors.New("invalid use case")

	// ErrNilCompressor and ErrNilUploader are returned by NewScheduler.
	ErrNilCompressor = errors.New("compressor cannot be nil")
	ErrNilUploader   = errors.New("uploader cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")
)
