package media

import "errors"

// Errors reported by media items and the stage adapters
var (
	// ErrCompressionFailed wraps any failure of the compression stage.
	// The pipeline drops the item; it is never a task-level error.
	ErrCompressionFailed = errors.New("media compression failed")

	// ErrUploadFailed wraps any failure of the upload stage.
	ErrUploadFailed = errors.New("media upload failed")

	// ErrUnsupportedKind is returned for payloads that are neither image nor video.
	ErrUnsupportedKind = errors.New("unsupported media kind")

	// ErrEmptyPayload is returned when a raw payload carries no bytes.
	ErrEmptyPayload = errors.New("media payload is empty")

	// ErrInvalidTransition is returned when an item is asked to move to a
	// state that does not follow its current one.
	ErrInvalidTransition = errors.New("invalid media item transition")
)
