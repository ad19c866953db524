package events

import (
	"context"
	"log/slog"
)

// LoggingHandler writes lifecycle events to a structured logger. Task-level
// outcomes log at info (warn for failures), item settlements at debug.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a LoggingHandler writing to logger.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	return &LoggingHandler{
		logger: logger.With("component", "lifecycle_events"),
	}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *LifecycleEvent) error {
	attrs := []any{
		"event_id", event.ID,
		"event_type", event.Type,
		"task_id", event.TaskID,
	}

	switch event.Type {
	case ItemSettled:
		var payload ItemSettledPayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return err
		}
		attrs = append(attrs, "item_id", payload.ItemID, "outcome", payload.Outcome)
		if payload.Error != "" {
			attrs = append(attrs, "error", payload.Error)
		}
		h.logger.DebugContext(ctx, "media item settled", attrs...)
		return nil

	case TaskFailed, TaskCancelled:
		var payload TaskPayload
		if len(event.Payload) > 0 {
			if err := event.UnmarshalPayload(&payload); err != nil {
				return err
			}
		}
		attrs = append(attrs, "error", payload.Error)
		h.logger.WarnContext(ctx, "submission ended without finalize", attrs...)
		return nil

	default:
		var payload TaskPayload
		if len(event.Payload) > 0 {
			if err := event.UnmarshalPayload(&payload); err != nil {
				return err
			}
		}
		attrs = append(attrs,
			"use_case", payload.UseCase,
			"item_count", payload.ItemCount,
			"uploaded_count", payload.UploadedCount)
		h.logger.InfoContext(ctx, "submission lifecycle", attrs...)
		return nil
	}
}

// Ensure LoggingHandler implements EventHandler
var _ EventHandler = (*LoggingHandler)(nil)
