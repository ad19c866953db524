package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Type identifies what happened to a submission
type Type string

// Lifecycle event types
const (
	TaskSubmitted Type = "task_submitted"
	TaskStarted   Type = "task_started"
	ItemSettled   Type = "item_settled"
	TaskFinalized Type = "task_finalized"
	TaskFailed    Type = "task_failed"
	TaskCancelled Type = "task_cancelled"
)

// LifecycleEvent records a single transition of a submission task or one of
// its media items.
type LifecycleEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates what happened
	Type Type `json:"type"`

	// TaskID is the submission the event belongs to
	TaskID uuid.UUID `json:"task_id"`

	// Payload contains event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload,omitempty"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// ItemSettledPayload is the payload of ItemSettled events.
type ItemSettledPayload struct {
	ItemID  uuid.UUID `json:"item_id"`
	Outcome string    `json:"outcome"`
	Error   string    `json:"error,omitempty"`
}

// TaskPayload is the payload of task-level events.
type TaskPayload struct {
	Title         string `json:"title,omitempty"`
	UseCase       string `json:"use_case,omitempty"`
	ItemCount     int    `json:"item_count"`
	UploadedCount int    `json:"uploaded_count"`
	Error         string `json:"error,omitempty"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *LifecycleEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewLifecycleEvent creates a new LifecycleEvent for the given task.
// A nil payload produces an event without payload.
func NewLifecycleEvent(eventType Type, taskID uuid.UUID, payload interface{}) (*LifecycleEvent, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = data
	}

	return &LifecycleEvent{
		ID:        uuid.New(),
		Type:      eventType,
		TaskID:    taskID,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
// Handlers run on the publisher's goroutine and must return quickly.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *LifecycleEvent) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *LifecycleEvent) error
}

// HandlerFunc adapts an ordinary function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *LifecycleEvent) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *LifecycleEvent) error {
	return f(ctx, event)
}
