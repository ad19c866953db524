package events

import (
	"context"
	"log/slog"
	"sync"
)

// AsyncEmitter queues events and hands them to an inner EventEmitter on a
// single goroutine, in the order they were emitted. EmitEvent never blocks,
// so a slow handler, or one that calls back into the publisher, cannot stall
// the caller.
type AsyncEmitter struct {
	inner  EventEmitter
	logger *slog.Logger

	mu      sync.Mutex
	pending []*LifecycleEvent
	closed  bool

	wake chan struct{}
}

// NewAsyncEmitter wraps inner. Run must be started for events to be delivered.
func NewAsyncEmitter(inner EventEmitter, logger *slog.Logger) *AsyncEmitter {
	return &AsyncEmitter{
		inner:  inner,
		logger: logger.With("component", "async_event_emitter"),
		wake:   make(chan struct{}, 1),
	}
}

// EmitEvent queues event for delivery. Events emitted after Close are dropped.
func (e *AsyncEmitter) EmitEvent(ctx context.Context, event *LifecycleEvent) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.logger.Debug("dropping event emitted after close",
			"event_type", event.Type,
			"task_id", event.TaskID)
		return nil
	}
	e.pending = append(e.pending, event)
	e.mu.Unlock()

	e.signal()
	return nil
}

// Run delivers queued events until Close is called and the queue is drained.
func (e *AsyncEmitter) Run() {
	for {
		e.mu.Lock()
		batch := e.pending
		e.pending = nil
		closed := e.closed
		e.mu.Unlock()

		for _, event := range batch {
			// The inner emitter logs handler failures itself
			_ = e.inner.EmitEvent(context.Background(), event)
		}

		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-e.wake
	}
}

// Close stops accepting events. Run returns once what was queued is delivered.
// Close may be called more than once.
func (e *AsyncEmitter) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.signal()
}

func (e *AsyncEmitter) signal() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

var _ EventEmitter = (*AsyncEmitter)(nil)
