package events

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// orderedHandler records event types and can block until released.
type orderedHandler struct {
	mu      sync.Mutex
	types   []Type
	release chan struct{}
}

func (h *orderedHandler) HandleEvent(ctx context.Context, event *LifecycleEvent) error {
	if h.release != nil {
		<-h.release
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, event.Type)
	return nil
}

func (h *orderedHandler) seen() []Type {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Type, len(h.types))
	copy(out, h.types)
	return out
}

func TestAsyncEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	taskID := uuid.New()

	t.Run("emit does not wait for a blocked handler", func(t *testing.T) {
		handler := &orderedHandler{release: make(chan struct{})}
		inner := NewInMemoryEventEmitter(logger)
		inner.RegisterHandler(handler)

		async := NewAsyncEmitter(inner, logger)
		finished := make(chan struct{})
		go func() {
			async.Run()
			close(finished)
		}()

		for _, typ := range []Type{TaskSubmitted, TaskStarted, TaskFinalized} {
			event, err := NewLifecycleEvent(typ, taskID, nil)
			require.NoError(t, err)

			emitted := make(chan error, 1)
			go func() { emitted <- async.EmitEvent(context.Background(), event) }()
			select {
			case err := <-emitted:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("EmitEvent blocked on the handler")
			}
		}

		close(handler.release)
		async.Close()

		select {
		case <-finished:
		case <-time.After(time.Second):
			t.Fatal("Run did not return after Close")
		}
		assert.Equal(t, []Type{TaskSubmitted, TaskStarted, TaskFinalized}, handler.seen())
	})

	t.Run("events after close are dropped", func(t *testing.T) {
		handler := &orderedHandler{}
		inner := NewInMemoryEventEmitter(logger)
		inner.RegisterHandler(handler)

		async := NewAsyncEmitter(inner, logger)
		async.Close()
		async.Close()

		event, err := NewLifecycleEvent(TaskCancelled, taskID, nil)
		require.NoError(t, err)
		assert.NoError(t, async.EmitEvent(context.Background(), event))

		async.Run()
		assert.Empty(t, handler.seen())
	})
}
