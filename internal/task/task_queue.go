package task

import (
	"log/slog"

	"github.com/google/uuid"
)

// taskQueue is the ordered collection of submissions owned by the scheduler
// loop. It is not safe for concurrent use: the loop is its only caller, which
// is what guarantees a single Processing task.
type taskQueue struct {
	tasks      []*submissionTask
	byID       map[uuid.UUID]*submissionTask
	processing *submissionTask
	logger     *slog.Logger
}

// newTaskQueue creates an empty queue
func newTaskQueue(logger *slog.Logger) *taskQueue {
	return &taskQueue{
		tasks:  make([]*submissionTask, 0),
		byID:   make(map[uuid.UUID]*submissionTask),
		logger: logger,
	}
}

// Enqueue appends a task in submission order
func (q *taskQueue) Enqueue(t *submissionTask) {
	q.tasks = append(q.tasks, t)
	q.byID[t.id] = t
	q.logger.Debug("task enqueued",
		"task_id", t.id,
		"use_case", t.useCase,
		"item_count", len(t.order),
		"queue_len", len(q.tasks))
}

// Get returns the queued task with the given id, or nil
func (q *taskQueue) Get(id uuid.UUID) *submissionTask {
	return q.byID[id]
}

// Processing returns the task currently processing, or nil
func (q *taskQueue) Processing() *submissionTask {
	return q.processing
}

// StartNext marks the earliest pending task as processing and returns it.
// Returns nil when a task is already processing or nothing is pending.
func (q *taskQueue) StartNext() *submissionTask {
	if q.processing != nil {
		return nil
	}
	for _, t := range q.tasks {
		if t.status == TaskStatusPending {
			t.status = TaskStatusProcessing
			q.processing = t
			return t
		}
	}
	return nil
}

// Remove takes a task out of the queue. It reports false if the task was
// already removed, so callers can guarantee a single removal.
func (q *taskQueue) Remove(id uuid.UUID) bool {
	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	for i, queued := range q.tasks {
		if queued == t {
			q.tasks = append(q.tasks[:i], q.tasks[i+1:]...)
			break
		}
	}
	if q.processing == t {
		q.processing = nil
	}
	q.logger.Debug("task removed", "task_id", id, "queue_len", len(q.tasks))
	return true
}

// Len returns the number of queued tasks, processing included
func (q *taskQueue) Len() int {
	return len(q.tasks)
}

// PendingCount returns the number of tasks waiting to start
func (q *taskQueue) PendingCount() int {
	n := 0
	for _, t := range q.tasks {
		if t.status == TaskStatusPending {
			n++
		}
	}
	return n
}

// All returns the queued tasks in order. The slice is a copy.
func (q *taskQueue) All() []*submissionTask {
	out := make([]*submissionTask, len(q.tasks))
	copy(out, q.tasks)
	return out
}
