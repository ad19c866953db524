package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/postmedia/internal/media"
)

// TaskStatus represents the current state of a submission task
type TaskStatus string

// Possible task status values. A task leaves the queue once it settles, so
// there is no terminal status.
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
)

// FinalizeFunc creates the post once its media has settled. refs is nil when
// the submission carried no media, otherwise it lists the uploaded references
// in submission order (possibly empty when every item was dropped).
type FinalizeFunc func(ctx context.Context, refs []media.RemoteRef) error

// ErrorFunc is notified when a submission ends without a successful finalize.
type ErrorFunc func(err error)

// Submission is what a caller hands to Scheduler.Submit.
type Submission struct {
	Title    string
	UseCase  media.UseCase
	Media    []media.Raw
	Finalize FinalizeFunc
	OnError  ErrorFunc
}

// Snapshot is a point-in-time view of a queued submission.
type Snapshot struct {
	ID            uuid.UUID     `json:"task_id"`
	Title         string        `json:"title"`
	UseCase       media.UseCase `json:"use_case"`
	Status        TaskStatus    `json:"status"`
	StartedAt     *time.Time    `json:"started_at,omitempty"` // nil while pending
	ItemsTotal    int           `json:"items_total"`
	ItemsUploaded int           `json:"items_uploaded"`
	ItemsDropped  int           `json:"items_dropped"`
	Progress      float64       `json:"progress"`
}

// submissionTask is the scheduler's record of one submission. It is only
// touched from the scheduler loop.
type submissionTask struct {
	id        uuid.UUID
	title     string
	useCase   media.UseCase
	hadMedia  bool
	items     map[uuid.UUID]*media.Item
	order     []uuid.UUID // active items; dropped ids are removed
	dropped   int
	status    TaskStatus
	startedAt time.Time
	finalize  FinalizeFunc
	onError   ErrorFunc

	// ctx is cancelled when the task is cancelled or the scheduler stops
	ctx    context.Context
	cancel context.CancelFunc

	finalizing bool
}

// newSubmissionTask lists every valid payload as an Uncompressed item.
// Payloads that cannot enter the pipeline are recorded as Dropped up front,
// so they never block the rest of the post.
func newSubmissionTask(sub Submission) *submissionTask {
	t := &submissionTask{
		id:       uuid.New(),
		title:    sub.Title,
		useCase:  sub.UseCase,
		hadMedia: len(sub.Media) > 0,
		items:    make(map[uuid.UUID]*media.Item, len(sub.Media)),
		order:    make([]uuid.UUID, 0, len(sub.Media)),
		status:   TaskStatusPending,
		finalize: sub.Finalize,
		onError:  sub.OnError,
	}

	for _, raw := range sub.Media {
		item := media.NewItem(raw)
		t.items[item.ID] = item
		if err := raw.Validate(); err != nil {
			_ = item.Drop(err)
			t.dropped++
			continue
		}
		t.order = append(t.order, item.ID)
	}

	return t
}

// activeItem returns the item if it is still listed on the task.
func (t *submissionTask) activeItem(id uuid.UUID) (*media.Item, bool) {
	item, ok := t.items[id]
	if !ok || item.Phase() == media.PhaseDropped {
		return nil, false
	}
	return item, true
}

// removeFromOrder takes a dropped item off the active list.
func (t *submissionTask) removeFromOrder(id uuid.UUID) {
	for i, itemID := range t.order {
		if itemID == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			t.dropped++
			return
		}
	}
}

// uploadedCount counts listed items that reached Uploaded.
func (t *submissionTask) uploadedCount() int {
	n := 0
	for _, id := range t.order {
		if _, ok := t.items[id].State().(media.Uploaded); ok {
			n++
		}
	}
	return n
}

func (t *submissionTask) snapshot(now time.Time) Snapshot {
	uploaded := t.uploadedCount()

	var startedAt *time.Time
	if t.status == TaskStatusProcessing {
		at := t.startedAt
		startedAt = &at
	}

	return Snapshot{
		ID:            t.id,
		Title:         t.title,
		UseCase:       t.useCase,
		Status:        t.status,
		StartedAt:     startedAt,
		ItemsTotal:    len(t.order),
		ItemsUploaded: uploaded,
		ItemsDropped:  t.dropped,
		Progress:      EstimateProgress(t.status, t.startedAt, now, uploaded, len(t.order)),
	}
}
