package task

import (
	"log/slog"
	"os"
	"testing"

	"github.com/phrazzld/postmedia/internal/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func newTestTask(t *testing.T, mediaCount int) *submissionTask {
	t.Helper()

	raws := make([]media.Raw, mediaCount)
	for i := range raws {
		raws[i] = media.Raw{Kind: media.KindImage, ContentType: "image/jpeg", Data: []byte{byte('a' + i)}}
	}

	return newSubmissionTask(Submission{
		Title:    "test",
		UseCase:  media.UseCaseCheckin,
		Media:    raws,
		Finalize: noopFinalize,
	})
}

func TestTaskQueueFIFO(t *testing.T) {
	queue := newTaskQueue(setupTestLogger())

	first := newTestTask(t, 0)
	second := newTestTask(t, 1)
	third := newTestTask(t, 2)

	queue.Enqueue(first)
	queue.Enqueue(second)
	queue.Enqueue(third)

	assert.Equal(t, 3, queue.Len())
	assert.Equal(t, 3, queue.PendingCount())
	assert.Nil(t, queue.Processing())

	started := queue.StartNext()
	require.NotNil(t, started)
	assert.Equal(t, first.id, started.id)
	assert.Equal(t, TaskStatusProcessing, started.status)
	assert.Equal(t, 2, queue.PendingCount())

	// Only one task may be processing
	assert.Nil(t, queue.StartNext())
	assert.Equal(t, TaskStatusPending, second.status)

	require.True(t, queue.Remove(first.id))
	assert.Nil(t, queue.Processing())

	started = queue.StartNext()
	require.NotNil(t, started)
	assert.Equal(t, second.id, started.id)
}

func TestTaskQueueRemoveOnce(t *testing.T) {
	queue := newTaskQueue(setupTestLogger())
	task := newTestTask(t, 0)
	queue.Enqueue(task)

	assert.True(t, queue.Remove(task.id))
	assert.False(t, queue.Remove(task.id), "second removal must report false")
	assert.Nil(t, queue.Get(task.id))
	assert.Equal(t, 0, queue.Len())
}

func TestTaskQueueRemovePendingKeepsProcessing(t *testing.T) {
	queue := newTaskQueue(setupTestLogger())
	first := newTestTask(t, 0)
	second := newTestTask(t, 0)
	queue.Enqueue(first)
	queue.Enqueue(second)

	require.NotNil(t, queue.StartNext())
	require.True(t, queue.Remove(second.id))

	assert.Equal(t, first, queue.Processing())
	assert.Equal(t, []*submissionTask{first}, queue.All())
}

func TestTaskQueueStartNextEmpty(t *testing.T) {
	queue := newTaskQueue(setupTestLogger())
	assert.Nil(t, queue.StartNext())
}
