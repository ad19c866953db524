package task

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEstimateProgressPending(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 0.0, EstimateProgress(TaskStatusPending, start, start.Add(time.Hour), 3, 3))
	assert.Equal(t, 0.0, EstimateProgress(TaskStatusPending, time.Time{}, start, 0, 0))
}

func TestEstimateProgressFormula(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		elapsed  time.Duration
		uploaded int
		total    int
	}{
		{name: "no items at start", elapsed: 0, uploaded: 0, total: 0},
		{name: "no items after 1s", elapsed: time.Second, uploaded: 0, total: 0},
		{name: "no items after 3s", elapsed: 3 * time.Second, uploaded: 0, total: 0},
		{name: "half uploaded at start", elapsed: 0, uploaded: 1, total: 2},
		{name: "half uploaded after 2s", elapsed: 2 * time.Second, uploaded: 1, total: 2},
		{name: "all uploaded after 10s", elapsed: 10 * time.Second, uploaded: 4, total: 4},
		{name: "none uploaded after 500ms", elapsed: 500 * time.Millisecond, uploaded: 0, total: 3},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			elapsed := tc.elapsed.Seconds()
			decay := 1 - math.Exp(-elapsed/3)
			ratio := decay
			if tc.total > 0 {
				ratio = float64(tc.uploaded) / float64(tc.total)
			}
			expected := math.Min(1, math.Max(0, 0.4*decay+0.6*ratio))

			got := EstimateProgress(TaskStatusProcessing, start, start.Add(tc.elapsed), tc.uploaded, tc.total)
			assert.InDelta(t, expected, got, 1e-12)
		})
	}
}

func TestEstimateProgressZeroItemsIncreases(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, EstimateProgress(TaskStatusProcessing, start, start, 0, 0))

	previous := 0.0
	for i := 1; i <= 60; i++ {
		now := start.Add(time.Duration(i) * 500 * time.Millisecond)
		got := EstimateProgress(TaskStatusProcessing, start, now, 0, 0)
		assert.Greater(t, got, previous, "progress must strictly increase at step %d", i)
		assert.Less(t, got, 1.0)
		previous = got
	}
	assert.InDelta(t, 1.0, previous, 1e-3)
}

func TestEstimateProgressBounds(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	elapsed := []time.Duration{
		-time.Hour, // clock went backwards
		0,
		time.Millisecond,
		time.Second,
		time.Minute,
		1000 * time.Hour,
	}
	counts := [][2]int{{0, 0}, {0, 1}, {1, 1}, {3, 7}, {7, 7}, {9, 3}}

	for _, d := range elapsed {
		for _, c := range counts {
			got := EstimateProgress(TaskStatusProcessing, start, start.Add(d), c[0], c[1])
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}
