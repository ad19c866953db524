package task

import (
	"math"
	"time"
)

// progressDecaySeconds is the time constant of the elapsed-time component.
const progressDecaySeconds = 3.0

// EstimateProgress returns a UI-facing progress value in [0, 1]. It is not
// authoritative: the elapsed-time decay keeps the bar moving while uploads are
// in flight, and the upload ratio carries the remaining weight.
//
//	decay     = 1 - e^(-elapsed/3)
//	itemRatio = uploaded/total, or decay when total is 0
//	progress  = clamp(0.4*decay + 0.6*itemRatio, 0, 1)
//
// Pending tasks always report 0.
func EstimateProgress(status TaskStatus, startedAt, now time.Time, uploaded, total int) float64 {
	if status != TaskStatusProcessing {
		return 0
	}

	elapsed := now.Sub(startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	decay := 1 - math.Exp(-elapsed/progressDecaySeconds)

	itemRatio := decay
	if total > 0 {
		itemRatio = float64(uploaded) / float64(total)
	}

	return clamp(0.4*decay+0.6*itemRatio, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
