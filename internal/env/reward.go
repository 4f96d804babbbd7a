package env

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/zeusync/pushreach/pkg/concurrent"
)

// rewardChunk is the batch size above which ComputeRewards fans out.
const rewardChunk = 4096

// ComputeReward is the negative Euclidean distance between the achieved
// and desired goals over all five components.
func ComputeReward(obs Observation) float64 {
	return -floats.Distance(obs.AchievedGoal, obs.DesiredGoal, 2)
}

// ComputeRewards evaluates the reward row-wise for relabelled batches.
func ComputeRewards(achieved, desired [][]float64) ([]float64, error) {
	if len(achieved) != len(desired) {
		return nil, fmt.Errorf("%w: %d achieved rows, %d desired rows", ErrBatchShape, len(achieved), len(desired))
	}
	for i := range achieved {
		if len(achieved[i]) != len(desired[i]) {
			return nil, fmt.Errorf("%w: row %d has %d and %d values", ErrBatchShape, i, len(achieved[i]), len(desired[i]))
		}
	}

	out := make([]float64, len(achieved))
	err := concurrent.Batch(achieved, rewardChunk, func(offset int, chunk [][]float64) error {
		for i, row := range chunk {
			out[offset+i] = -floats.Distance(row, desired[offset+i], 2)
		}
		return nil
	})
	return out, err
}

// Success reports whether the summed hand and puck distances are strictly
// below threshold.
func Success(handDistance, puckDistance, threshold float64) bool {
	return handDistance+puckDistance < threshold
}
