package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRewardZeroOnGoal(t *testing.T) {
	g := Goal{0.01, 0.6, 0.02, 0.58, 0.1}
	obs := newObservation(g.Slice(), g)
	assert.Equal(t, 0.0, ComputeReward(obs))
}

func TestComputeRewardNonPositive(t *testing.T) {
	obs := newObservation([]float64{0, 0.5, 0, 0.5, 0}, Goal{0.03, 0.5, 0, 0.54, 0})
	assert.InDelta(t, -0.05, ComputeReward(obs), 1e-12)
}

func TestComputeRewardCountsAngle(t *testing.T) {
	g := Goal{0, 0.6, 0, 0.6, 0}
	obs := newObservation([]float64{0, 0.6, 0, 0.6, 0.5}, g)
	assert.InDelta(t, -0.5, ComputeReward(obs), 1e-12)
}

func TestComputeRewardsBatched(t *testing.T) {
	achieved := [][]float64{{0, 0, 0, 0, 0}, {1, 1, 1, 1, 1}}
	desired := [][]float64{{0, 0, 0, 0, 0}, {1, 1, 1, 1, 3}}
	got, err := ComputeRewards(achieved, desired)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, -2}, got)
}

func TestComputeRewardsLargeBatch(t *testing.T) {
	n := rewardChunk*2 + 17
	achieved := make([][]float64, n)
	desired := make([][]float64, n)
	for i := range achieved {
		achieved[i] = []float64{0, 0, 0, 0, 0}
		desired[i] = []float64{float64(i), 0, 0, 0, 0}
	}
	got, err := ComputeRewards(achieved, desired)
	require.NoError(t, err)
	require.Len(t, got, n)
	for i, r := range got {
		assert.Equal(t, -float64(i), r)
	}
}

func TestComputeRewardsShape(t *testing.T) {
	_, err := ComputeRewards([][]float64{{0}}, nil)
	assert.ErrorIs(t, err, ErrBatchShape)
	_, err = ComputeRewards([][]float64{{0, 1}}, [][]float64{{0}})
	assert.ErrorIs(t, err, ErrBatchShape)
}

func TestSuccessBoundary(t *testing.T) {
	assert.True(t, Success(0.03, 0.029, 0.06))
	assert.False(t, Success(0.03, 0.031, 0.06))
	assert.False(t, Success(0.03, 0.03, 0.06))
}
