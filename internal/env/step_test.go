package env

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
	"github.com/zeusync/pushreach/internal/core/systems/physics/kinematic"
)

func TestResetObservation(t *testing.T) {
	e, sim := newTestEnv(t)
	obs, err := e.Reset()
	require.NoError(t, err)

	require.Len(t, obs.Observation, 5)
	assert.Equal(t, obs.Observation, obs.StateObservation)
	assert.Equal(t, obs.Observation, obs.AchievedGoal)
	assert.Equal(t, obs.Observation, obs.StateAchievedGoal)
	assert.Equal(t, e.GetGoal().Slice(), obs.DesiredGoal)
	assert.Equal(t, obs.DesiredGoal, obs.StateDesiredGoal)

	assert.Equal(t, physics.Vec3{0, 0.4, 0.02}, sim.MocapPos())
	assert.Equal(t, [7]float64{0, 0, 0, 1, 0, 0, 0}, sim.Weld())
	assert.Equal(t, make([]float64, 6), sim.QVel()[7:13])
	assert.NotEmpty(t, e.EpisodeID())
	assert.Zero(t, e.Steps())
}

func TestResetRestoresHandAfterEpisode(t *testing.T) {
	e, _ := newTestEnv(t, func(c *Config) { c.RandomizeGoals = false })
	fresh, err := e.Reset()
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err = e.Step([2]float64{1, 1})
		require.NoError(t, err)
	}
	again, err := e.Reset()
	require.NoError(t, err)
	assert.InDeltaSlice(t, fresh.Observation[:2], again.Observation[:2], 1e-12)

	ee, err := e.EndEffectorPos()
	require.NoError(t, err)
	assert.Equal(t, physics.Vec3(e.Config().InitHandPos), ee)
}

func TestResetSamplesGoalInsideBounds(t *testing.T) {
	e, _ := newTestEnv(t)
	c := e.Config()
	for i := 0; i < 20; i++ {
		_, err := e.Reset()
		require.NoError(t, err)
		g := e.GetGoal()
		assert.True(t, g[0] >= c.HandGoalLow[0] && g[0] <= c.HandGoalHigh[0])
		assert.True(t, g[1] >= c.HandGoalLow[1] && g[1] <= c.HandGoalHigh[1])
		assert.True(t, g[2] >= c.PuckGoalLow[0] && g[2] <= c.PuckGoalHigh[0])
		assert.True(t, g[3] >= c.PuckGoalLow[1] && g[3] <= c.PuckGoalHigh[1])
		assert.Equal(t, c.FixedPuckGoal[2], g[4])

		puck, err := e.PuckPose()
		require.NoError(t, err)
		assert.True(t, puck.X >= c.InitPuckLow[0] && puck.X <= c.InitPuckHigh[0])
		assert.True(t, puck.Y >= c.InitPuckLow[1] && puck.Y <= c.InitPuckHigh[1])
		assert.LessOrEqual(t, math.Abs(puck.Theta), math.Pi/2+1e-9)
	}
}

func TestFixedGoalResetIsDeterministic(t *testing.T) {
	fixed := func(c *Config) { c.RandomizeGoals = false }
	a, _ := newTestEnv(t, fixed)
	b, _ := newTestEnv(t, fixed)

	obsA, err := a.Reset()
	require.NoError(t, err)
	obsB, err := b.Reset()
	require.NoError(t, err)
	assert.Equal(t, obsA, obsB)
	assert.Equal(t, Goal{-0.05, 0.6, 0.05, 0.6, 0}, a.GetGoal())

	_, err = a.Reset()
	require.NoError(t, err)
	assert.Equal(t, Goal{-0.05, 0.6, 0.05, 0.6, 0}, a.GetGoal())
}

func TestEasyVariantKeepsPuckXY(t *testing.T) {
	sim := kinematic.NewDefault()
	cfg := EasyConfig()
	cfg.Seed = 3
	e, err := New(sim, cfg)
	require.NoError(t, err)

	thetas := map[float64]bool{}
	for i := 0; i < 5; i++ {
		_, err := e.Reset()
		require.NoError(t, err)
		puck, err := e.PuckPose()
		require.NoError(t, err)
		assert.InDelta(t, 0, puck.X, 1e-12)
		assert.InDelta(t, 0.6, puck.Y, 1e-12)
		assert.Less(t, math.Abs(puck.Theta), math.Pi/2+1e-9)
		thetas[puck.Theta] = true
	}
	assert.Greater(t, len(thetas), 1)
}

func TestStepResult(t *testing.T) {
	e, _ := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)

	res, err := e.Step([2]float64{0.3, -0.2})
	require.NoError(t, err)
	assert.False(t, res.Done)
	assert.Equal(t, 1, e.Steps())
	assert.LessOrEqual(t, res.Reward, 0.0)
	assert.InDelta(t, -euclid(res.Observation.AchievedGoal, res.Observation.DesiredGoal), res.Reward, 1e-12)

	info := res.Info
	assert.Equal(t, info.HandDistance+info.PuckDistance < 0.06, info.Success)
	assert.GreaterOrEqual(t, info.PuckDistance, info.PuckXYDistance)
	assert.GreaterOrEqual(t, info.PuckDistance, info.PuckThetaDistance)

	ee, err := e.EndEffectorPos()
	require.NoError(t, err)
	handGoal, err := e.HandGoalPos()
	require.NoError(t, err)
	assert.InDelta(t, physics.Distance3V(handGoal, ee), info.HandDistance, 1e-12)
}

func TestStepClipsMocapToBox(t *testing.T) {
	e, sim := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)

	c := e.Config()
	for i := 0; i < 30; i++ {
		_, err := e.Step([2]float64{50, 50})
		require.NoError(t, err)
		m := sim.MocapPos()
		for k := 0; k < 3; k++ {
			assert.GreaterOrEqual(t, m[k], c.MocapLow[k])
			assert.LessOrEqual(t, m[k], c.MocapHigh[k])
		}
	}
	assert.Equal(t, c.MocapHigh[0], sim.MocapPos()[0])
	assert.Equal(t, physics.Quat{W: 1, X: 0, Y: 1, Z: 0}, sim.MocapQuat())
}

func TestZeroActionConvergesToTargetHeight(t *testing.T) {
	e, sim := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)

	prev := math.Abs(0.06 - sim.MocapPos()[2])
	for i := 0; i < 20; i++ {
		_, err := e.Step([2]float64{0, 0})
		require.NoError(t, err)
		gap := math.Abs(0.06 - sim.MocapPos()[2])
		assert.Less(t, gap, prev)
		prev = gap
	}
}

func TestPuckTeleportedIntoGoalSpace(t *testing.T) {
	e, _ := newTestEnv(t, func(c *Config) { c.ForcePuckInGoalSpace = true })
	_, err := e.Reset()
	require.NoError(t, err)

	require.NoError(t, e.SetPuckPose(physics.Pose{X: 0.15, Y: 0.75, Theta: 0}))
	_, err = e.Step([2]float64{0, 0})
	require.NoError(t, err)

	puck, err := e.PuckPose()
	require.NoError(t, err)
	assert.Equal(t, 0.05, puck.X)
	assert.Equal(t, 0.65, puck.Y)
	assert.InDelta(t, 0, puck.Theta, 1e-9)
}

func TestPuckLeftAloneInsideGoalSpace(t *testing.T) {
	e, _ := newTestEnv(t, func(c *Config) { c.ForcePuckInGoalSpace = true })
	_, err := e.Reset()
	require.NoError(t, err)

	inside := physics.Pose{X: 0.01, Y: 0.62, Theta: 0.1}
	require.NoError(t, e.SetPuckPose(inside))
	_, err = e.Step([2]float64{0, 0})
	require.NoError(t, err)

	puck, err := e.PuckPose()
	require.NoError(t, err)
	assert.InDelta(t, inside.X, puck.X, 1e-12)
	assert.InDelta(t, inside.Y, puck.Y, 1e-12)
	assert.InDelta(t, inside.Theta, puck.Theta, 1e-6)
}

func euclid(a, b []float64) float64 {
	var s float64
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return math.Sqrt(s)
}
