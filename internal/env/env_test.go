package env

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pushreach/internal/core/events/bus"
	"github.com/zeusync/pushreach/internal/core/systems/physics"
	"github.com/zeusync/pushreach/internal/core/systems/physics/kinematic"
)

func newTestEnv(t *testing.T, mutate ...func(*Config)) (*Env, *kinematic.Sim) {
	t.Helper()
	sim := kinematic.NewDefault()
	cfg := DefaultConfig()
	cfg.Seed = 42
	for _, m := range mutate {
		m(&cfg)
	}
	e, err := New(sim, cfg)
	require.NoError(t, err)
	return e, sim
}

func TestNewRejectsUnknownBody(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bodies.Puck = "no-such-body"
	_, err := New(kinematic.NewDefault(), cfg)
	assert.ErrorIs(t, err, physics.ErrUnknownBody)
}

func TestNewRejectsLayoutMismatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitQPos = cfg.InitQPos[:10]
	_, err := New(kinematic.NewDefault(), cfg)
	assert.ErrorIs(t, err, ErrLayout)

	cfg = DefaultConfig()
	cfg.Layout.PuckGoalQVel = 24
	_, err = New(kinematic.NewDefault(), cfg)
	assert.ErrorIs(t, err, ErrLayout)
}

func TestGoalDimDiscrepancy(t *testing.T) {
	e, _ := newTestEnv(t)
	// Goals carry five values while the reported dimension stays 4.
	assert.Equal(t, 4, e.GoalDim())
	assert.Len(t, e.GetGoal().Slice(), 5)
	assert.Equal(t, 5, e.Spaces().DesiredGoal.Dim())
	assert.Equal(t, 4, e.Spaces().GoalDim)
}

func TestBodyIDsFollowGeneration(t *testing.T) {
	e, sim := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)
	before := sim.Generation()

	sim.Reload(kinematic.DefaultScene())
	require.NotEqual(t, before, sim.Generation())

	ee, err := e.EndEffectorPos()
	require.NoError(t, err)
	assert.Equal(t, physics.Vec3(sim.Scene().InitialHand), ee)
	assert.Equal(t, sim.Generation(), e.ids.generation)
}

func TestAccessorsReturnCopies(t *testing.T) {
	e, _ := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)

	state, err := e.State()
	require.NoError(t, err)
	state[0] = 100
	again, err := e.State()
	require.NoError(t, err)
	assert.NotEqual(t, 100.0, again[0])
}

func TestSetPuckPose(t *testing.T) {
	e, sim := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)
	qposBefore := sim.QPos()

	want := physics.Pose{X: 0.03, Y: 0.58, Theta: 0.7}
	require.NoError(t, e.SetPuckPose(want))

	got, err := e.PuckPose()
	require.NoError(t, err)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.InDelta(t, want.Theta, got.Theta, 1e-6)

	l := e.Config().Layout
	qpos, qvel := sim.QPos(), sim.QVel()
	assert.Equal(t, 0.02, qpos[l.PuckQPos+2])
	assert.Equal(t, make([]float64, 6), qvel[l.PuckQVel:l.PuckQVel+6])
	assert.InDeltaSlice(t, qposBefore[:l.PuckQPos], qpos[:l.PuckQPos], 1e-12)
	assert.InDeltaSlice(t, qposBefore[l.PuckQPos+7:], qpos[l.PuckQPos+7:], 1e-12)
}

func TestSetGoalPose(t *testing.T) {
	e, sim := newTestEnv(t)
	g := Goal{0.01, 0.6, -0.02, 0.57, 0.3}
	require.NoError(t, e.SetGoalPose(g))

	assert.Equal(t, g, e.GetGoal())
	hand, err := e.HandGoalPos()
	require.NoError(t, err)
	assert.Equal(t, physics.Vec3{0.01, 0.6, 0.02}, hand)

	puck, err := e.PuckGoalPose()
	require.NoError(t, err)
	assert.InDelta(t, -0.02, puck.X, 1e-12)
	assert.InDelta(t, 0.57, puck.Y, 1e-12)
	assert.InDelta(t, 0.3, puck.Theta, 1e-6)

	l := e.Config().Layout
	qvel := sim.QVel()
	assert.Equal(t, make([]float64, 6), qvel[l.HandGoalQVel:l.HandGoalQVel+6])
	assert.Equal(t, make([]float64, 6), qvel[l.PuckGoalQVel:l.PuckGoalQVel+6])
}

func TestSetHandTarget(t *testing.T) {
	e, sim := newTestEnv(t)
	_, err := e.Reset()
	require.NoError(t, err)

	require.NoError(t, e.SetHandTarget(physics.Vec2{0.05, 0.55}))
	assert.Equal(t, physics.Vec3{0.05, 0.55, 0.02}, sim.MocapPos())
	ee, err := e.EndEffectorPos()
	require.NoError(t, err)
	assert.InDelta(t, 0.05, ee[0], 1e-6)
	assert.InDelta(t, 0.55, ee[1], 1e-6)
}

func TestEventsPublished(t *testing.T) {
	b := bus.New()
	var resets, steps int
	var last StepEvent
	_, _ = b.Subscribe(EventReset, func(bus.Event) error { resets++; return nil })
	_, _ = b.Subscribe(EventStep, func(ev bus.Event) error {
		steps++
		last = ev.Data().(StepEvent)
		return nil
	})

	cfg := DefaultConfig()
	cfg.Seed = 7
	e, err := New(kinematic.NewDefault(), cfg, WithEventBus(b))
	require.NoError(t, err)

	_, err = e.Reset()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = e.Step([2]float64{2, 0})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, resets)
	assert.Equal(t, 3, steps)
	assert.Equal(t, 3, last.Step)
	assert.Equal(t, e.EpisodeID(), last.EpisodeID)
	assert.Equal(t, [2]float64{1, 0}, last.Action)
	assert.False(t, math.IsNaN(last.Result.Reward))
}
