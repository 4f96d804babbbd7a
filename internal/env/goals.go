package env

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

// PuckSampler draws the puck pose placed at the start of every episode.
type PuckSampler interface {
	SampleInitialPose(src rand.Source) physics.Pose
}

// FixedPuckSampler keeps the puck at XY and randomises only its angle.
type FixedPuckSampler struct {
	XY        physics.Vec2
	ThetaLow  float64
	ThetaHigh float64
}

func (s FixedPuckSampler) SampleInitialPose(src rand.Source) physics.Pose {
	return physics.Pose{X: s.XY[0], Y: s.XY[1], Theta: uniform(src, s.ThetaLow, s.ThetaHigh)}
}

// UniformPuckSampler draws the puck xy inside [Low, High] and its angle in
// [ThetaLow, ThetaHigh].
type UniformPuckSampler struct {
	Low       physics.Vec2
	High      physics.Vec2
	ThetaLow  float64
	ThetaHigh float64
}

func (s UniformPuckSampler) SampleInitialPose(src rand.Source) physics.Pose {
	return physics.Pose{
		X:     uniform(src, s.Low[0], s.High[0]),
		Y:     uniform(src, s.Low[1], s.High[1]),
		Theta: uniform(src, s.ThetaLow, s.ThetaHigh),
	}
}

// SamplerFor returns the initial puck sampler of cfg's variant.
func SamplerFor(cfg Config) PuckSampler {
	if cfg.Variant == VariantEasy {
		return FixedPuckSampler{
			XY:        physics.Vec2(cfg.EasyPuckXY),
			ThetaLow:  -math.Pi / 2,
			ThetaHigh: math.Pi / 2,
		}
	}
	return UniformPuckSampler{
		Low:       physics.Vec2(cfg.InitPuckLow),
		High:      physics.Vec2(cfg.InitPuckHigh),
		ThetaLow:  -math.Pi / 2,
		ThetaHigh: math.Pi / 2,
	}
}

func uniform(src rand.Source, low, high float64) float64 {
	return distuv.Uniform{Min: low, Max: high, Src: src}.Rand()
}

// SampleGoal draws a hand xy and a puck xy independently inside their
// goal bounds. The puck angle is always the fixed goal angle. With
// randomisation off the fixed goal is returned.
func (e *Env) SampleGoal() Goal {
	c := e.cfg
	if !c.RandomizeGoals {
		return e.fixedGoal()
	}
	return Goal{
		uniform(e.src, c.HandGoalLow[0], c.HandGoalHigh[0]),
		uniform(e.src, c.HandGoalLow[1], c.HandGoalHigh[1]),
		uniform(e.src, c.PuckGoalLow[0], c.PuckGoalHigh[0]),
		uniform(e.src, c.PuckGoalLow[1], c.PuckGoalHigh[1]),
		c.FixedPuckGoal[2],
	}
}

func (e *Env) fixedGoal() Goal {
	c := e.cfg
	return Goal{c.FixedHandGoal[0], c.FixedHandGoal[1], c.FixedPuckGoal[0], c.FixedPuckGoal[1], c.FixedPuckGoal[2]}
}

// SampleGoals draws n goals uniformly from the full goal box, angle
// included. Relabelling strategies use it; it ignores RandomizeGoals.
// n <= 0 yields an empty slice.
func (e *Env) SampleGoals(n int) []Goal {
	if n <= 0 {
		return []Goal{}
	}
	box := e.cfg.GoalBox()
	out := make([]Goal, n)
	for i := range out {
		out[i] = GoalFromSlice(box.Sample(e.src))
	}
	return out
}

// GetGoal returns the current goal.
func (e *Env) GetGoal() Goal { return e.goal }

// SetGoal replaces the current goal and moves the markers to it.
func (e *Env) SetGoal(g Goal) error { return e.SetGoalPose(g) }

// SetToGoal moves the arm and the puck onto g. The stored goal is left
// unchanged.
func (e *Env) SetToGoal(g Goal) error {
	if err := e.SetHandTarget(g.Hand()); err != nil {
		return err
	}
	return e.SetPuckPose(g.Puck())
}

// ConvertObsToGoals maps observations to achieved goals. The two spaces
// coincide, so rows are copied as they are.
func ConvertObsToGoals(obs [][]float64) [][]float64 {
	out := make([][]float64, len(obs))
	for i, row := range obs {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
