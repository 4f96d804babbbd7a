package env

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

// Box is a closed axis-aligned interval [Low, High] in R^n.
type Box struct {
	Low  []float64 `json:"low"`
	High []float64 `json:"high"`
}

// NewBox copies low and high.
func NewBox(low, high []float64) Box {
	return Box{
		Low:  append([]float64(nil), low...),
		High: append([]float64(nil), high...),
	}
}

func (b Box) Dim() int { return len(b.Low) }

// Contains reports whether x has the right dimension and lies inside the box.
func (b Box) Contains(x []float64) bool {
	if len(x) != len(b.Low) {
		return false
	}
	for i, v := range x {
		if v < b.Low[i] || v > b.High[i] {
			return false
		}
	}
	return true
}

// Clip returns a copy of x clamped into the box. Extra components beyond
// the box dimension are dropped.
func (b Box) Clip(x []float64) []float64 {
	n := min(len(x), len(b.Low))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = physics.Clamp(x[i], b.Low[i], b.High[i])
	}
	return out
}

// Sample draws a point uniformly from the box.
func (b Box) Sample(src rand.Source) []float64 {
	out := make([]float64, len(b.Low))
	for i := range out {
		out[i] = uniform(src, b.Low[i], b.High[i])
	}
	return out
}

// Spaces describes every numeric range a harness can validate against.
type Spaces struct {
	Action            Box `json:"action"`
	Observation       Box `json:"observation"`
	StateObservation  Box `json:"state_observation"`
	DesiredGoal       Box `json:"desired_goal"`
	StateDesiredGoal  Box `json:"state_desired_goal"`
	AchievedGoal      Box `json:"achieved_goal"`
	StateAchievedGoal Box `json:"state_achieved_goal"`
	// GoalDim is the nominal goal dimension. It is 4 although goals carry
	// five values; the puck angle is not counted.
	GoalDim int `json:"goal_dim"`
}

// ActionBox is [-1, 1]^2.
func ActionBox() Box {
	return NewBox([]float64{-1, -1}, []float64{1, 1})
}

// ObservationBox bounds [ee_x, ee_y, puck_x, puck_y, puck_theta].
func ObservationBox() Box {
	return NewBox(
		[]float64{-0.2, 0.5, -0.2, 0.5, -math.Pi},
		[]float64{0.2, 0.7, 0.2, 0.7, math.Pi},
	)
}

// GoalBox concatenates the hand goal bounds and the puck goal bounds.
func (c Config) GoalBox() Box {
	return NewBox(
		[]float64{c.HandGoalLow[0], c.HandGoalLow[1], c.PuckGoalLow[0], c.PuckGoalLow[1], c.PuckGoalLow[2]},
		[]float64{c.HandGoalHigh[0], c.HandGoalHigh[1], c.PuckGoalHigh[0], c.PuckGoalHigh[1], c.PuckGoalHigh[2]},
	)
}

func (c Config) spaces() Spaces {
	obs := ObservationBox()
	goal := c.GoalBox()
	return Spaces{
		Action:            ActionBox(),
		Observation:       obs,
		StateObservation:  obs,
		DesiredGoal:       goal,
		StateDesiredGoal:  goal,
		AchievedGoal:      goal,
		StateAchievedGoal: goal,
		GoalDim:           goalDim,
	}
}

// ClipAction clamps an action into [-1, 1]^2.
func ClipAction(a [2]float64) [2]float64 {
	return [2]float64{physics.Clamp(a[0], -1, 1), physics.Clamp(a[1], -1, 1)}
}
