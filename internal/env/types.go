package env

import "github.com/zeusync/pushreach/internal/core/systems/physics"

// Goal is the combined goal [hand_x, hand_y, puck_x, puck_y, puck_theta].
type Goal [5]float64

// NewGoal assembles a combined goal.
func NewGoal(hand physics.Vec2, puck physics.Pose) Goal {
	return Goal{hand[0], hand[1], puck.X, puck.Y, puck.Theta}
}

// GoalFromSlice copies the first five values of s. Shorter slices leave the
// remaining components zero.
func GoalFromSlice(s []float64) Goal {
	var g Goal
	copy(g[:], s)
	return g
}

func (g Goal) Hand() physics.Vec2 { return physics.Vec2{g[0], g[1]} }

func (g Goal) Puck() physics.Pose {
	return physics.Pose{X: g[2], Y: g[3], Theta: g[4]}
}

// Slice returns a fresh copy of the goal as a slice.
func (g Goal) Slice() []float64 {
	out := make([]float64, len(g))
	copy(out, g[:])
	return out
}

// Observation mirrors the state vector [ee_x, ee_y, puck_x, puck_y,
// puck_theta] into the four observation slots and the goal into both
// desired-goal slots. Slots of the same kind share one backing slice.
type Observation struct {
	Observation       []float64 `json:"observation"`
	StateObservation  []float64 `json:"state_observation"`
	AchievedGoal      []float64 `json:"achieved_goal"`
	StateAchievedGoal []float64 `json:"state_achieved_goal"`
	DesiredGoal       []float64 `json:"desired_goal"`
	StateDesiredGoal  []float64 `json:"state_desired_goal"`
}

func newObservation(state []float64, goal Goal) Observation {
	g := goal.Slice()
	return Observation{
		Observation:       state,
		StateObservation:  state,
		AchievedGoal:      state,
		StateAchievedGoal: state,
		DesiredGoal:       g,
		StateDesiredGoal:  g,
	}
}

// Info carries the per-step diagnostics.
type Info struct {
	HandDistance      float64 `json:"hand_distance"`
	PuckDistance      float64 `json:"puck_distance"`
	PuckXYDistance    float64 `json:"puck_xy_distance"`
	PuckThetaDistance float64 `json:"puck_theta_distance"`
	TouchDistance     float64 `json:"touch_distance"`
	Success           bool    `json:"success"`
}

// InfoKeys lists the diagnostic names in reporting order.
var InfoKeys = []string{
	"hand_distance",
	"puck_distance",
	"puck_xy_distance",
	"puck_theta_distance",
	"touch_distance",
	"success",
}

// Value returns the named diagnostic; success reads as 0 or 1.
func (i Info) Value(key string) (float64, bool) {
	switch key {
	case "hand_distance":
		return i.HandDistance, true
	case "puck_distance":
		return i.PuckDistance, true
	case "puck_xy_distance":
		return i.PuckXYDistance, true
	case "puck_theta_distance":
		return i.PuckThetaDistance, true
	case "touch_distance":
		return i.TouchDistance, true
	case "success":
		if i.Success {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// StepResult is what Step emits. Done is always false; episode length is
// enforced by the caller.
type StepResult struct {
	Observation Observation `json:"observation"`
	Reward      float64     `json:"reward"`
	Done        bool        `json:"done"`
	Info        Info        `json:"info"`
}
