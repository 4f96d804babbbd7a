package rollout

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
	"github.com/zeusync/pushreach/internal/env"
)

// Policy maps an observation to an action. Policies must not retain obs.
type Policy interface {
	Name() string
	Act(obs env.Observation, src rand.Source) [2]float64
}

// RandomPolicy samples actions uniformly from [-1, 1]^2.
type RandomPolicy struct{}

func (RandomPolicy) Name() string { return "random" }

func (RandomPolicy) Act(_ env.Observation, src rand.Source) [2]float64 {
	u := distuv.Uniform{Min: -1, Max: 1, Src: src}
	return [2]float64{u.Rand(), u.Rand()}
}

// ReachPolicy drives the end-effector toward the hand goal with a
// proportional controller. It ignores the puck.
type ReachPolicy struct {
	// Gain converts metres of error into action units.
	Gain float64
}

func (ReachPolicy) Name() string { return "reach" }

func (p ReachPolicy) Act(obs env.Observation, _ rand.Source) [2]float64 {
	ee := physics.Vec2{obs.Observation[0], obs.Observation[1]}
	goal := physics.Vec2{obs.DesiredGoal[0], obs.DesiredGoal[1]}
	return env.ClipAction([2]float64{
		p.Gain * (goal[0] - ee[0]),
		p.Gain * (goal[1] - ee[1]),
	})
}

// ZeroPolicy always commands no horizontal motion.
type ZeroPolicy struct{}

func (ZeroPolicy) Name() string { return "zero" }

func (ZeroPolicy) Act(env.Observation, rand.Source) [2]float64 { return [2]float64{} }

// PolicyByName resolves the policies selectable from configuration.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "random":
		return RandomPolicy{}, nil
	case "reach", "":
		return ReachPolicy{Gain: 50}, nil
	case "zero":
		return ZeroPolicy{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}
