package env

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

// Step applies a 2D displacement command to the mocap anchor, holds the
// hand at the target height and advances FrameSkip physics frames.
func (e *Env) Step(action [2]float64) (StepResult, error) {
	if err := e.resolveBodies(); err != nil {
		return StepResult{}, err
	}
	a := ClipAction(action)

	mocap := e.sim.MocapPos()
	dz := e.cfg.TargetHandHeight - mocap[2]
	delta := physics.Vec3{a[0], a[1], dz}.Scale(e.cfg.PosActionScale)
	target := mocap.Add(delta).Clip(physics.Vec3(e.cfg.MocapLow), physics.Vec3(e.cfg.MocapHigh))
	e.sim.SetMocap(target, e.mocapQuat())

	if e.cfg.ForcePuckInGoalSpace {
		if err := e.keepPuckInGoalSpace(); err != nil {
			return StepResult{}, err
		}
	}

	if err := e.simulate(e.cfg.FrameSkip); err != nil {
		return StepResult{}, fmt.Errorf("step: %w", err)
	}

	obs, err := e.Observe()
	if err != nil {
		return StepResult{}, err
	}
	info, err := e.Info()
	if err != nil {
		return StepResult{}, err
	}
	res := StepResult{
		Observation: obs,
		Reward:      ComputeReward(obs),
		Info:        info,
	}
	e.steps++
	e.publish(EventStep, StepEvent{
		EnvID:     e.id,
		EpisodeID: e.episode,
		Step:      e.steps,
		Action:    a,
		Result:    res,
	})
	return res, nil
}

// keepPuckInGoalSpace teleports the puck into the puck goal box when it has
// left it.
func (e *Env) keepPuckInGoalSpace() error {
	pose, err := e.PuckPose()
	if err != nil {
		return err
	}
	low := physics.Pose{X: e.cfg.PuckGoalLow[0], Y: e.cfg.PuckGoalLow[1], Theta: e.cfg.PuckGoalLow[2]}
	high := physics.Pose{X: e.cfg.PuckGoalHigh[0], Y: e.cfg.PuckGoalHigh[1], Theta: e.cfg.PuckGoalHigh[2]}
	clipped := pose.Clip(low, high)
	if clipped == pose {
		return nil
	}
	e.logger.Debug("puck clipped into goal space",
		log.Float64s("from", pose.Slice()),
		log.Float64s("to", clipped.Slice()),
	)
	return e.SetPuckPose(clipped)
}

// Reset restores the canonical arm pose, resamples the goal and places the
// puck with the configured sampler.
func (e *Env) Reset() (Observation, error) {
	if err := e.resolveBodies(); err != nil {
		return Observation{}, err
	}

	qpos := append([]float64(nil), e.cfg.InitQPos...)
	qvel := make([]float64, len(e.sim.QVel()))
	if err := e.sim.SetState(qpos, qvel); err != nil {
		return Observation{}, fmt.Errorf("reset joints: %w", err)
	}

	for i := 0; i < e.cfg.ResetSettleSteps; i++ {
		e.sim.SetMocap(physics.Vec3(e.cfg.InitHandPos), e.mocapQuat())
		if err := e.simulate(1); err != nil {
			return Observation{}, fmt.Errorf("reset settle: %w", err)
		}
	}

	if err := e.SetGoalPose(e.SampleGoal()); err != nil {
		return Observation{}, err
	}
	puck := e.sampler.SampleInitialPose(e.src)
	if err := e.SetPuckPose(puck); err != nil {
		return Observation{}, err
	}
	e.sim.ResetWelds()

	e.episode = uuid.NewString()
	e.steps = 0

	obs, err := e.Observe()
	if err != nil {
		return Observation{}, err
	}
	e.logger.Debug("episode reset",
		log.String("episode_id", e.episode),
		log.Float64s("goal", e.goal.Slice()),
		log.Float64s("puck", puck.Slice()),
	)
	e.publish(EventReset, ResetEvent{EnvID: e.id, EpisodeID: e.episode, Goal: e.goal, Puck: puck})
	return obs, nil
}

// State returns [ee_x, ee_y, puck_x, puck_y, puck_theta].
func (e *Env) State() ([]float64, error) {
	ee, err := e.EndEffectorPos()
	if err != nil {
		return nil, err
	}
	puck, err := e.PuckPose()
	if err != nil {
		return nil, err
	}
	return []float64{ee[0], ee[1], puck.X, puck.Y, puck.Theta}, nil
}

// Observe builds the observation for the current state and goal.
func (e *Env) Observe() (Observation, error) {
	state, err := e.State()
	if err != nil {
		return Observation{}, err
	}
	return newObservation(state, e.goal), nil
}

// Info measures the current distances to the goal markers.
func (e *Env) Info() (Info, error) {
	if err := e.resolveBodies(); err != nil {
		return Info{}, err
	}
	ee := e.sim.BodyPos(e.ids.endEffector)
	handGoal := e.sim.BodyPos(e.ids.handGoal)
	puckPos := e.sim.BodyPos(e.ids.puck)
	puck := e.planarPose(e.ids.puck)
	puckGoal := e.planarPose(e.ids.puckGoal)

	info := Info{
		HandDistance:      physics.Distance3V(handGoal, ee),
		PuckDistance:      physics.PoseDistance(puckGoal, puck),
		PuckXYDistance:    physics.Distance2V(puckGoal.XY(), puck.XY()),
		PuckThetaDistance: math.Abs(puckGoal.Theta - puck.Theta),
		TouchDistance:     physics.Distance3V(ee, puckPos),
	}
	info.Success = Success(info.HandDistance, info.PuckDistance, e.cfg.SuccessThreshold)
	return info, nil
}
