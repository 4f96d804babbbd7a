package env

import (
	"fmt"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

// EndEffectorPos returns the 3D position of the end-effector body.
func (e *Env) EndEffectorPos() (physics.Vec3, error) {
	if err := e.resolveBodies(); err != nil {
		return physics.Vec3{}, err
	}
	return e.sim.BodyPos(e.ids.endEffector), nil
}

// PuckPose returns the puck's planar pose.
func (e *Env) PuckPose() (physics.Pose, error) {
	if err := e.resolveBodies(); err != nil {
		return physics.Pose{}, err
	}
	return e.planarPose(e.ids.puck), nil
}

// PuckGoalPose returns the planar pose of the puck goal marker.
func (e *Env) PuckGoalPose() (physics.Pose, error) {
	if err := e.resolveBodies(); err != nil {
		return physics.Pose{}, err
	}
	return e.planarPose(e.ids.puckGoal), nil
}

// HandGoalPos returns the 3D position of the hand goal marker.
func (e *Env) HandGoalPos() (physics.Vec3, error) {
	if err := e.resolveBodies(); err != nil {
		return physics.Vec3{}, err
	}
	return e.sim.BodyPos(e.ids.handGoal), nil
}

func (e *Env) planarPose(id physics.BodyID) physics.Pose {
	pos := e.sim.BodyPos(id)
	return physics.Pose{X: pos[0], Y: pos[1], Theta: physics.QuatToAngle(e.sim.BodyQuat(id))}
}

// SetPuckPose teleports the puck to p at the configured puck height and
// zeroes its velocity. No other body moves.
func (e *Env) SetPuckPose(p physics.Pose) error {
	qpos, qvel := e.sim.QPos(), e.sim.QVel()
	l := e.cfg.Layout
	writeFreeJoint(qpos, qvel, l.PuckQPos, l.PuckQVel,
		physics.Vec3{p.X, p.Y, e.cfg.PuckHeight}, physics.AngleToQuat(p.Theta))
	if err := e.sim.SetState(qpos, qvel); err != nil {
		return fmt.Errorf("set puck pose: %w", err)
	}
	return nil
}

// SetGoalPose moves both goal markers to g, zeroes their velocities and
// stores g as the current goal.
func (e *Env) SetGoalPose(g Goal) error {
	qpos, qvel := e.sim.QPos(), e.sim.QVel()
	l := e.cfg.Layout
	h := e.cfg.GoalMarkerHeight

	copy(qpos[l.HandGoalQPos:l.HandGoalQPos+3], []float64{g[0], g[1], h})
	clear(qvel[l.HandGoalQVel : l.HandGoalQVel+6])
	writeFreeJoint(qpos, qvel, l.PuckGoalQPos, l.PuckGoalQVel,
		physics.Vec3{g[2], g[3], h}, physics.AngleToQuat(g[4]))

	if err := e.sim.SetState(qpos, qvel); err != nil {
		return fmt.Errorf("set goal pose: %w", err)
	}
	e.goal = g
	return nil
}

// SetHandTarget drives the mocap anchor to (xy, hand target height) and
// lets the arm settle for HandTargetSteps rounds of FrameSkip frames.
func (e *Env) SetHandTarget(xy physics.Vec2) error {
	target := physics.Vec3{xy[0], xy[1], e.cfg.HandTargetHeight}
	for i := 0; i < e.cfg.HandTargetSteps; i++ {
		e.sim.SetMocap(target, e.mocapQuat())
		if err := e.simulate(e.cfg.FrameSkip); err != nil {
			return fmt.Errorf("set hand target: %w", err)
		}
	}
	return nil
}

func (e *Env) mocapQuat() physics.Quat {
	q := e.cfg.MocapQuat
	return physics.Quat{W: q[0], X: q[1], Y: q[2], Z: q[3]}
}

// simulate advances n frames with zero joint torques.
func (e *Env) simulate(n int) error {
	return e.sim.Step(make([]float64, e.sim.NumActuators()), n)
}

// writeFreeJoint overwrites a free joint's position and orientation and
// zeroes its six velocity components.
func writeFreeJoint(qpos, qvel []float64, qa, va int, pos physics.Vec3, q physics.Quat) {
	copy(qpos[qa:qa+3], pos[:])
	copy(qpos[qa+3:qa+7], q.Slice())
	clear(qvel[va : va+6])
}
