package physics

import "errors"

// Vector2 represents a 2D vector.
type Vector2 interface {
	X() float64
	Y() float64
}

// Vector3 represents a 3D vector.
type Vector3 interface {
	X() float64
	Y() float64
	Z() float64
}

// BodyID is the engine index of a named body. It is only valid for the
// model generation it was resolved against.
type BodyID int

// Simulator is the capability set the task adapter needs from a physics
// engine: resolve names, read poses, write joint state, drive the mocap
// anchor and advance time. Every getter returns a copy; callers never alias
// engine buffers.
//
// Implementations are not safe for concurrent use.
type Simulator interface {
	// Generation changes whenever the underlying model is (re)loaded.
	// Cached BodyIDs must be re-resolved when it changes.
	Generation() uint64
	// BodyID resolves a body by name. Unknown names return ErrUnknownBody.
	BodyID(name string) (BodyID, error)

	BodyPos(id BodyID) Vec3
	BodyQuat(id BodyID) Quat

	QPos() []float64
	QVel() []float64
	// SetState overwrites joint positions and velocities wholesale and
	// recomputes derived quantities. Lengths must match the model.
	SetState(qpos, qvel []float64) error

	MocapPos() Vec3
	MocapQuat() Quat
	SetMocap(pos Vec3, quat Quat)

	// Step advances the simulation nFrames integration steps applying ctrl
	// as joint torques. len(ctrl) must equal NumActuators.
	Step(ctrl []float64, nFrames int) error
	// Forward recomputes derived quantities after manual state edits.
	Forward()
	// ResetWelds sets every weld constraint's relative pose to identity,
	// brings welded bodies onto their anchors and runs Forward.
	ResetWelds()

	NumActuators() int
	Timestep() float64

	Snapshot() State
	Restore(State) error
}

// State is a full engine snapshot. Aux carries engine-specific data that is
// not part of qpos/qvel (weld data, hidden integrator state).
type State struct {
	Time float64   `json:"time"`
	QPos []float64 `json:"qpos"`
	QVel []float64 `json:"qvel"`
	Aux  []float64 `json:"aux,omitempty"`
}

// Clone returns a deep copy of the snapshot.
func (s State) Clone() State {
	return State{
		Time: s.Time,
		QPos: append([]float64(nil), s.QPos...),
		QVel: append([]float64(nil), s.QVel...),
		Aux:  append([]float64(nil), s.Aux...),
	}
}

var (
	ErrUnknownBody  = errors.New("unknown body")
	ErrStateSize    = errors.New("state vector has wrong length")
	ErrControlSize  = errors.New("control vector has wrong length")
	ErrInvalidScene = errors.New("invalid scene description")
)
