// Package kinematic is a lightweight stand-in for a rigid-body physics
// engine. The welded end-effector chases the mocap anchor with a fixed gain,
// and a single free body is pushed out of the end-effector's contact disc.
// There is no integration of forces; applied torques are ignored.
package kinematic

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

var _ physics.Simulator = (*Sim)(nil)

var generations atomic.Uint64

// weldIdentity is the relative pose (pos, quat) of a fresh weld.
var weldIdentity = [7]float64{0, 0, 0, 1, 0, 0, 0}

const auxSize = 3 + 3 + 4 + 7

// Sim implements physics.Simulator.
type Sim struct {
	scene      *Scene
	generation uint64
	index      map[string]physics.BodyID

	time      float64
	qpos      []float64
	qvel      []float64
	hand      physics.Vec3
	mocapPos  physics.Vec3
	mocapQuat physics.Quat
	weld      [7]float64

	contactID physics.BodyID
}

// New builds a simulator from a validated scene.
func New(scene *Scene) *Sim {
	s := &Sim{}
	s.Reload(scene)
	return s
}

// NewDefault builds a simulator from the embedded scene.
func NewDefault() *Sim {
	return New(DefaultScene())
}

// Reload swaps the model and resets all state. Body ids resolved against
// the previous model become stale.
func (s *Sim) Reload(scene *Scene) {
	s.scene = scene
	s.generation = generations.Add(1)
	s.index = make(map[string]physics.BodyID, len(scene.Bodies))
	s.contactID = -1
	for i, b := range scene.Bodies {
		s.index[b.Name] = physics.BodyID(i)
		if b.Name == scene.Contact.Body && b.Kind == BodyFree {
			s.contactID = physics.BodyID(i)
		}
	}

	s.time = 0
	s.qpos = make([]float64, scene.NQ)
	s.qvel = make([]float64, scene.NV)
	for _, b := range scene.Bodies {
		if b.Kind == BodyFree {
			s.qpos[b.QPos+3] = 1
		}
	}
	s.hand = physics.Vec3(scene.InitialHand)
	s.mocapPos = s.hand
	s.mocapQuat = physics.IdentityQuat
	s.weld = weldIdentity
}

// Scene returns the loaded scene description.
func (s *Sim) Scene() *Scene { return s.scene }

func (s *Sim) Generation() uint64 { return s.generation }

func (s *Sim) BodyID(name string) (physics.BodyID, error) {
	id, ok := s.index[name]
	if !ok {
		return -1, fmt.Errorf("%w: %q", physics.ErrUnknownBody, name)
	}
	return id, nil
}

func (s *Sim) body(id physics.BodyID) BodySpec {
	return s.scene.Bodies[id]
}

func (s *Sim) BodyPos(id physics.BodyID) physics.Vec3 {
	b := s.body(id)
	switch b.Kind {
	case BodyFree:
		return physics.Vec3{s.qpos[b.QPos], s.qpos[b.QPos+1], s.qpos[b.QPos+2]}
	case BodyWelded:
		return s.hand
	case BodyMocap:
		return s.mocapPos
	default:
		return physics.Vec3(b.Pos)
	}
}

func (s *Sim) BodyQuat(id physics.BodyID) physics.Quat {
	b := s.body(id)
	switch b.Kind {
	case BodyFree:
		a := b.QPos + 3
		return physics.Quat{W: s.qpos[a], X: s.qpos[a+1], Y: s.qpos[a+2], Z: s.qpos[a+3]}.Normalize()
	case BodyWelded, BodyMocap:
		return s.mocapQuat.Normalize()
	default:
		return physics.IdentityQuat
	}
}

func (s *Sim) QPos() []float64 { return append([]float64(nil), s.qpos...) }
func (s *Sim) QVel() []float64 { return append([]float64(nil), s.qvel...) }

func (s *Sim) SetState(qpos, qvel []float64) error {
	if len(qpos) != len(s.qpos) {
		return fmt.Errorf("%w: qpos have %d want %d", physics.ErrStateSize, len(qpos), len(s.qpos))
	}
	if len(qvel) != len(s.qvel) {
		return fmt.Errorf("%w: qvel have %d want %d", physics.ErrStateSize, len(qvel), len(s.qvel))
	}
	copy(s.qpos, qpos)
	copy(s.qvel, qvel)
	s.Forward()
	return nil
}

func (s *Sim) MocapPos() physics.Vec3  { return s.mocapPos }
func (s *Sim) MocapQuat() physics.Quat { return s.mocapQuat }

func (s *Sim) SetMocap(pos physics.Vec3, quat physics.Quat) {
	s.mocapPos = pos
	s.mocapQuat = quat
}

func (s *Sim) NumActuators() int  { return s.scene.NU }
func (s *Sim) Timestep() float64 { return s.scene.Timestep }

func (s *Sim) Step(ctrl []float64, nFrames int) error {
	if len(ctrl) != s.scene.NU {
		return fmt.Errorf("%w: have %d want %d", physics.ErrControlSize, len(ctrl), s.scene.NU)
	}
	for i := 0; i < nFrames; i++ {
		s.frame()
	}
	return nil
}

func (s *Sim) frame() {
	dt := s.scene.Timestep
	target := s.mocapPos.Add(physics.Vec3{s.weld[0], s.weld[1], s.weld[2]})
	prev := s.hand
	s.hand = s.hand.Add(target.Sub(s.hand).Scale(s.scene.Weld.Gain))
	moved := s.hand.Sub(prev)

	if s.contactID >= 0 {
		s.push(moved, dt)
	}
	s.time += dt
}

// push resolves the planar contact between the hand and the contact body.
func (s *Sim) push(moved physics.Vec3, dt float64) {
	b := s.body(s.contactID)
	c := s.scene.Contact
	px, py := s.qpos[b.QPos], s.qpos[b.QPos+1]
	lin := s.qvel[b.QVel : b.QVel+3]
	ang := s.qvel[b.QVel+3 : b.QVel+6]

	dx, dy := px-s.hand[0], py-s.hand[1]
	dist := math.Hypot(dx, dy)
	if s.hand[2] > c.MaxHeight || dist >= c.Radius {
		for i := range lin {
			lin[i], ang[i] = 0, 0
		}
		return
	}

	nx, ny := 0.0, 1.0
	if dist > 0 {
		nx, ny = dx/dist, dy/dist
	}
	depth := c.Radius - dist
	s.qpos[b.QPos] += nx * depth
	s.qpos[b.QPos+1] += ny * depth

	// Tangential hand motion spins the body about the vertical axis.
	tangential := nx*moved[1] - ny*moved[0]
	dTheta := c.Spin * tangential / c.Radius
	q := s.BodyQuat(s.contactID)
	theta := physics.QuatToAngle(q) + dTheta
	r := physics.AngleToQuat(theta)
	a := b.QPos + 3
	s.qpos[a], s.qpos[a+1], s.qpos[a+2], s.qpos[a+3] = r.W, r.X, r.Y, r.Z

	lin[0], lin[1], lin[2] = nx*depth/dt, ny*depth/dt, 0
	ang[0], ang[1], ang[2] = 0, 0, dTheta/dt
}

// Forward normalises free-body orientations. Positions are stored directly,
// so nothing else is derived.
func (s *Sim) Forward() {
	for _, b := range s.scene.Bodies {
		if b.Kind != BodyFree {
			continue
		}
		a := b.QPos + 3
		q := physics.Quat{W: s.qpos[a], X: s.qpos[a+1], Y: s.qpos[a+2], Z: s.qpos[a+3]}.Normalize()
		s.qpos[a], s.qpos[a+1], s.qpos[a+2], s.qpos[a+3] = q.W, q.X, q.Y, q.Z
	}
}

// ResetWelds restores the identity weld and snaps the welded body onto the
// mocap anchor, as a fully engaged weld would hold it.
func (s *Sim) ResetWelds() {
	s.weld = weldIdentity
	s.hand = s.mocapPos
	s.Forward()
}

// SetWeld overrides the weld relative pose (pos, quat).
func (s *Sim) SetWeld(data [7]float64) { s.weld = data }

// Weld returns the weld relative pose.
func (s *Sim) Weld() [7]float64 { return s.weld }

func (s *Sim) Snapshot() physics.State {
	aux := make([]float64, 0, auxSize)
	aux = append(aux, s.hand[:]...)
	aux = append(aux, s.mocapPos[:]...)
	aux = append(aux, s.mocapQuat.Slice()...)
	aux = append(aux, s.weld[:]...)
	return physics.State{
		Time: s.time,
		QPos: s.QPos(),
		QVel: s.QVel(),
		Aux:  aux,
	}
}

func (s *Sim) Restore(st physics.State) error {
	if len(st.Aux) != auxSize {
		return fmt.Errorf("%w: aux have %d want %d", physics.ErrStateSize, len(st.Aux), auxSize)
	}
	if err := s.SetState(st.QPos, st.QVel); err != nil {
		return err
	}
	s.time = st.Time
	a := st.Aux
	s.hand = physics.Vec3{a[0], a[1], a[2]}
	s.mocapPos = physics.Vec3{a[3], a[4], a[5]}
	s.mocapQuat = physics.Quat{W: a[6], X: a[7], Y: a[8], Z: a[9]}
	copy(s.weld[:], a[10:17])
	return nil
}

// Time returns the simulated time in seconds.
func (s *Sim) Time() float64 { return s.time }
