package env

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
	"github.com/zeusync/pushreach/pkg/encoding"
)

var _ encoding.Serializable[EnvState] = (*EnvState)(nil)

// EnvState is a restorable checkpoint of the simulator, the mocap anchor
// and the current goal.
type EnvState struct {
	ID          string        `json:"id"`
	Sim         physics.State `json:"sim"`
	MocapPos    physics.Vec3  `json:"mocap_pos"`
	MocapQuat   physics.Quat  `json:"mocap_quat"`
	Goal        Goal          `json:"goal"`
	Fingerprint uint64        `json:"fingerprint"`
}

// Sum hashes every numeric field of the checkpoint.
func (s *EnvState) Sum() uint64 {
	d := xxhash.New()
	var buf [8]byte
	write := func(vs ...float64) {
		for _, v := range vs {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}
	write(s.Sim.Time)
	write(s.Sim.QPos...)
	write(s.Sim.QVel...)
	write(s.Sim.Aux...)
	write(s.MocapPos[:]...)
	write(s.MocapQuat.Slice()...)
	write(s.Goal[:]...)
	return d.Sum64()
}

// Verify checks the stored fingerprint.
func (s *EnvState) Verify() error {
	if got := s.Sum(); got != s.Fingerprint {
		return fmt.Errorf("%w: checkpoint %s has %x, contents hash to %x", ErrCheckpointCorrupt, s.ID, s.Fingerprint, got)
	}
	return nil
}

func (s *EnvState) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

func (s *EnvState) Deserialize(data []byte) error {
	var st EnvState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("decode checkpoint: %w", err)
	}
	if err := st.Verify(); err != nil {
		return err
	}
	*s = st
	return nil
}

// GetEnvState captures a checkpoint of the current episode.
func (e *Env) GetEnvState() EnvState {
	st := EnvState{
		ID:        uuid.NewString(),
		Sim:       e.sim.Snapshot(),
		MocapPos:  e.sim.MocapPos(),
		MocapQuat: e.sim.MocapQuat(),
		Goal:      e.goal,
	}
	st.Fingerprint = st.Sum()
	return st
}

// SetEnvState restores a checkpoint taken by GetEnvState.
func (e *Env) SetEnvState(st EnvState) error {
	if err := st.Verify(); err != nil {
		return err
	}
	if len(st.Sim.QPos) != len(e.sim.QPos()) || len(st.Sim.QVel) != len(e.sim.QVel()) {
		return fmt.Errorf("%w: qpos %d qvel %d", ErrCheckpointShape, len(st.Sim.QPos), len(st.Sim.QVel))
	}
	if err := e.sim.Restore(st.Sim.Clone()); err != nil {
		return fmt.Errorf("restore checkpoint %s: %w", st.ID, err)
	}
	e.sim.SetMocap(st.MocapPos, st.MocapQuat)
	e.sim.Forward()
	e.goal = st.Goal
	return nil
}
