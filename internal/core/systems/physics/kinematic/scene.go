package kinematic

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

//go:embed assets/sawyer_push_and_reach_t.yaml
var defaultScene []byte

// BodyKind selects how a body's pose is stored.
type BodyKind string

const (
	// BodyFree bodies own a free joint: 7 qpos slots (pos, quat) and 6 qvel slots.
	BodyFree BodyKind = "free"
	// BodyWelded bodies follow the mocap anchor through the weld constraint.
	BodyWelded BodyKind = "welded"
	// BodyMocap is the weld anchor itself.
	BodyMocap BodyKind = "mocap"
	// BodyStatic bodies never move.
	BodyStatic BodyKind = "static"
)

// Scene describes the bodies and joint layout of a model.
type Scene struct {
	Name     string      `yaml:"name"`
	Timestep float64     `yaml:"timestep"`
	NQ       int         `yaml:"nq"`
	NV       int         `yaml:"nv"`
	NU       int         `yaml:"nu"`
	Bodies   []BodySpec  `yaml:"bodies"`
	Weld     WeldSpec    `yaml:"weld"`
	Contact  ContactSpec `yaml:"contact"`
	// InitialHand is where the welded body starts before any step.
	InitialHand [3]float64 `yaml:"initial_hand"`
}

// BodySpec describes a single named body.
type BodySpec struct {
	Name string   `yaml:"name"`
	Kind BodyKind `yaml:"kind"`
	// QPos and QVel are the first qpos/qvel addresses of a free body.
	QPos int `yaml:"qpos,omitempty"`
	QVel int `yaml:"qvel,omitempty"`
	// Pos is the fixed position of a static body.
	Pos [3]float64 `yaml:"pos,omitempty"`
}

// WeldSpec configures how fast the welded body tracks the anchor.
type WeldSpec struct {
	Body string  `yaml:"body"`
	Gain float64 `yaml:"gain"`
}

// ContactSpec configures the planar pushing contact between the welded
// body and one free body.
type ContactSpec struct {
	Body      string  `yaml:"body"`
	Radius    float64 `yaml:"radius"`
	MaxHeight float64 `yaml:"max_height"`
	Spin      float64 `yaml:"spin"`
}

// DefaultScene returns the embedded push-and-reach scene.
func DefaultScene() *Scene {
	s, err := LoadScene(bytes.NewReader(defaultScene))
	if err != nil {
		panic(fmt.Sprintf("embedded scene: %v", err))
	}
	return s
}

// LoadScene decodes and validates a YAML scene description.
func LoadScene(r io.Reader) (*Scene, error) {
	var s Scene
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadSceneFile reads a scene description from disk.
func LoadSceneFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()
	return LoadScene(f)
}

// Validate checks the joint layout fits the declared vector sizes.
func (s *Scene) Validate() error {
	if s.Timestep <= 0 {
		return fmt.Errorf("%w: timestep must be positive", physics.ErrInvalidScene)
	}
	if s.NQ <= 0 || s.NV <= 0 || s.NU < 0 {
		return fmt.Errorf("%w: nq, nv must be positive", physics.ErrInvalidScene)
	}
	seen := make(map[string]bool, len(s.Bodies))
	for i, b := range s.Bodies {
		if b.Name == "" {
			return fmt.Errorf("%w: body %d has no name", physics.ErrInvalidScene, i)
		}
		if seen[b.Name] {
			return fmt.Errorf("%w: duplicate body %q", physics.ErrInvalidScene, b.Name)
		}
		seen[b.Name] = true

		switch b.Kind {
		case BodyFree:
			if b.QPos < 0 || b.QPos+7 > s.NQ {
				return fmt.Errorf("%w: body %q qpos range out of bounds", physics.ErrInvalidScene, b.Name)
			}
			if b.QVel < 0 || b.QVel+6 > s.NV {
				return fmt.Errorf("%w: body %q qvel range out of bounds", physics.ErrInvalidScene, b.Name)
			}
		case BodyWelded, BodyMocap, BodyStatic:
		default:
			return fmt.Errorf("%w: body %q has unknown kind %q", physics.ErrInvalidScene, b.Name, b.Kind)
		}
	}
	if s.Weld.Body != "" && !seen[s.Weld.Body] {
		return fmt.Errorf("%w: weld body %q not declared", physics.ErrInvalidScene, s.Weld.Body)
	}
	if s.Contact.Body != "" && !seen[s.Contact.Body] {
		return fmt.Errorf("%w: contact body %q not declared", physics.ErrInvalidScene, s.Contact.Body)
	}
	return nil
}
