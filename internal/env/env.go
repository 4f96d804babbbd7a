// Package env adapts a physics.Simulator into the push-and-reach-T task:
// a Sawyer-style arm pushes a T-shaped puck to a goal pose while its
// end-effector reaches a separate goal position.
package env

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/rand"

	"github.com/zeusync/pushreach/internal/core/events/bus"
	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/core/systems/physics"
)

// goalDim is the nominal goal dimension reported to learners. Goals carry
// five values; the puck angle is not counted here.
const goalDim = 4

// Event types published on the optional bus.
const (
	EventReset = "env.reset"
	EventStep  = "env.step"
)

// ResetEvent is the payload of EventReset.
type ResetEvent struct {
	EnvID     string
	EpisodeID string
	Goal      Goal
	Puck      physics.Pose
}

// StepEvent is the payload of EventStep.
type StepEvent struct {
	EnvID     string
	EpisodeID string
	Step      int
	Action    [2]float64
	Result    StepResult
}

type bodyIDs struct {
	generation  uint64
	resolved    bool
	endEffector physics.BodyID
	puck        physics.BodyID
	puckGoal    physics.BodyID
	handGoal    physics.BodyID
}

// Env is the push-and-reach task adapter. It is not safe for concurrent
// use; run one Env per goroutine.
type Env struct {
	id      string
	sim     physics.Simulator
	cfg     Config
	logger  log.Log
	sampler PuckSampler
	events  bus.EventBus
	src     rand.Source

	ids  bodyIDs
	goal Goal

	episode string
	steps   int
}

// Option customises an Env at construction.
type Option func(*Env)

func WithLogger(l log.Log) Option {
	return func(e *Env) { e.logger = l }
}

// WithPuckSampler overrides the variant's initial puck sampler.
func WithPuckSampler(s PuckSampler) Option {
	return func(e *Env) { e.sampler = s }
}

// WithEventBus publishes reset and step events to b.
func WithEventBus(b bus.EventBus) Option {
	return func(e *Env) { e.events = b }
}

// WithSource replaces the seeded random source.
func WithSource(src rand.Source) Option {
	return func(e *Env) { e.src = src }
}

// New binds an environment to sim. The simulator must expose the bodies
// named in cfg.Bodies and have room for the configured free-joint layout.
// The initial goal is sampled (or fixed) but not written to the simulator
// until Reset.
func New(sim physics.Simulator, cfg Config, opts ...Option) (*Env, error) {
	e := &Env{
		id:  uuid.NewString(),
		sim: sim,
		cfg: cfg,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = log.NewNop()
	}
	e.logger = e.logger.With(log.String("component", "env"), log.String("env_id", e.id))
	if e.src == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		e.src = rand.NewSource(seed)
	}
	if e.sampler == nil {
		e.sampler = SamplerFor(cfg)
	}

	if err := e.checkLayout(); err != nil {
		return nil, err
	}
	if err := e.resolveBodies(); err != nil {
		return nil, err
	}
	e.warnBounds()

	e.goal = e.SampleGoal()
	return e, nil
}

// ID identifies this environment instance in logs and events.
func (e *Env) ID() string { return e.id }

// EpisodeID is regenerated on every Reset. It is empty before the first.
func (e *Env) EpisodeID() string { return e.episode }

// Steps counts Step calls since the last Reset.
func (e *Env) Steps() int { return e.steps }

func (e *Env) Config() Config { return e.cfg }

func (e *Env) Simulator() physics.Simulator { return e.sim }

// Seed reseeds the random source.
func (e *Env) Seed(seed uint64) { e.src.Seed(seed) }

func (e *Env) Spaces() Spaces { return e.cfg.spaces() }

// GoalDim reports the nominal goal dimension, 4, while goals carry 5 values.
func (e *Env) GoalDim() int { return goalDim }

func (e *Env) checkLayout() error {
	nq, nv := len(e.sim.QPos()), len(e.sim.QVel())
	l := e.cfg.Layout
	for _, q := range []int{l.PuckQPos, l.HandGoalQPos, l.PuckGoalQPos} {
		if q < 0 || q+7 > nq {
			return fmt.Errorf("%w: qpos address %d outside %d slots", ErrLayout, q, nq)
		}
	}
	for _, v := range []int{l.PuckQVel, l.HandGoalQVel, l.PuckGoalQVel} {
		if v < 0 || v+6 > nv {
			return fmt.Errorf("%w: qvel address %d outside %d slots", ErrLayout, v, nv)
		}
	}
	if len(e.cfg.InitQPos) != nq {
		return fmt.Errorf("%w: init qpos has %d values, simulator has %d", ErrLayout, len(e.cfg.InitQPos), nq)
	}
	return nil
}

// resolveBodies refreshes cached body ids when the simulator model changed.
func (e *Env) resolveBodies() error {
	gen := e.sim.Generation()
	if e.ids.resolved && e.ids.generation == gen {
		return nil
	}

	names := e.cfg.Bodies
	var ids bodyIDs
	var err error
	if ids.endEffector, err = e.sim.BodyID(names.EndEffector); err != nil {
		return fmt.Errorf("resolve end effector: %w", err)
	}
	if ids.puck, err = e.sim.BodyID(names.Puck); err != nil {
		return fmt.Errorf("resolve puck: %w", err)
	}
	if ids.puckGoal, err = e.sim.BodyID(names.PuckGoal); err != nil {
		return fmt.Errorf("resolve puck goal: %w", err)
	}
	if ids.handGoal, err = e.sim.BodyID(names.HandGoal); err != nil {
		return fmt.Errorf("resolve hand goal: %w", err)
	}
	ids.generation = gen
	ids.resolved = true

	if e.ids.resolved {
		e.logger.Debug("body ids re-resolved", log.Uint64("generation", gen))
	}
	e.ids = ids
	return nil
}

func (e *Env) warnBounds() {
	c := e.cfg
	check := func(name string, low, high []float64) {
		for i := range low {
			if low[i] > high[i] {
				e.logger.Warn("bound low exceeds high",
					log.String("bound", name),
					log.Int("axis", i),
					log.Float64("low", low[i]),
					log.Float64("high", high[i]),
				)
			}
		}
	}
	check("init_puck", c.InitPuckLow[:], c.InitPuckHigh[:])
	check("puck_goal", c.PuckGoalLow[:], c.PuckGoalHigh[:])
	check("hand_goal", c.HandGoalLow[:], c.HandGoalHigh[:])
	check("mocap", c.MocapLow[:], c.MocapHigh[:])
}

func (e *Env) publish(eventType string, data any) {
	if e.events == nil {
		return
	}
	if err := e.events.Publish(bus.NewEvent(eventType, e.id, data)); err != nil {
		e.logger.Warn("event handler failed", log.String("event", eventType), log.Error(err))
	}
}
