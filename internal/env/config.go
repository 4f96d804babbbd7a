package env

import "math"

// Variant selects default bounds and the initial puck sampler.
type Variant string

const (
	// VariantBase samples the initial puck xy inside the init block bounds.
	VariantBase Variant = "base"
	// VariantEasy always starts the puck at (0, 0.6) and widens the puck
	// goal space to 40x20cm.
	VariantEasy Variant = "easy"
)

// BodyNames are the scene bodies the adapter reads and writes.
type BodyNames struct {
	EndEffector string `yaml:"end_effector"`
	Puck        string `yaml:"puck"`
	PuckGoal    string `yaml:"puck_goal"`
	HandGoal    string `yaml:"hand_goal"`
}

// Layout holds the first qpos/qvel addresses of the free joints the adapter
// writes directly. A free joint spans 7 qpos slots (pos, quat) and 6 qvel
// slots (linear, angular).
type Layout struct {
	PuckQPos     int `yaml:"puck_qpos"`
	PuckQVel     int `yaml:"puck_qvel"`
	HandGoalQPos int `yaml:"hand_goal_qpos"`
	HandGoalQVel int `yaml:"hand_goal_qvel"`
	PuckGoalQPos int `yaml:"puck_goal_qpos"`
	PuckGoalQVel int `yaml:"puck_goal_qvel"`
}

// Config holds every tunable of the push-and-reach task. Bounds are not
// validated; low > high is the caller's problem.
type Config struct {
	Variant        Variant `yaml:"variant"`
	FrameSkip      int     `yaml:"frame_skip"`
	PosActionScale float64 `yaml:"pos_action_scale"`
	RandomizeGoals bool    `yaml:"randomize_goals"`
	// Seed of 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`

	InitPuckLow  [2]float64 `yaml:"init_puck_low"`
	InitPuckHigh [2]float64 `yaml:"init_puck_high"`
	// EasyPuckXY is where the easy variant always places the puck.
	EasyPuckXY [2]float64 `yaml:"easy_puck_xy"`

	// Puck goal bounds are (x, y, theta); theta bounds only matter for
	// clipping and SampleGoals.
	PuckGoalLow   [3]float64 `yaml:"puck_goal_low"`
	PuckGoalHigh  [3]float64 `yaml:"puck_goal_high"`
	HandGoalLow   [2]float64 `yaml:"hand_goal_low"`
	HandGoalHigh  [2]float64 `yaml:"hand_goal_high"`
	FixedPuckGoal [3]float64 `yaml:"fixed_puck_goal"`
	FixedHandGoal [2]float64 `yaml:"fixed_hand_goal"`

	MocapLow  [3]float64 `yaml:"mocap_low"`
	MocapHigh [3]float64 `yaml:"mocap_high"`
	// MocapQuat is written with every mocap update, in (w, x, y, z).
	MocapQuat [4]float64 `yaml:"mocap_quat"`

	ForcePuckInGoalSpace bool `yaml:"force_puck_in_goal_space"`

	TargetHandHeight float64 `yaml:"target_hand_height"`
	PuckHeight       float64 `yaml:"puck_height"`
	GoalMarkerHeight float64 `yaml:"goal_marker_height"`
	HandTargetHeight float64 `yaml:"hand_target_height"`
	SuccessThreshold float64 `yaml:"success_threshold"`

	InitHandPos      [3]float64 `yaml:"init_hand_pos"`
	InitQPos         []float64  `yaml:"init_qpos"`
	ResetSettleSteps int        `yaml:"reset_settle_steps"`
	HandTargetSteps  int        `yaml:"hand_target_steps"`

	Bodies BodyNames `yaml:"bodies"`
	Layout Layout    `yaml:"layout"`
}

// canonicalQPos is the arm, puck and goal-marker configuration restored on
// every reset.
var canonicalQPos = [28]float64{
	1.78026069e+00, -6.84415781e-01, -1.54549231e-01,
	2.30672090e+00, 1.93111471e+00, 1.27854012e-01,
	1.49353907e+00, 1.80196716e-03, 7.40415706e-01,
	2.09895360e-02, 1, 0,
	0, 0, -3.62518873e-02,
	6.13435141e-01, 2.09686080e-02, 7.07106781e-01,
	1.48979724e-14, 7.07106781e-01, -1.48999170e-14,
	0, 0.6, 0.02,
	1, 0, 1, 0,
}

// CanonicalQPos returns a copy of the reset joint configuration.
func CanonicalQPos() []float64 {
	out := make([]float64, len(canonicalQPos))
	copy(out, canonicalQPos[:])
	return out
}

// DefaultConfig returns the base variant configuration.
func DefaultConfig() Config {
	return Config{
		Variant:        VariantBase,
		FrameSkip:      50,
		PosActionScale: 2.0 / 100,
		RandomizeGoals: true,

		InitPuckLow:  [2]float64{-0.05, 0.55},
		InitPuckHigh: [2]float64{0.05, 0.65},
		EasyPuckXY:   [2]float64{0, 0.6},

		PuckGoalLow:   [3]float64{-0.05, 0.55, -0.2},
		PuckGoalHigh:  [3]float64{0.05, 0.65, 0.2},
		HandGoalLow:   [2]float64{-0.05, 0.55},
		HandGoalHigh:  [2]float64{0.05, 0.65},
		FixedPuckGoal: [3]float64{0.05, 0.6, 0},
		FixedHandGoal: [2]float64{-0.05, 0.6},

		MocapLow:  [3]float64{-0.1, 0.5, 0.0},
		MocapHigh: [3]float64{0.1, 0.7, 0.5},
		MocapQuat: [4]float64{1, 0, 1, 0},

		TargetHandHeight: 0.06,
		PuckHeight:       0.02,
		GoalMarkerHeight: 0.02,
		HandTargetHeight: 0.02,
		SuccessThreshold: 0.06,

		InitHandPos:      [3]float64{0, 0.4, 0.02},
		InitQPos:         CanonicalQPos(),
		ResetSettleSteps: 10,
		HandTargetSteps:  10,

		Bodies: BodyNames{
			EndEffector: "leftclaw",
			Puck:        "puck",
			PuckGoal:    "puck-goal",
			HandGoal:    "hand-goal",
		},
		Layout: Layout{
			PuckQPos:     7,
			PuckQVel:     7,
			HandGoalQPos: 14,
			HandGoalQVel: 13,
			PuckGoalQPos: 21,
			PuckGoalQVel: 19,
		},
	}
}

// EasyConfig returns the easy variant: fixed initial puck position and a
// 40x20cm puck goal space.
func EasyConfig() Config {
	c := DefaultConfig()
	c.Variant = VariantEasy
	c.PuckGoalLow = [3]float64{-0.2, 0.5, -math.Pi}
	c.PuckGoalHigh = [3]float64{0.2, 0.7, math.Pi}
	return c
}

// ConfigFor returns the defaults of a variant. Unknown variants get the
// base defaults.
func ConfigFor(v Variant) Config {
	if v == VariantEasy {
		return EasyConfig()
	}
	return DefaultConfig()
}
