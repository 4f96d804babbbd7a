// Package config loads the process configuration: environment defaults per
// variant, a YAML file on top, then PUSHREACH_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/pushreach/internal/core/observability/log"
	"github.com/zeusync/pushreach/internal/env"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PUSHREACH_"

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Env env.Config `yaml:"env"`
	// Scene is an optional kinematic scene file. Empty uses the embedded
	// scene.
	Scene   string        `yaml:"scene"`
	Log     LogConfig     `yaml:"log"`
	Server  ServerConfig  `yaml:"server"`
	Rollout RolloutConfig `yaml:"rollout"`
}

type LogConfig struct {
	Level    string   `yaml:"level"`
	Encoding string   `yaml:"encoding"`
	Output   []string `yaml:"output"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	Path            string        `yaml:"path"`
	MaxSessions     int           `yaml:"max_sessions"`
	// MaxCheckpoints bounds the checkpoints each session keeps for
	// restore by id.
	MaxCheckpoints  int           `yaml:"max_checkpoints"`
	MaxMessageSize  int64         `yaml:"max_message_size"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type RolloutConfig struct {
	Episodes int    `yaml:"episodes"`
	Horizon  int    `yaml:"horizon"`
	Workers  int    `yaml:"workers"`
	Policy   string `yaml:"policy"`
	// Prefix is prepended to every diagnostic name.
	Prefix string `yaml:"prefix"`
}

// Default returns the configuration of a variant with no file applied.
func Default(variant env.Variant) Config {
	return Config{
		Env: env.ConfigFor(variant),
		Log: LogConfig{
			Level:    "info",
			Encoding: "json",
			Output:   []string{"stderr"},
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8765",
			Path:            "/env",
			MaxSessions:     64,
			MaxCheckpoints:  32,
			MaxMessageSize:  1 << 20,
			IdleTimeout:     5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Rollout: RolloutConfig{
			Episodes: 16,
			Horizon:  50,
			Workers:  4,
			Policy:   "reach",
		},
	}
}

// Load reads path (may be empty) and applies environment overrides. The
// variant is picked first so its defaults sit under the file's values.
func Load(path string) (Config, error) {
	var data []byte
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	return Parse(data, os.LookupEnv)
}

// Parse builds a configuration from YAML bytes and an environment lookup.
func Parse(data []byte, lookup func(string) (string, bool)) (Config, error) {
	var head struct {
		Env struct {
			Variant env.Variant `yaml:"variant"`
		} `yaml:"env"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	variant := head.Env.Variant
	if v, ok := lookup(EnvPrefix + "VARIANT"); ok {
		variant = env.Variant(v)
	}
	if variant == "" {
		variant = env.VariantBase
	}
	if variant != env.VariantBase && variant != env.VariantEasy {
		return Config{}, fmt.Errorf("%w: unknown variant %q", ErrInvalidConfig, variant)
	}

	cfg := Default(variant)
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	cfg.Env.Variant = variant

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values a process cannot run with. Task bounds are
// not checked.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch {
	case c.Env.FrameSkip <= 0:
		return fmt.Errorf("%w: frame_skip must be positive", ErrInvalidConfig)
	case c.Rollout.Horizon <= 0:
		return fmt.Errorf("%w: rollout horizon must be positive", ErrInvalidConfig)
	case c.Rollout.Episodes < 0:
		return fmt.Errorf("%w: rollout episodes must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Encode writes the configuration as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
		}
		*dst = n
		return nil
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s: %v", ErrInvalidConfig, EnvPrefix, key, err)
		}
		*dst = b
		return nil
	}

	str("SCENE", &c.Scene)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_ENCODING", &c.Log.Encoding)
	if v, ok := lookup(EnvPrefix + "LOG_OUTPUT"); ok {
		c.Log.Output = strings.Split(v, ",")
	}
	str("SERVER_ADDR", &c.Server.Addr)
	str("ROLLOUT_POLICY", &c.Rollout.Policy)

	if v, ok := lookup(EnvPrefix + "SEED"); ok {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %sSEED: %v", ErrInvalidConfig, EnvPrefix, err)
		}
		c.Env.Seed = seed
	}

	for _, err := range []error{
		integer("FRAME_SKIP", &c.Env.FrameSkip),
		integer("ROLLOUT_EPISODES", &c.Rollout.Episodes),
		integer("ROLLOUT_HORIZON", &c.Rollout.Horizon),
		integer("ROLLOUT_WORKERS", &c.Rollout.Workers),
		integer("SERVER_MAX_SESSIONS", &c.Server.MaxSessions),
		boolean("RANDOMIZE_GOALS", &c.Env.RandomizeGoals),
		boolean("FORCE_PUCK_IN_GOAL_SPACE", &c.Env.ForcePuckInGoalSpace),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
