package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/pushreach/internal/env"
)

func lookupFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(nil, lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, env.VariantBase, cfg.Env.Variant)
	assert.Equal(t, 50, cfg.Env.FrameSkip)
	assert.Equal(t, 0.02, cfg.Env.PosActionScale)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5*time.Minute, cfg.Server.IdleTimeout)
}

func TestEasyVariantFromFile(t *testing.T) {
	data := []byte(`
env:
  variant: easy
  force_puck_in_goal_space: true
rollout:
  episodes: 3
`)
	cfg, err := Parse(data, lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, env.VariantEasy, cfg.Env.Variant)
	assert.Equal(t, [3]float64{-0.2, 0.5, -math.Pi}, cfg.Env.PuckGoalLow)
	assert.True(t, cfg.Env.ForcePuckInGoalSpace)
	assert.Equal(t, 3, cfg.Rollout.Episodes)
	assert.Equal(t, 50, cfg.Rollout.Horizon)
}

func TestEnvironmentOverrides(t *testing.T) {
	data := []byte("log:\n  level: debug\n")
	cfg, err := Parse(data, lookupFrom(map[string]string{
		"PUSHREACH_VARIANT":         "easy",
		"PUSHREACH_SEED":            "99",
		"PUSHREACH_LOG_LEVEL":       "warn",
		"PUSHREACH_ROLLOUT_WORKERS": "2",
		"PUSHREACH_RANDOMIZE_GOALS": "false",
		"PUSHREACH_SERVER_ADDR":     ":9000",
		"PUSHREACH_LOG_OUTPUT":      "stdout,/tmp/x.log",
	}))
	require.NoError(t, err)
	assert.Equal(t, env.VariantEasy, cfg.Env.Variant)
	assert.Equal(t, uint64(99), cfg.Env.Seed)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 2, cfg.Rollout.Workers)
	assert.False(t, cfg.Env.RandomizeGoals)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, []string{"stdout", "/tmp/x.log"}, cfg.Log.Output)
}

func TestInvalidInputs(t *testing.T) {
	cases := map[string]struct {
		data []byte
		env  map[string]string
	}{
		"unknown field":   {data: []byte("env:\n  nope: 1\n")},
		"unknown variant": {data: []byte("env:\n  variant: hard\n")},
		"bad level":       {env: map[string]string{"PUSHREACH_LOG_LEVEL": "loud"}},
		"bad int":         {env: map[string]string{"PUSHREACH_ROLLOUT_HORIZON": "ten"}},
		"zero horizon":    {env: map[string]string{"PUSHREACH_ROLLOUT_HORIZON": "0"}},
		"bad seed":        {env: map[string]string{"PUSHREACH_SEED": "-1"}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(tc.data, lookupFrom(tc.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadFileAndEncode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pushreach.yaml")
	require.NoError(t, os.WriteFile(path, []byte("env:\n  frame_skip: 20\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Env.FrameSkip)

	var buf bytes.Buffer
	require.NoError(t, cfg.Encode(&buf))
	again, err := Parse(buf.Bytes(), lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, cfg, again)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSampleFileMatchesDefaults(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "configs", "pushreach.yaml"))
	require.NoError(t, err)

	cfg, err := Parse(data, lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(env.VariantBase), cfg)
}
