package log

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"error":   LevelError,
		"off":     LevelSilent,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger := NewWithOptions(LevelDebug, Options{OutputPaths: []string{path}})

	logger.With(String("component", "env")).Info("episode reset",
		Int("step", 3),
		Float64("reward", -0.25),
		Float64s("goal", []float64{0.1, 0.2}),
		Duration("elapsed", time.Millisecond),
		Bool("success", false),
		Error(errors.New("boom")),
	)
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	for _, want := range []string{`"msg":"episode reset"`, `"component":"env"`, `"step":3`, `"error":"boom"`} {
		assert.True(t, strings.Contains(out, want), "missing %s in %s", want, out)
	}
}

func TestSetLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger := NewWithOptions(LevelInfo, Options{OutputPaths: []string{path}})
	logger.SetLevel(LevelError)
	assert.Equal(t, LevelError, logger.GetLevel())

	logger.Info("hidden")
	logger.Log(LevelWarn, "hidden too")
	logger.Error("shown")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestNopLogger(t *testing.T) {
	l := NewNop()
	l.Info("nothing")
	assert.NotNil(t, l.With(String("k", "v")))
}
