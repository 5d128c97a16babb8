package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() { Logger = zap.NewNop() })
}

func TestInit_WritesToFile(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "logs", "taskman.log")

	require.NoError(t, Init("debug", path, false))
	Debug("debug line", zap.String("k", "v"))
	Error("failed", errors.New("boom"))
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "debug line")
	assert.Contains(t, string(data), `"error":"boom"`)
}

func TestInit_LevelFilters(t *testing.T) {
	resetLogger(t)
	path := filepath.Join(t.TempDir(), "taskman.log")

	require.NoError(t, Init("warn", path, false))
	Info("hidden")
	Warn("shown")
	Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestInit_EmptyPathDisables(t *testing.T) {
	resetLogger(t)
	require.NoError(t, Init("info", "", false))
	Info("nowhere")
}

func TestInit_BadLevel(t *testing.T) {
	resetLogger(t)
	err := Init("loud", filepath.Join(t.TempDir(), "x.log"), false)
	assert.Error(t, err)
}
