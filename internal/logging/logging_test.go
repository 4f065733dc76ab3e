package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sadopc/habitask/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	logger, err := New(config.LogConfig{File: path, Level: "info"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("task completed", zap.Int64("task_id", 42))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "task completed")
	assert.Contains(t, string(data), `"task_id":42`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewDevelopmentDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dev.log")
	logger, err := New(config.LogConfig{File: path, Level: "debug", Development: true})
	require.NoError(t, err)

	logger.Debug("visible")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(config.LogConfig{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)

	_, err = New(config.LogConfig{Level: "info"})
	assert.Error(t, err)
}

func TestNewOrNopFallsBack(t *testing.T) {
	logger := NewOrNop(config.LogConfig{Level: "loud"})
	require.NotNil(t, logger)
	logger.Info("goes nowhere")
}
