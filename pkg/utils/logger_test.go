package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ledger.log")

	logger, err := NewLogger(LoggerConfig{Level: "INFO", OutputPath: path, Format: "json"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("invoice created")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"invoice created"`)
	assert.Contains(t, string(data), `"logger":"ledger"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewLogger_RejectsUnknownLevel(t *testing.T) {
	_, err := NewLogger(LoggerConfig{Level: "verbose"})
	assert.Error(t, err)
}

func TestNewLogger_DefaultsToStdout(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
