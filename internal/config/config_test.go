package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "data/ledger.db", cfg.Database.Path)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.False(t, cfg.Ledger.StrictStatusTransitions)
	assert.Equal(t, time.Hour, cfg.Worker.OverduePollInterval)
	assert.Equal(t, 100, cfg.Worker.OverdueBatchSize)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
database:
  path: /tmp/ledger-test.db
cache:
  ttl: 30s
  max_entries: 10
ledger:
  strict_status_transitions: true
worker:
  overdue_enabled: false
logger:
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/ledger-test.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Cache.MaxEntries)
	assert.True(t, cfg.Ledger.StrictStatusTransitions)
	assert.False(t, cfg.Worker.OverdueEnabled)
	assert.Equal(t, "console", cfg.Logger.Format)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("LEDGER_DB_PATH", "from-env.db")
	t.Setenv("LEDGER_CACHE_MAX_ENTRIES", "42")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, 42, cfg.Cache.MaxEntries)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty database path", "database:\n  path: \"\"\n"},
		{"bad port", "server:\n  port: 70000\n"},
		{"zero cache ttl", "cache:\n  ttl: 0s\n"},
		{"unknown log format", "logger:\n  format: xml\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Ledger.StrictStatusTransitions = true

	cc := cfg.ToContainerConfig()
	require.NoError(t, cc.Validate())
	assert.Equal(t, cfg.Database.Path, cc.Database.Path)
	assert.True(t, cc.Ledger.StrictStatusTransitions)
	assert.Equal(t, cfg.Worker.OverdueBatchSize, cc.Worker.OverdueBatchSize)
	assert.Equal(t, "json", cfg.ToLoggerConfig().Format)
}
