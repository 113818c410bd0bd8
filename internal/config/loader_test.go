package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Database.Path)
	assert.Contains(t, cfg.Database.Path, ".byod_backtesting")
	assert.Equal(t, "UNKNOWN", cfg.Import.DefaultSymbol)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	contents := "database:\n  path: /tmp/custom.db\nimport:\n  default_symbol: SPY\nlogging:\n  level: debug\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Database.Path)
	assert.Equal(t, "SPY", cfg.Import.DefaultSymbol)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("logging:\n  level: warn\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "UNKNOWN", cfg.Import.DefaultSymbol)
	assert.Contains(t, cfg.Database.Path, ".byod_backtesting")
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("BYOD_DATABASE_PATH", "/tmp/env.db")
	t.Setenv("BYOD_LOGGING_LEVEL", "error")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestLoadEnvironmentBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"),
		[]byte("database:\n  path: /tmp/file.db\n"), 0o644))
	t.Setenv("BYOD_DATABASE_PATH", "/tmp/env.db")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
}
