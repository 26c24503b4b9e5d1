package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "cadence.db", filepath.Base(cfg.DatabasePath))
	assert.Equal(t, 7, cfg.HorizonDays)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"database_path: tasks.db\ntimezone: America/New_York\nhorizon_days: 14\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Relative database path resolves against the config file's directory.
	assert.Equal(t, filepath.Join(dir, "tasks.db"), cfg.DatabasePath)
	assert.Equal(t, 14, cfg.HorizonDays)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoad_PartialFileFillsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timezone: UTC\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cadence.db"), cfg.DatabasePath)
	assert.Equal(t, 7, cfg.HorizonDays)
}

func TestLoad_BadInput(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("database_path: [\n"), 0o644))
	_, err := Load(badYAML)
	assert.Error(t, err)

	badZone := filepath.Join(dir, "zone.yaml")
	require.NoError(t, os.WriteFile(badZone, []byte("timezone: Mars/Olympus\n"), 0o644))
	_, err = Load(badZone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mars/Olympus")
}
