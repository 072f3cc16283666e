package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "maintenanced.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `version: "1"
maintenance_threads_max: 4
seconds_actions_block: 30
grace_window_seconds: 3600
log:
  level: debug
  json: true
plugins:
  - name: TestActionBasic
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.MaintenanceThreadsMax)
	require.Equal(t, 30, cfg.SecondsActionsBlock)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Plugins, 1)
	require.Equal(t, "TestActionBasic", cfg.Plugins[0].Name)
}

func TestLoadRejectsNegativeThreadCount(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `version: "1"
maintenance_threads_max: -1
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `version: "1"
log:
  level: verbose
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, Validate(Default()))
}
