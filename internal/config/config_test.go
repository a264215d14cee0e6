package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/nexus/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NEXUS_CONFIG_PATH", "NEXUS_SERVER_PORT", "NEXUS_DB_DRIVER", "NEXUS_DB_PATH",
		"NEXUS_INGEST_CONCURRENCY", "NEXUS_INGEST_CALL_DELAY", "NEXUS_MERGE_RECORD_UNCHANGED",
		"NEXUS_TRANSPORT_MODE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DriverSQLite, cfg.DB.Driver)
	require.Equal(t, "data/nexus.db", cfg.DB.ResolvedPath())
	require.Equal(t, 1, cfg.Ingest.Concurrency)
	require.Equal(t, 3*time.Second, cfg.Ingest.CallDelay)
	require.Equal(t, 10*time.Second, cfg.Store.LockTimeout)
	require.True(t, cfg.Merge.RecordUnchanged)
	require.Zero(t, cfg.LLM.MaxRetries)
	require.Empty(t, cfg.Store.LockPath)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db:
  driver: json
  path: state/nexus_state.json
ingest:
  concurrency: 4
  call_delay: 500ms
merge:
  record_unchanged: false
store:
  lock_path: state/nexus.lock
`), 0o644))
	t.Setenv("NEXUS_CONFIG_PATH", path)
	t.Setenv("NEXUS_INGEST_CONCURRENCY", "2")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, config.DriverJSON, cfg.DB.Driver)
	require.Equal(t, "state/nexus_state.json", cfg.DB.Path)
	require.Equal(t, 2, cfg.Ingest.Concurrency)
	require.Equal(t, 500*time.Millisecond, cfg.Ingest.CallDelay)
	require.False(t, cfg.Merge.RecordUnchanged)
	require.Equal(t, "state/nexus.lock", cfg.Store.LockPath)
	// Fields the file leaves out keep their defaults.
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_InvalidEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXUS_SERVER_PORT", "eighty")

	_, err := config.Load()
	require.ErrorContains(t, err, "NEXUS_SERVER_PORT")
}

func TestLoad_InvalidDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXUS_DB_DRIVER", "postgres")

	_, err := config.Load()
	require.ErrorContains(t, err, "invalid db driver")
}

func TestDBConfig_ResolvedPath(t *testing.T) {
	require.Equal(t, "data/nexus_state.json", config.DBConfig{Driver: config.DriverJSON}.ResolvedPath())
	require.Equal(t, "x.db", config.DBConfig{Driver: config.DriverSQLite, Path: "x.db"}.ResolvedPath())
}

func TestLoad_RecordUnchangedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXUS_MERGE_RECORD_UNCHANGED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.False(t, cfg.Merge.RecordUnchanged)
}
