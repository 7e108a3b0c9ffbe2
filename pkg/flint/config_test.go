package flint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	t.Run("empty uses defaults", func(t *testing.T) {
		cfg, err := ParseConfig(nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("overrides", func(t *testing.T) {
		cfg, err := ParseConfig([]byte(`
log_level: debug
log_format: json
snapshots:
  backend: Badger
  path: /var/lib/flint
  sync_writes: false
  compress: false
  gc_interval: 30s
`))
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, BackendBadger, cfg.Snapshots.Backend)
		assert.Equal(t, "/var/lib/flint", cfg.Snapshots.Path)
		assert.False(t, cfg.Snapshots.SyncWrites)
		assert.False(t, cfg.Snapshots.Compress)
		assert.Equal(t, 30*time.Second, cfg.Snapshots.GCInterval)
	})

	t.Run("partial keeps defaults", func(t *testing.T) {
		cfg, err := ParseConfig([]byte("log_level: error\n"))
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)
		assert.Equal(t, BackendMemory, cfg.Snapshots.Backend)
		assert.True(t, cfg.Snapshots.Compress)
	})

	bad := map[string]string{
		"unknown key":       "log_lvl: debug\n",
		"unknown backend":   "snapshots:\n  backend: s3\n",
		"badger needs path": "snapshots:\n  backend: badger\n",
		"bad log format":    "log_format: xml\n",
		"negative gc":       "snapshots:\n  gc_interval: -1s\n",
		"not a mapping":     "- a\n- b\n",
		"bad duration":      "snapshots:\n  gc_interval: soon\n",
	}
	for name, in := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(in))
			require.Error(t, err)
			assert.Equal(t, FLINT_MISUSE, ErrorCodeOf(err))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flint.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshots:\n  backend: badger\n  path: \":memory:\"\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, MemoryPath, cfg.Snapshots.Path)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.True(t, IsErrorCode(err, FLINT_MISUSE))
}

func TestOpenInMemoryBadger(t *testing.T) {
	cfg := testConfig()
	cfg.Snapshots.Backend = BackendBadger
	cfg.Snapshots.Path = MemoryPath
	e, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, e.Close())
}
