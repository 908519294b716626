package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.Equal(t, 100, cfg.Sync.BatchSize)
	require.Equal(t, 30, cfg.Sync.TimeoutSeconds)
	require.Equal(t, 30*time.Second, cfg.Sync.PollInterval)
	require.Equal(t, 2*time.Minute, cfg.Sync.MaxBackoff)
	require.Equal(t, "series", cfg.UI.DefaultIndex)
	require.False(t, cfg.IsConfigured())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  url: http://comics.local:7171/
  token: abc
sync:
  batch_size: 250
  poll_interval: 1m
  poll_jitter: 3
cache:
  dir: ""
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://comics.local:7171", cfg.Server.URL)
	require.True(t, cfg.IsConfigured())
	require.Equal(t, 250, cfg.Sync.BatchSize)
	require.Equal(t, time.Minute, cfg.Sync.PollInterval)
	require.Equal(t, 0.2, cfg.Sync.PollJitter)
	require.Empty(t, cfg.Cache.Dir)
	require.Equal(t, path, cfg.Path())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LONGBOX_SYNC_BATCH_SIZE", "7")
	t.Setenv("LONGBOX_SERVER_TOKEN", "from-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)

	require.Equal(t, 7, cfg.Sync.BatchSize)
	require.Equal(t, "from-env", cfg.Server.Token)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.Server.URL = "https://comics.example.com"
	cfg.Server.Token = "tok"
	cfg.Sync.PollInterval = 45 * time.Second
	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://comics.example.com", loaded.Server.URL)
	require.Equal(t, "tok", loaded.Server.Token)
	require.Equal(t, 45*time.Second, loaded.Sync.PollInterval)

	require.NoError(t, loaded.ClearServerConfig())
	cleared, err := Load(path)
	require.NoError(t, err)
	require.False(t, cleared.IsConfigured())
	require.Equal(t, 45*time.Second, cleared.Sync.PollInterval)
}

func TestClearCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "abc"), 0755))

	cfg := DefaultConfig()
	cfg.Cache.Dir = dir
	require.NoError(t, cfg.ClearCache())

	_, err := os.Stat(dir)
	require.True(t, os.IsNotExist(err))
}
