package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	require.Equal(t, "file", cfg.Store.Backend)
	require.Equal(t, 1.0, cfg.Monitor.Threshold)
	require.Equal(t, 21600, cfg.Monitor.DisableDurationSec)
	require.Equal(t, 1000, cfg.Monitor.ProbeDelayMS)
	require.Equal(t, "x-remaining-balance-usd", cfg.Probe.BalanceHeader)
	require.NoError(t, cfg.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Monitor.Provider)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	doc := `
store:
  path: /var/lib/keypulse/creds.json
monitor:
  provider: siliconflow
  threshold: 2.5
daemon:
  listen_addr: ":9090"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/keypulse/creds.json", cfg.Store.Path)
	require.Equal(t, "siliconflow", cfg.Monitor.Provider)
	require.Equal(t, 2.5, cfg.Monitor.Threshold)
	require.Equal(t, ":9090", cfg.Daemon.ListenAddr)
	// Untouched sections keep their defaults.
	require.Equal(t, "gpt-4o-mini", cfg.Probe.Model)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 2.5\n"), 0o600))

	t.Setenv("BALANCE_THRESHOLD", "7")
	t.Setenv("PROVIDER", "deepseek")
	t.Setenv("PROBE_TIMEOUT_SEC", "30")
	t.Setenv("DEBUG", "1")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 7.0, cfg.Monitor.Threshold)
	require.Equal(t, "deepseek", cfg.Monitor.Provider)
	require.Equal(t, 30, cfg.Probe.TimeoutSec)
	require.True(t, cfg.Debug)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Backend = "etcd"
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Store.Backend = "redis"
	require.Error(t, cfg.Validate()) // redis_addr missing
	cfg.Store.RedisAddr = "localhost:6379"
	require.NoError(t, cfg.Validate())

	cfg = Defaults()
	cfg.Monitor.Threshold = -1
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Store.Path = ""
	require.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Daemon.IntervalMin = 0
	require.Error(t, cfg.Validate())
}

func TestLoadRejectsZeroDaemonInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("daemon:\n  interval_min: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestExpandPaths(t *testing.T) {
	cfg := Defaults()
	cfg.Store.Path = "./data/../creds.json"
	require.NoError(t, cfg.ExpandPaths())
	require.Equal(t, "creds.json", cfg.Store.Path)

	cfg.LogFile = "~/logs/keypulse.log"
	require.NoError(t, cfg.ExpandPaths())
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(home, "logs", "keypulse.log"), cfg.LogFile)
}
