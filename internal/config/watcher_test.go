package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, path string) chan *Config {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	reloaded := make(chan *Config, 8)
	require.NoError(t, Watch(ctx, path, func(cfg *Config) {
		reloaded <- cfg
	}))
	return reloaded
}

// awaitReload drains reloads until match accepts one. A single file change
// can surface as several fsnotify events, so intermediate reloads are
// expected noise.
func awaitReload(t *testing.T, reloaded chan *Config, match func(*Config) bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case cfg := <-reloaded:
			if match(cfg) {
				return
			}
		case <-deadline:
			t.Fatal("expected config change not observed")
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 1\n"), 0o600))

	reloaded := startWatch(t, path)

	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 3.5\n"), 0o600))

	awaitReload(t, reloaded, func(cfg *Config) bool {
		return cfg.Monitor.Threshold == 3.5
	})
}

// Editors commonly replace a file by renaming a temp copy over it. The
// watcher follows the path, not the inode, so this must still reload.
func TestWatchSurvivesRenameReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 1\n"), 0o600))

	reloaded := startWatch(t, path)

	tmp := filepath.Join(dir, "keypulse.yaml.swap")
	require.NoError(t, os.WriteFile(tmp, []byte("monitor:\n  provider: deepseek\n"), 0o600))
	require.NoError(t, os.Rename(tmp, path))

	awaitReload(t, reloaded, func(cfg *Config) bool {
		return cfg.Monitor.Provider == "deepseek"
	})
}

func TestWatchKeepsRunningAfterInvalidReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 1\n"), 0o600))

	reloaded := startWatch(t, path)

	// A broken edit is skipped, not delivered.
	require.NoError(t, os.WriteFile(path, []byte("store: [unclosed"), 0o600))
	// A follow-up fix lands normally.
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 9\n"), 0o600))

	awaitReload(t, reloaded, func(cfg *Config) bool {
		return cfg.Monitor.Threshold == 9
	})
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "keypulse.yaml")
	require.NoError(t, os.WriteFile(path, []byte("monitor:\n  threshold: 1\n"), 0o600))

	reloaded := startWatch(t, path)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0o600))

	select {
	case <-reloaded:
		t.Fatal("reload fired for an unrelated file")
	case <-time.After(300 * time.Millisecond):
	}
}
