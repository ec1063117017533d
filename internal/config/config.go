package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds all runtime configuration for the monitor, layered as
// defaults -> config file -> environment variables. The most specific
// layer wins.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Probe   ProbeConfig   `yaml:"probe"`
	Monitor MonitorConfig `yaml:"monitor"`
	Daemon  DaemonConfig  `yaml:"daemon"`

	Debug   bool   `yaml:"debug"`
	LogFile string `yaml:"log_file"`
}

// StoreConfig selects and parameterizes the credential store backend.
type StoreConfig struct {
	// Backend is "file" or "redis".
	Backend string `yaml:"backend"`

	// Path is the shared credential store document (file backend).
	Path string `yaml:"path"`

	// StateFile receives the last-run summary snapshot.
	StateFile string `yaml:"state_file"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// ProbeConfig describes the upstream billing probe.
type ProbeConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`

	TimeoutSec int `yaml:"timeout_sec"`

	// BalanceHeader is the USD-denominated balance header; FallbackHeader
	// is the legacy unqualified variant some deployments still send. Both
	// are compared against the same threshold, matching upstream behavior.
	BalanceHeader  string `yaml:"balance_header"`
	FallbackHeader string `yaml:"fallback_header"`
}

// MonitorConfig controls classification and state transitions.
type MonitorConfig struct {
	// Provider filters the store to one provider namespace.
	Provider string `yaml:"provider"`

	// Threshold is the balance below which a key counts as depleted
	// (strict less-than).
	Threshold float64 `yaml:"threshold"`

	DisableDurationSec int `yaml:"disable_duration_sec"`
	ProbeDelayMS       int `yaml:"probe_delay_ms"`
}

// DaemonConfig applies only when running with --daemon.
type DaemonConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	IntervalMin int    `yaml:"interval_min"`
}

// Load builds the configuration from defaults, the optional YAML file at
// configPath, and environment variable overrides, in that order.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if configPath != "" {
		if err := cfg.mergeFile(configPath); err != nil {
			return nil, err
		}
	}
	cfg.mergeEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the handful of invariants the monitor relies on.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must be set for the file backend")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr must be set for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported store backend %q", c.Store.Backend)
	}
	if c.Monitor.Threshold < 0 {
		return fmt.Errorf("monitor.threshold must not be negative")
	}
	if c.Probe.Endpoint == "" {
		return fmt.Errorf("probe.endpoint must be set")
	}
	if c.Daemon.IntervalMin <= 0 {
		return fmt.Errorf("daemon.interval_min must be positive")
	}
	return nil
}

// ExpandPaths resolves ~ and relative segments in file paths so later
// components can use them verbatim.
func (c *Config) ExpandPaths() error {
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return err
	}
	if c.Store.StateFile, err = expandPath(c.Store.StateFile); err != nil {
		return err
	}
	if c.LogFile, err = expandPath(c.LogFile); err != nil {
		return err
	}
	return nil
}

func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expand %q: %w", p, err)
		}
		p = filepath.Join(home, p[1:])
	}
	return filepath.Clean(p), nil
}
