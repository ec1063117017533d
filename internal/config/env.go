package config

import (
	"os"
	"strconv"
	"strings"
)

func (c *Config) mergeEnv() {
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("STATE_FILE"); v != "" {
		c.Store.StateFile = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Store.RedisPassword = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.RedisDB = n
		}
	}
	if v := os.Getenv("REDIS_KEY"); v != "" {
		c.Store.RedisKey = v
	}
	if v := os.Getenv("PROBE_ENDPOINT"); v != "" {
		c.Probe.Endpoint = v
	}
	if v := os.Getenv("PROBE_MODEL"); v != "" {
		c.Probe.Model = v
	}
	if v := os.Getenv("PROBE_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Probe.TimeoutSec = n
		}
	}
	if v := os.Getenv("BALANCE_HEADER"); v != "" {
		c.Probe.BalanceHeader = v
	}
	if v := os.Getenv("BALANCE_FALLBACK_HEADER"); v != "" {
		c.Probe.FallbackHeader = v
	}
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Monitor.Provider = v
	}
	if v := os.Getenv("BALANCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Monitor.Threshold = f
		}
	}
	if v := os.Getenv("DISABLE_DURATION_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Monitor.DisableDurationSec = n
		}
	}
	if v := os.Getenv("PROBE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Monitor.ProbeDelayMS = n
		}
	}
	if v := os.Getenv("DAEMON_LISTEN_ADDR"); v != "" {
		c.Daemon.ListenAddr = v
	}
	if v := os.Getenv("DAEMON_INTERVAL_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Daemon.IntervalMin = n
		}
	}
	if v := os.Getenv("DEBUG"); v == "true" || v == "1" {
		c.Debug = true
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.LogFile = v
	}
}
