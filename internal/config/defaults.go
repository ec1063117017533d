package config

import "keypulse-go/internal/constants"

// Defaults returns the baseline configuration before file and environment
// merging.
func Defaults() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   "file",
			Path:      "./data/credentials.json",
			StateFile: "./data/keypulse-state.json",
			RedisKey:  "keypulse:credentials",
		},
		Probe: ProbeConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			TimeoutSec:     int(constants.DefaultProbeTimeout.Seconds()),
			BalanceHeader:  "x-remaining-balance-usd",
			FallbackHeader: "x-remaining-balance",
		},
		Monitor: MonitorConfig{
			Provider:           "openai",
			Threshold:          1.0,
			DisableDurationSec: int(constants.DefaultDisableDuration.Seconds()),
			ProbeDelayMS:       int(constants.DefaultProbeDelay.Milliseconds()),
		},
		Daemon: DaemonConfig{
			ListenAddr:  ":8085",
			IntervalMin: 60,
		},
	}
}
