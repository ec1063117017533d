package constants

import "time"

const (
	// DefaultProbeTimeout bounds a single balance probe; a probe that
	// exceeds it is recorded as unknown, never retried.
	DefaultProbeTimeout = 15 * time.Second

	// DefaultProbeDelay is the enforced minimum gap between probes.
	DefaultProbeDelay = 1 * time.Second

	// DefaultDisableDuration is how long a depleted key stays disabled
	// before the external scheduler gives it another chance.
	DefaultDisableDuration = 6 * time.Hour

	ServerShutdownTimeout = 10 * time.Second
	ServerGracefulWait    = 500 * time.Millisecond
)
