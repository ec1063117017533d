package constants

import "time"

// HTTP transport settings for the probe client. The monitor issues one
// request per credential sequentially, so the pool stays tiny.
const (
	DefaultDialTimeout           = 10 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultResponseHeaderTimeout = 30 * time.Second
	DefaultKeepAlive             = 30 * time.Second

	ProbeMaxIdleConns    = 4
	ProbeIdleConnTimeout = 90 * time.Second
)
