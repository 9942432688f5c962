package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	PG PGConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// Boot guardrails. Zero values fall back to 20 attempts with a 3s
	// per-ping timeout, roughly a minute of capped exponential backoff.
	ConnectRetries int
	PingTimeout    time.Duration
}
