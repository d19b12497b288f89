// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults live in New; Load layers file and env on top of them.
// - Keys use snake_case koanf tags; env vars use the PUGIL_ prefix.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/okian/pugil/internal/domain/engine"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorePath points the SQLite history store at a file. Empty keeps
	// score history in memory only.
	StorePath string `koanf:"store_path"`

	// StoreTTLMinutes bounds how old a persisted score record may be
	// before a load discards it as stale.
	StoreTTLMinutes int `koanf:"store_ttl_minutes"`

	// QueueSize bounds the in-memory snapshot queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of persistence workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxSessions caps concurrently open training sessions.
	MaxSessions int `koanf:"max_sessions"`

	// StreamReadLimitBytes caps a single inbound websocket message.
	StreamReadLimitBytes int64 `koanf:"stream_read_limit_bytes"`

	// Tuning overrides individual engine thresholds. Keys absent from
	// the file and env keep the engine defaults.
	Tuning engine.Tuning `koanf:"tuning"`
}

// New creates a Config populated with defaults.
func New() *Config {
	c := &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		StorePath:            "",
		StoreTTLMinutes:      30,
		QueueSize:            256,
		WorkerCount:          2,
		MaxSessions:          64,
		StreamReadLimitBytes: 65_536,
		Tuning:               engine.DefaultTuning(),
	}
	return c
}
