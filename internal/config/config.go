// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; file and env layers override them in Load.
// - Struct fields carry koanf tags matching the flat env key names.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory run queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of ranking workers.
	WorkerCount int `koanf:"worker_count"`

	// HistoryLimit bounds how many runs the store retains.
	HistoryLimit int `koanf:"history_limit"`

	// SubmitCacheSize bounds the submission idempotency cache.
	SubmitCacheSize int `koanf:"submit_cache_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxBatchSize caps the number of competitors per submitted run.
	MaxBatchSize int `koanf:"max_batch_size"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		HistoryLimit:        100,
		SubmitCacheSize:     50_000,
		MaxLeaderboardLimit: 500,
		MaxBatchSize:        5_000,
	}
}
