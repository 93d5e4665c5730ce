package atelier

import "time"

// Config holds configuration for the Atelier coordinator.
type Config struct {
	// StageTimeout is the maximum wall-clock time a single stage may run.
	// A stage exceeding it fails the project. Zero disables the timeout.
	StageTimeout time.Duration

	// EvictAfter is how long a terminal (completed or errored) project is
	// retained before the janitor may evict it. Zero retains projects for
	// the lifetime of the process.
	EvictAfter time.Duration

	// EvictSchedule is the cron expression driving the janitor sweep.
	// Supports standard 5-field cron and descriptors like "@every 1m".
	// Ignored when EvictAfter is zero.
	EvictSchedule string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		StageTimeout:    2 * time.Minute,
		EvictAfter:      0, // retain forever
		EvictSchedule:   "@every 1m",
		ShutdownTimeout: 30 * time.Second,
	}
}
