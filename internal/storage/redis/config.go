package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// KeyPrefix namespaces every ledger key in the shared keyspace
	KeyPrefix string

	// MaxRetries bounds optimistic transaction retries after a WATCH conflict
	MaxRetries int

	// Backoff between retries grows from MinRetryBackoff up to MaxRetryBackoff, with jitter
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		KeyPrefix:    "gamepoints:",
		MaxRetries:   16,

		MinRetryBackoff: 2 * time.Millisecond,
		MaxRetryBackoff: 250 * time.Millisecond,
	}
}
