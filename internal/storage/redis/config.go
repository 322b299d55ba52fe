package redis

import "time"

// Config holds Redis connection and retention settings
type Config struct {
	URL string

	// KeyPrefix namespaces every key, so several bots can share a database
	KeyPrefix string

	PoolSize     int
	MinIdleConns int

	// EndedContestTTL is how long a finished or cancelled contest is kept
	// for /contest info before Redis evicts it. Zero keeps it forever.
	EndedContestTTL time.Duration

	DialTimeout time.Duration
}

// DefaultConfig returns defaults for a single bot on a local Redis
func DefaultConfig() Config {
	return Config{
		URL:             "redis://localhost:6379",
		KeyPrefix:       "linkbot",
		PoolSize:        10,
		MinIdleConns:    2,
		EndedContestTTL: 30 * 24 * time.Hour,
		DialTimeout:     5 * time.Second,
	}
}
