package ratelimit

import (
	"context"
	"time"
)

// Store is the shared counter store behind the limiter. Implementations must
// make Increment atomic across concurrent callers for the same key; a
// read-then-write counter would let concurrent requests bypass the quota.
type Store interface {
	// Increment atomically increments the counter at key, setting it to
	// expire after ttl on first write, and returns the new count.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store connection.
	Close() error
}
