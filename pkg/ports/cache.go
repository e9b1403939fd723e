package ports

import (
	"context"
	"time"
)

// Cache is a key-value store with per-entry expiration, used to memoize view data.
type Cache interface {
	// Get returns the stored value or domain.ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
