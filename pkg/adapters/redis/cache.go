package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/relview/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Cache implements ports.Cache using Redis string keys with expiry.
type Cache struct {
	client *backend.Client
	prefix string
}

// NewCache creates a cache whose keys are prefixed with prefix.
func NewCache(client *backend.Client, prefix string) *Cache {
	if prefix == "" {
		prefix = "relview:memo:"
	}
	return &Cache{client: client, prefix: prefix}
}

// Get returns the cached value or domain.ErrCacheMiss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, nil
}

// Set stores value with the given ttl (0 means no expiration).
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}
