// Package cache provides the key-value stores behind session revocation and
// the extraction cache.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/mai-recap/pkg/config"
)

// Store is a string key-value store with per-key expiry
type Store interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get reports false for a missing or expired key
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// New builds the store selected by CACHE_DRIVER
func New(ctx context.Context, cfg *config.RedisConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "redis", "":
		client := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
