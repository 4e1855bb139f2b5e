package database

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedis creates the Redis client used by the shared response cache
// backend.
func NewRedis(addr, pass string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})
}

// Ping verifies the Redis connection at startup.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
