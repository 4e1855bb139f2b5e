package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Mishael-2584/odel-portal/domain"
)

// RedisCache implements domain.Cache on a shared Redis instance, for
// deployments that want cache coherence across portal instances. Values are
// stored as JSON; Get returns json.RawMessage for the caller to decode.
// Expiry is delegated to Redis key TTLs, so stale-read eviction is implicit.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    zerolog.Logger
}

// NewRedisCache creates a Redis-backed cache with the given default TTL.
func NewRedisCache(client *redis.Client, defaultTTL time.Duration, log zerolog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		prefix: "odelcache:",
		ttl:    defaultTTL,
		log:    log,
	}
}

// Get returns the raw JSON payload for key, or a miss. Redis errors are
// logged and reported as misses so an unavailable cache never breaks a read
// path.
func (c *RedisCache) Get(ctx context.Context, key string) (any, bool) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		return nil, false
	}
	return json.RawMessage(data), true
}

// Set stores value as JSON under key with the default or overridden TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl ...time.Duration) {
	d := c.ttl
	if len(ttl) > 0 {
		d = ttl[0]
	}
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.prefix+key, data, d).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// Clear drops every entry under the cache prefix.
func (c *RedisCache) Clear(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Warn().Err(err).Msg("cache clear scan failed")
		return
	}
	if len(keys) > 0 {
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			c.log.Warn().Err(err).Msg("cache clear failed")
		}
	}
}

var _ domain.Cache = (*RedisCache)(nil)
