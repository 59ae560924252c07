package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/prompt-general/ticketflow/internal/config"
)

// RedisCache stores JSON-encoded values under a shared key prefix.
// Misses are reported as (false, nil) so callers can distinguish a
// cold key from a broken backend.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:        20,
		MinIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,

		MaxRetries:      3,
		MinRetryBackoff: 8 * time.Millisecond,
		MaxRetryBackoff: 512 * time.Millisecond,
	})

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "ticketflow"
	}

	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (rc *RedisCache) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	fullKey := rc.prefix + ":" + key

	data, err := rc.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed: %v", err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached data: %v", err)
	}

	return true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	fullKey := rc.prefix + ":" + key

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %v", err)
	}

	if ttl == 0 {
		ttl = rc.ttl
	}

	if err := rc.client.Set(ctx, fullKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %v", err)
	}

	return nil
}

func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	fullKey := rc.prefix + ":" + key
	return rc.client.Del(ctx, fullKey).Err()
}

func (rc *RedisCache) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
