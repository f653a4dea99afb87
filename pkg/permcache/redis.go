package permcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBackend shares cache regions between server replicas
type RedisBackend struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient parses url and verifies the connection
func NewRedisClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if poolSize > 0 {
		opts.PoolSize = poolSize
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// NewRedisBackend stores entries under "<prefix>:<region>:<key>" with the given ttl
func NewRedisBackend(client *redis.Client, prefix string, ttl time.Duration) *RedisBackend {
	if prefix == "" {
		prefix = "menuguard"
	}
	return &RedisBackend{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisBackend) key(region Region, key string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, region, key)
}

func (r *RedisBackend) Get(ctx context.Context, region Region, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.key(region, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cache entry: %w", err)
	}
	return data, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, region Region, key string, value []byte) error {
	if err := r.client.Set(ctx, r.key(region, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry: %w", err)
	}
	return nil
}

// InvalidateRegion deletes every key of the region using SCAN so large
// keyspaces are not blocked by KEYS
func (r *RedisBackend) InvalidateRegion(ctx context.Context, region Region) error {
	pattern := r.key(region, "*")
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()

	batch := make([]string, 0, 100)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete keys: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(batch) > 0 {
		if err := r.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("failed to delete keys: %w", err)
		}
	}
	return nil
}
