// Package cache provides tile cache adapters.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jobrunner/tessera/internal/domain"
)

// keyPrefix namespaces all tile keys so the cache can share a Redis
// database with other applications.
const keyPrefix = "tessera:tile:"

// RedisCache implements the TileCache port backed by Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisConfig holds Redis cache configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache creates a new Redis tile cache and verifies the
// connection with a ping.
func NewRedisCache(ctx context.Context, cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

// Get returns the cached tile bytes, and whether the tile was found.
func (c *RedisCache) Get(ctx context.Context, datasetID string, coord domain.TileCoord) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, tileKey(datasetID, coord)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the encoded tile bytes under the configured TTL.
func (c *RedisCache) Set(ctx context.Context, datasetID string, coord domain.TileCoord, data []byte) error {
	return c.client.Set(ctx, tileKey(datasetID, coord), data, c.ttl).Err()
}

// InvalidateDataset removes all cached tiles of a dataset.
func (c *RedisCache) InvalidateDataset(ctx context.Context, datasetID string) error {
	pattern := keyPrefix + datasetID + ":*"

	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// tileKey builds the Redis key for one tile.
func tileKey(datasetID string, coord domain.TileCoord) string {
	return keyPrefix + datasetID + ":" + coord.String()
}
