package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "atom:scheduling:idem:"

// RedisGuard is a Guard backed by Redis SET NX, so multiple agent instances
// share one view of which requests already ran.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard connects to Redis at the given address (host:port).
func NewRedisGuard(addr, password string, db int) (*RedisGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	return &RedisGuard{client: client}, nil
}

// Acquire implements Guard.
func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency setnx: %w", err)
	}
	return ok, nil
}

// Close releases the Redis connection.
func (g *RedisGuard) Close() error {
	return g.client.Close()
}
