package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "authx:resend:"

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("throttle: redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisLimiter shares cooldowns between console instances. A key holds while its cooldown runs.
type RedisLimiter struct {
	rdb      redis.UniversalClient
	cooldown time.Duration
}

// NewRedisLimiter returns a limiter backed by rdb. A cooldown <= 0 allows everything without touching Redis.
func NewRedisLimiter(rdb redis.UniversalClient, cooldown time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, cooldown: cooldown}
}

// Allow sets the cooldown key only if absent; a present key means the action is throttled.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.cooldown <= 0 || key == "" {
		return true, nil
	}
	ok, err := l.rdb.SetNX(ctx, keyPrefix+key, time.Now().UTC().Unix(), l.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("throttle: redis setnx: %w", err)
	}
	return ok, nil
}

// Remaining returns how long key stays throttled; 0 when it is not.
func (l *RedisLimiter) Remaining(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := l.rdb.PTTL(ctx, keyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("throttle: redis pttl: %w", err)
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}
