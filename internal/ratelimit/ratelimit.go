package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int, err error)
}

// RedisLimiter keeps one counter per key and window in Redis so every
// instance of the service shares the budget.
type RedisLimiter struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRedisLimiter(ctx context.Context, redisURL string) (*RedisLimiter, error) {
	opt, err := redis.ParseURL(redisURL)

	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisLimiter{redis: client, now: time.Now}, nil
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, int, error) {
	windowKey := WindowKey(key, rl.now(), window)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}

	count := int(incr.Val())

	return count <= limit, count, nil
}

func (rl *RedisLimiter) Close() error {
	return rl.redis.Close()
}

// WindowKey names the counter for the window containing now.
func WindowKey(key string, now time.Time, window time.Duration) string {
	seconds := int64(window / time.Second)

	if seconds < 1 {
		seconds = 1
	}

	return fmt.Sprintf("ratelimit:%s:%d", key, now.Unix()/seconds)
}
