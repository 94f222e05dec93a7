package ratelimit

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// counterStore is the slice of redis.Cmdable the limiter uses.
type counterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	TTL(ctx context.Context, key string) *redis.DurationCmd
}

// RedisLimiter shares windows between service instances through Redis.
type RedisLimiter struct {
	rdb       counterStore
	limit     int
	window    time.Duration
	keyPrefix string
}

func NewRedisLimiter(rdb redis.Cmdable, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	return newRedisLimiter(rdb, limit, window, keyPrefix)
}

func newRedisLimiter(rdb counterStore, limit int, window time.Duration, keyPrefix string) *RedisLimiter {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RedisLimiter{
		rdb:       rdb,
		limit:     limit,
		window:    window,
		keyPrefix: keyPrefix,
	}
}

func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	redisKey := rl.keyPrefix + ":" + key

	count, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{Allowed: true, Limit: rl.limit, Remaining: rl.limit}, errors.Wrap(err, "rate limit counter")
	}

	ttl, err := rl.rdb.TTL(ctx, redisKey).Result()
	if err != nil {
		return newResult(count, rl.limit, rl.window), errors.Wrap(err, "rate limit ttl")
	}

	// a counter without an expiry starts the window here, whether it was
	// just created or an earlier EXPIRE never landed
	if ttl < 0 {
		if err := rl.rdb.Expire(ctx, redisKey, rl.window).Err(); err != nil {
			return newResult(count, rl.limit, rl.window), errors.Wrap(err, "rate limit expiry")
		}
		ttl = rl.window
	}

	return newResult(count, rl.limit, ttl), nil
}

// Dial connects to Redis and checks the connection.
func Dial(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redis ping")
	}
	return client, nil
}
