// Package redis holds the sliding-window login rate limiter. It is the
// only Redis consumer in the service and is optional: when no Redis is
// configured, login attempts are not throttled.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minimart/minimart/internal/config"
)

type RateLimiter struct {
	client      *redis.Client
	maxAttempts int64
	window      time.Duration
}

func New(cfg *config.Config) (*RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RateLimiter{
		client:      client,
		maxAttempts: cfg.RateConfig.MaxAttempts,
		window:      cfg.RateConfig.WindowSize,
	}, nil
}

// NewWithClient wires an existing client; used by tests with redismock.
func NewWithClient(client *redis.Client, maxAttempts int64, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, maxAttempts: maxAttempts, window: window}
}

// CheckLoginRateLimit records one login attempt for username and reports
// whether it is allowed, how many attempts remain in the window, and how
// many seconds to wait when blocked.
func (r *RateLimiter) CheckLoginRateLimit(ctx context.Context, username string) (bool, int64, int, error) {

	key := fmt.Sprintf("login_attempts:%s", username)

	now := time.Now().Unix()
	windowStart := now - int64(r.window.Seconds())

	pipe := r.client.Pipeline()

	// drop attempts that slid out of the window
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// record this attempt
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, 0, err
	}

	attempts := count.Val()
	remaining := r.maxAttempts - attempts

	if remaining < 0 {
		remaining = 0
	}

	if attempts >= r.maxAttempts {
		retryAfter := int(r.window.Seconds())

		oldest, err := r.client.ZRange(ctx, key, 0, 0).Result()
		if err == nil && len(oldest) > 0 {
			if ts, err := strconv.ParseInt(oldest[0], 10, 64); err == nil {
				retryAfter = int(ts + int64(r.window.Seconds()) - now)
				if retryAfter < 0 {
					retryAfter = 0
				}
			}
		}

		return false, remaining, retryAfter, nil
	}

	return true, remaining, 0, nil
}

func (r *RateLimiter) Close() error {
	return r.client.Close()
}
