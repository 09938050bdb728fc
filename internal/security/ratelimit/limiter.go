package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/yourorg/authgate/internal/infrastructure/redis"
)

// LoginLimiter applies a fixed-window limit to login attempts, keyed by
// tenant and username. The counter lives in Redis so the limit holds
// across replicas. It sits in front of the credential check and never
// changes the authentication contract itself.
type LoginLimiter struct {
	redis  *redis.Client
	max    int64
	window time.Duration
	logger *slog.Logger
}

// NewLoginLimiter creates a limiter allowing max attempts per window.
func NewLoginLimiter(client *redis.Client, max int, window time.Duration, logger *slog.Logger) *LoginLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoginLimiter{
		redis:  client,
		max:    int64(max),
		window: window,
		logger: logger,
	}
}

// Allow reports whether another attempt for the key may proceed. If
// Redis is unreachable the limiter fails open: login availability is
// worth more than brute-force slowdown.
func (l *LoginLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := "ratelimit:login:" + key

	count, err := l.redis.Incr(ctx, redisKey)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing request",
			slog.String("error", err.Error()),
		)
		return true
	}
	if count == 1 {
		if err := l.redis.Expire(ctx, redisKey, l.window); err != nil {
			l.logger.Warn("failed to set rate limit window",
				slog.String("error", err.Error()),
			)
		}
	}
	return count <= l.max
}
