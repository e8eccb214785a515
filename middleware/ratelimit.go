package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"hrms/apperror"

	"github.com/go-redis/redis_rate/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/redis/go-redis/v9"
)

// Limiter decides whether one more request under key fits the window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type redisLimiter struct {
	limiter *redis_rate.Limiter
	limit   redis_rate.Limit
}

// RedisLimiter shares the count across instances through redis.
func RedisLimiter(client redis.UniversalClient, rate int, period time.Duration) Limiter {
	return &redisLimiter{
		limiter: redis_rate.NewLimiter(client),
		limit:   redis_rate.Limit{Rate: rate, Burst: rate, Period: period},
	}
}

func (r *redisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	res, err := r.limiter.Allow(ctx, key, r.limit)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}
	return res.Allowed > 0, res.RetryAfter, nil
}

func limited(c *fiber.Ctx, retry time.Duration) error {
	secs := int(math.Ceil(retry.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return ErrorResponse(c, apperror.RateLimited("Too many requests, please try again later!", secs))
}

// RateLimit caps requests per client IP. A nil shared limiter falls back to an in-process
// window of rate requests per period. Redis errors let the request through.
func RateLimit(name string, shared Limiter, rate int, period time.Duration) fiber.Handler {
	if shared == nil {
		return limiter.New(limiter.Config{
			Max:        rate,
			Expiration: period,
			KeyGenerator: func(c *fiber.Ctx) string {
				return name + ":" + c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return limited(c, period)
			},
		})
	}
	return func(c *fiber.Ctx) error {
		ok, retry, err := shared.Allow(c.UserContext(), "ratelimit:"+name+":"+c.IP())
		if err != nil {
			log.Printf("[RATELIMIT] %s check failed, letting %s through: %v", name, c.IP(), err)
			return c.Next()
		}
		if !ok {
			return limited(c, retry)
		}
		return c.Next()
	}
}
