package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"talkhub/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Quota is a fixed-window allowance shared by every route using Name.
type Quota struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed rejects requests with 503 while Redis is unreachable
	// instead of letting them through.
	FailClosed bool
}

// Decision is the outcome of charging one request against a quota.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts requests per quota and subject in Redis. Limits only
// apply in production-like environments.
type RateLimiter struct {
	rdb    *redis.Client
	env    string
	logger *slog.Logger
}

// NewRateLimiter returns a RateLimiter; rdb may be nil outside production.
func NewRateLimiter(rdb *redis.Client, env string, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{rdb: rdb, env: env, logger: logger}
}

func (l *RateLimiter) enforced() bool {
	switch l.env {
	case "", "test", "development", "stress":
		return false
	}
	return true
}

// Take charges one request by subject against q.
func (l *RateLimiter) Take(ctx context.Context, q Quota, subject string) (Decision, error) {
	if !l.enforced() {
		return Decision{Allowed: true, Remaining: q.Limit}, nil
	}
	if l.rdb == nil {
		return Decision{}, errors.New("rate limiter has no redis client")
	}

	key := "rl:" + q.Name + ":" + subject
	var (
		count *redis.IntCmd
		ttl   *redis.DurationCmd
	)
	_, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", q.Name, err)
	}

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		// First hit of the window, or a counter that lost its expiry.
		if err := l.rdb.PExpire(ctx, key, q.Window).Err(); err != nil {
			return Decision{}, fmt.Errorf("rate limit %s: %w", q.Name, err)
		}
		retryAfter = q.Window
	}

	n := count.Val()
	return Decision{
		Allowed:    n <= int64(q.Limit),
		Remaining:  max(q.Limit-int(n), 0),
		RetryAfter: retryAfter,
	}, nil
}

// Limit enforces q per authenticated user, or per client IP for anonymous
// requests.
func (l *RateLimiter) Limit(q Quota) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.enforced() {
			return c.Next()
		}

		subject := "ip:" + c.IP()
		if uid, ok := UserID(c); ok {
			subject = "user:" + uid.String()
		}

		d, err := l.Take(c.UserContext(), q, subject)
		if err != nil {
			l.logger.WarnContext(c.UserContext(), "rate limiter unavailable",
				slog.String("quota", q.Name),
				slog.Bool("fail_closed", q.FailClosed),
				slog.String("error", err.Error()),
			)
			if q.FailClosed {
				return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewInternalError(err))
			}
			return c.Next()
		}

		c.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				models.NewRateLimitedError("rate limit exceeded"))
		}
		return c.Next()
	}
}
