package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimiterRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_Take(t *testing.T) {
	mr, rdb := newLimiterRedis(t)
	ctx := context.Background()
	q := Quota{Name: "like", Limit: 2, Window: time.Minute}

	t.Run("not enforced outside production", func(t *testing.T) {
		for _, env := range []string{"test", "development", "stress"} {
			d, err := NewRateLimiter(nil, env, nil).Take(ctx, Quota{Name: "x"}, "user:1")
			require.NoError(t, err)
			assert.True(t, d.Allowed, env)
		}
	})

	t.Run("production without redis", func(t *testing.T) {
		_, err := NewRateLimiter(nil, "production", nil).Take(ctx, q, "user:1")
		assert.Error(t, err)
	})

	t.Run("window", func(t *testing.T) {
		l := NewRateLimiter(rdb, "production", nil)

		d, err := l.Take(ctx, q, "user:1")
		require.NoError(t, err)
		assert.Equal(t, Decision{Allowed: true, Remaining: 1, RetryAfter: time.Minute}, d)

		d, err = l.Take(ctx, q, "user:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Zero(t, d.Remaining)

		d, err = l.Take(ctx, q, "user:1")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Greater(t, d.RetryAfter, time.Duration(0))
		assert.LessOrEqual(t, d.RetryAfter, time.Minute)

		other, err := l.Take(ctx, q, "user:2")
		require.NoError(t, err)
		assert.True(t, other.Allowed)

		mr.FastForward(2 * time.Minute)
		d, err = l.Take(ctx, q, "user:1")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
	})

	t.Run("restores a lost expiry", func(t *testing.T) {
		require.NoError(t, mr.Set("rl:like:user:9", "1"))
		d, err := NewRateLimiter(rdb, "production", nil).Take(ctx, q, "user:9")
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, time.Minute, mr.TTL("rl:like:user:9"))
	})
}

func TestRateLimiter_Limit(t *testing.T) {
	_, rdb := newLimiterRedis(t)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	app := fiber.New()
	app.Post("/limited", NewRateLimiter(rdb, "production", nil).Limit(Quota{Name: "create_post", Limit: 1, Window: time.Minute}), ok)
	app.Post("/closed", NewRateLimiter(nil, "production", nil).Limit(Quota{Name: "closed", Limit: 1, Window: time.Minute, FailClosed: true}), ok)
	app.Post("/open", NewRateLimiter(nil, "production", nil).Limit(Quota{Name: "open", Limit: 1, Window: time.Minute}), ok)
	app.Post("/dev", NewRateLimiter(nil, "development", nil).Limit(Quota{Name: "dev", Limit: 0, Window: time.Minute}), ok)

	post := func(path string) *http.Response {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, path, nil), -1)
		require.NoError(t, err)
		return resp
	}

	resp := post("/limited")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp = post("/limited")
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))

	assert.Equal(t, fiber.StatusServiceUnavailable, post("/closed").StatusCode)
	assert.Equal(t, fiber.StatusOK, post("/open").StatusCode)

	resp = post("/dev")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
}
