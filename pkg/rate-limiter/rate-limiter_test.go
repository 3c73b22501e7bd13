package ratelimiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unreachableRedis returns a client whose calls fail fast, leaving the
// limiter to run purely in memory.
func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })
	return client
}

func newApp(rl *RateLimiter, userID uint64) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if userID != 0 {
			c.Locals("user", &domain.JwtCustomClaims{UserID: userID, Role: domain.AgentRole})
		}
		return c.Next()
	})
	app.Use(rl.RateLimitMiddleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	return app
}

func TestRateLimitMiddleware_BlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), 2, time.Hour)
	app := newApp(rl, 0)

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRateLimitMiddleware_KeysByUser(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), 1, time.Hour)

	first := newApp(rl, 1)
	second := newApp(rl, 2)

	resp, err := first.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = second.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = first.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(unreachableRedis(t), 0, 0)

	assert.Equal(t, 100, rl.burst)
	assert.Equal(t, 15*time.Minute, rl.ttl)
}

func TestNewRateLimiter_NilClientPanics(t *testing.T) {
	assert.Panics(t, func() { NewRateLimiter(nil, 10, time.Minute) })
}
