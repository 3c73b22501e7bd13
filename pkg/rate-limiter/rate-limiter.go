package ratelimiter

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/fazamuttaqien/ipap-financing/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "ratelimit:"

// RateLimiter is a per-client token bucket held in memory. The tokens left
// in each bucket are mirrored to Redis so a restarted instance does not hand
// every client a fresh burst.
type RateLimiter struct {
	client   *redis.Client
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

// NewRateLimiter allows requests per window for each client, refilling evenly
// over the window.
func NewRateLimiter(client *redis.Client, requests int, window time.Duration) *RateLimiter {
	if client == nil {
		zap.L().Error("Redis client passed to NewRateLimiter is nil")
		panic("Redis client passed to NewRateLimiter is nil")
	}

	if window <= 0 {
		window = 15 * time.Minute
		zap.L().Warn("Invalid rate limit window, defaulting", zap.Duration("default_window", window))
	}
	if requests <= 0 {
		requests = 100
		zap.L().Warn("Invalid rate limit request count, defaulting", zap.Int("default_requests", requests))
	}

	return &RateLimiter{
		client:   client,
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(requests) / window.Seconds()),
		burst:    requests,
		ttl:      window,
	}
}

func (rl *RateLimiter) GetLimiter(ctx context.Context, key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.limit, rl.burst)

	remaining, err := rl.client.Get(ctx, keyPrefix+key).Int()
	switch {
	case err == nil && remaining < rl.burst:
		limiter.AllowN(time.Now(), rl.burst-max(remaining, 0))
		zap.L().Debug("Initializing limiter from Redis state",
			zap.String("key", key),
			zap.Int("remaining", remaining),
		)
	case err != nil && !errors.Is(err, redis.Nil):
		zap.L().Error("Error getting rate limit state from Redis", zap.String("key", key), zap.Error(err))
	}

	rl.limiters[key] = limiter

	time.AfterFunc(rl.ttl, func() {
		rl.mu.Lock()
		defer rl.mu.Unlock()
		zap.L().Debug("Removing limiter from memory due to TTL", zap.String("key", key))
		delete(rl.limiters, key)
	})

	return limiter
}

func (rl *RateLimiter) persist(key string, tokens float64) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := rl.client.Set(ctx, keyPrefix+key, int(math.Floor(tokens)), rl.ttl).Err(); err != nil {
		zap.L().Error("Error setting rate limit state to Redis", zap.String("key", key), zap.Error(err))
	}
}

// clientKey identifies the caller: the authenticated user when claims are
// present, otherwise the client IP.
func clientKey(c *fiber.Ctx) string {
	if claims, err := middleware.GetClaimsFromLocals(c); err == nil {
		return "user:" + strconv.FormatUint(claims.UserID, 10)
	}
	if ip := c.IP(); ip != "" {
		return "ip:" + ip
	}
	return ""
}

func (rl *RateLimiter) RateLimitMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := clientKey(c)
		if key == "" {
			zap.L().Warn("Rate limiter cannot determine client identity")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Access Forbidden: Cannot identify client.",
			})
		}

		limiter := rl.GetLimiter(c.UserContext(), key)
		allowed := limiter.Allow()
		go rl.persist(key, limiter.Tokens())

		c.Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		if !allowed {
			zap.L().Warn("Rate limit exceeded", zap.String("client", key))

			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(math.Ceil(1/float64(rl.limit)))))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		}

		return c.Next()
	}
}
