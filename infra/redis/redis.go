package redisdb

import (
	"context"
	"time"

	"github.com/fazamuttaqien/ipap-financing/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.REDIS_ADDRESS,
		Password:     cfg.REDIS_PASSWORD,
		DB:           0,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
		MaxRetries:   3,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}

// MonitorRedis blocks until Redis answers a ping or ctx is done.
func MonitorRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	for {
		client, err := NewRedis(ctx, cfg)
		if err == nil {
			zap.L().Info("Successfully connected to Redis", zap.String("address", cfg.REDIS_ADDRESS))
			return client, nil
		}

		zap.L().Error("Failed to connect to Redis, retrying in 5 seconds...", zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
}

// WatchConnection pings client every interval and logs transitions between
// reachable and unreachable. The client's pool reconnects on its own.
func WatchConnection(ctx context.Context, client *redis.Client, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()

		switch {
		case err != nil && healthy:
			zap.L().Warn("Redis ping failed", zap.Error(err))
			healthy = false
		case err == nil && !healthy:
			zap.L().Info("Redis connection restored")
			healthy = true
		}
	}
}
