package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fazamuttaqien/ipap-financing/config"
	"github.com/fazamuttaqien/ipap-financing/infra/database"
	redisdb "github.com/fazamuttaqien/ipap-financing/infra/redis"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
	ratelimiter "github.com/fazamuttaqien/ipap-financing/pkg/rate-limiter"
	"github.com/fazamuttaqien/ipap-financing/pkg/telemetry"
	"github.com/fazamuttaqien/ipap-financing/presenter"
	"github.com/fazamuttaqien/ipap-financing/router"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	slog.Info("Starting application setup...")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, using system environment variables", "error", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	if cfg.JWT_SECRET_KEY == "" {
		panic("JWT_SECRET_KEY must be set")
	}

	policy, err := config.LoadPolicy(cfg.FINANCING_POLICY_FILE)
	if err != nil {
		panic(fmt.Sprintf("Failed to load financing policy: %v", err))
	}
	engine, err := financing.NewEngine(policy)
	if err != nil {
		panic(fmt.Sprintf("Failed to build financing engine: %v", err))
	}

	tel, err := telemetry.New(ctx, cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize monitoring: %v", err))
	}

	zap.L().Info("Financing policy loaded",
		zap.String("sticker_fee", policy.StickerFee.String()),
		zap.String("processing_fee_rate", policy.ProcessingFeeRate.String()),
		zap.String("annual_interest_rate", policy.AnnualInterestRate.String()),
		zap.Bool("permissive_frequency", policy.PermissiveFrequency),
	)

	db, err := database.Open(cfg)
	if err != nil {
		zap.L().Error("Failed to initialize database", zap.Error(err))
		os.Exit(1)
	}

	redisClient, err := redisdb.MonitorRedis(ctx, cfg)
	if err != nil {
		zap.L().Error("Failed to connect to Redis", zap.Error(err))
		os.Exit(1)
	}
	go redisdb.WatchConnection(ctx, redisClient, 10*time.Second)

	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.SHUTDOWN_TIMEOUT)
		defer cancelShutdown()

		zap.L().Info("Closing database connection...", zap.String("driver", cfg.DB_DRIVER))
		if err := database.Close(shutdownCtx, db); err != nil {
			zap.L().Error("Error disconnecting from database", zap.Error(err))
		} else {
			zap.L().Info("Disconnected from database.")
		}

		zap.L().Info("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			zap.L().Error("Error disconnecting from Redis", zap.Error(err))
		} else {
			zap.L().Info("Disconnected from Redis.")
		}

		zap.L().Info("Shutting down monitoring...")
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zap.L().Error("Error during monitoring shutdown", zap.Error(err))
		} else {
			zap.L().Info("Monitoring shutdown complete.")
		}
	}()

	if err := model.AutoMigrate(db); err != nil {
		zap.L().Error("Failed to migrate database", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("Database migration completed!")

	if err := database.Ping(ctx, db); err != nil {
		zap.L().Error("Database ping failed", zap.Error(err))
		os.Exit(1)
	}
	zap.L().Info("Database connection successful!", zap.Any("stats", database.GetStats(db)))

	limiter := ratelimiter.NewRateLimiter(redisClient, cfg.RATE_LIMIT_REQUESTS, cfg.RATE_LIMIT_WINDOW)

	presenter := presenter.NewPresenter(db, redisClient, engine, cfg.QUOTE_SESSION_TTL, tel)
	router := router.NewRouter(presenter, db, redisClient, tel, cfg, limiter)

	addr := ":" + cfg.SERVER_PORT

	listenErr := make(chan error, 1)

	go func() {
		zap.L().Info("Server starting", zap.String("address", addr))
		if err := router.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		} else {
			listenErr <- nil
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		zap.L().Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-listenErr:
		if err != nil {
			zap.L().Error("Server listen error", zap.Error(err))
			os.Exit(1)
		}
	}

	zap.L().Info("Starting graceful shutdown...")
	stop()
	if err := router.ShutdownWithTimeout(cfg.SHUTDOWN_TIMEOUT); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			zap.L().Warn("Server shutdown timed out", zap.Duration("timeout", cfg.SHUTDOWN_TIMEOUT))
		} else {
			zap.L().Error("Server shutdown error", zap.Error(err))
		}
	} else {
		zap.L().Info("Server gracefully stopped.")
	}

	zap.L().Info("Application shutdown complete.")
}
