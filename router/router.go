package router

import (
	"errors"
	"time"

	"github.com/fazamuttaqien/ipap-financing/config"
	"github.com/fazamuttaqien/ipap-financing/infra/database"
	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/middleware"
	"github.com/fazamuttaqien/ipap-financing/pkg/metrics"
	ratelimiter "github.com/fazamuttaqien/ipap-financing/pkg/rate-limiter"
	"github.com/fazamuttaqien/ipap-financing/pkg/telemetry"
	"github.com/fazamuttaqien/ipap-financing/presenter"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func NewRouter(
	presenter presenter.Presenter,
	db *gorm.DB,
	redisClient *redis.Client,
	tel *telemetry.OpenTelemetry,
	cfg *config.Config,
	limiter *ratelimiter.RateLimiter,
) *fiber.App {

	jwtAuth := middleware.NewJWTAuthMiddleware(cfg.JWT_SECRET_KEY)
	requireQuoting := middleware.RequireRole(domain.AgentRole, domain.CustomerRole)
	requireReader := middleware.RequireRole(domain.AgentRole, domain.CustomerRole, domain.AdminRole)
	requireCollector := middleware.RequireRole(domain.AgentRole, domain.AdminRole)

	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: ErrorCustomHandler(tel.Log),
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS_ALLOW_ORIGINS,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	if cfg.DEVELOPMENT_MODE {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${ip} ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(otelfiber.Middleware(
		otelfiber.WithTracerProvider(tel.TracerProvider),
		otelfiber.WithMeterProvider(tel.MeterProvider),
		otelfiber.WithPropagators(otel.GetTextMapPropagator()),
	))

	if cfg.REQUESTS_METRIC {
		zap.L().Info("Enabling HTTP request metrics middleware")
		app.Use(middleware.NewRequestMetrics(tel.MeterProvider.Meter("http-middleware-meter"), tel.Log).Handle())
	} else {
		zap.L().Info("HTTP request metrics middleware is disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := database.Ping(c.Context(), db); err != nil {
			zap.L().Error("Health check failed: database ping error", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
		}
		if err := redisClient.Ping(c.Context()).Err(); err != nil {
			zap.L().Error("Health check failed: redis ping error", zap.Error(err))
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unhealthy",
				"error":  "redis connection failed",
			})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":      "healthy",
			"service":     cfg.SERVICE_NAME,
			"version":     cfg.SERVICE_VERSION,
			"environment": cfg.ENVIRONMENT,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api/v1", jwtAuth, limiter.RateLimitMiddleware())

	financingAPI := api.Group("/financing", requireQuoting)
	{
		financingAPI.Post("/calculate", presenter.FinancingPresenter.Calculate)
		financingAPI.Post("/charges", presenter.FinancingPresenter.CalculateCharges)
		financingAPI.Post("/schedule", presenter.FinancingPresenter.DirectSchedule)
		financingAPI.Put("/sessions/:paymentType", presenter.FinancingPresenter.SaveSession)
		financingAPI.Get("/sessions/:paymentType", presenter.FinancingPresenter.GetSession)
		financingAPI.Delete("/sessions/:paymentType", presenter.FinancingPresenter.DeleteSession)
	}

	loansAPI := api.Group("/loans")
	{
		loansAPI.Post("/", requireQuoting, presenter.LoanPresenter.CreateLoan)
		loansAPI.Get("/", requireQuoting, presenter.LoanPresenter.ListLoans)
		loansAPI.Get("/:loanId", requireReader, presenter.LoanPresenter.GetLoan)
		loansAPI.Get("/:loanId/schedule", requireReader, presenter.LoanPresenter.GetSchedule)
		loansAPI.Get("/:loanId/payments", requireReader, presenter.LoanPresenter.ListPayments)
		loansAPI.Post("/:loanId/payments", requireCollector, presenter.LoanPresenter.RecordPayment)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Resource not found",
			"path":    c.Path(),
		})
	})

	return app
}

func ErrorCustomHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
			message = e.Message
		}

		log.Error("Request error occured",
			zap.Error(err),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()),
			zap.Int("status_code", code),
		)

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": message,
			"code":    code,
		})
	}
}
