package financinghandler

import (
	"context"
	"errors"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/dto"
	"github.com/fazamuttaqien/ipap-financing/internal/service"
	"github.com/fazamuttaqien/ipap-financing/middleware"
	"github.com/fazamuttaqien/ipap-financing/pkg/common"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const requestTimeout = 5 * time.Second

type FinancingHandler struct {
	financingService service.FinancingServices
	validate         *validator.Validate
	meter            metric.Meter
	tracer           trace.Tracer
	log              *zap.Logger
	requestCount     metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorCount       metric.Int64Counter
}

func NewFinancingHandler(
	financingService service.FinancingServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *FinancingHandler {
	requestCount, err := meter.Int64Counter(
		"api.request.count",
		metric.WithDescription("Number of API requests received"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request count metric", zap.Error(err))
	}

	requestDuration, err := meter.Float64Histogram(
		"api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create request duration metric", zap.Error(err))
	}

	errorCount, err := meter.Int64Counter(
		"api.error.count",
		metric.WithDescription("Number of API errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		zap.L().Fatal("Failed to create error count metric", zap.Error(err))
	}

	return &FinancingHandler{
		financingService: financingService,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		meter:            meter,
		tracer:           tracer,
		log:              log,
		requestCount:     requestCount,
		requestDuration:  requestDuration,
		errorCount:       errorCount,
	}
}

func (h *FinancingHandler) begin(c *fiber.Ctx, name string) (context.Context, trace.Span, time.Time) {
	ctx, span := h.tracer.Start(c.UserContext(), name)

	span.SetAttributes(
		attribute.String("http.method", c.Method()),
		attribute.String("http.route", c.Path()),
		attribute.String("http.client_ip", c.IP()),
	)
	h.requestCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
	))

	return ctx, span, time.Now()
}

func (h *FinancingHandler) recordError(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, err error, statusCode int, errorType, message string, fields ...zap.Field) error {
	h.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.String("error_type", errorType),
		attribute.Int("status_code", statusCode),
	))

	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.String("error.type", errorType),
		attribute.String("error.message", err.Error()),
		attribute.Int("http.status_code", statusCode),
	)
	span.RecordError(err)

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Int("status_code", statusCode),
		zap.String("error_type", errorType),
		zap.Float64("duration_ms", duration),
		zap.Error(err),
	}, fields...)
	if statusCode >= fiber.StatusInternalServerError {
		h.log.Error(message, logFields...)
	} else {
		h.log.Warn(message, logFields...)
	}

	return c.Status(statusCode).JSON(fiber.Map{"error": message, "error_type": errorType})
}

func (h *FinancingHandler) recordSuccess(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, statusCode int, responseData any) error {
	duration := float64(time.Since(start).Nanoseconds()) / 1e6
	h.requestDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("endpoint", c.Path()),
		attribute.String("method", c.Method()),
		attribute.Int("status_code", statusCode),
	))

	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Float64("request.duration_ms", duration),
	)
	h.log.Debug("Request completed successfully",
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("path", c.Path()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	)

	if responseData == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(responseData)
}

// serviceError maps a service error onto the response.
func (h *FinancingHandler) serviceError(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error) error {
	switch {
	case financing.IsValidationError(err):
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnprocessableEntity, financing.ErrorType(err), err.Error())
	case errors.Is(err, common.ErrInvalidDate):
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, common.ErrSessionNotFound):
		return h.recordError(ctx, span, c, start, err, fiber.StatusNotFound, "session_not_found", "Quote session not found")
	case errors.Is(err, context.DeadlineExceeded):
		return h.recordError(ctx, span, c, start, err, fiber.StatusRequestTimeout, "timeout", "Request timeout")
	default:
		return h.recordError(ctx, span, c, start, err, fiber.StatusInternalServerError, "service_error", "Internal server error")
	}
}

func (h *FinancingHandler) Calculate(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.Calculate")
	defer span.End()

	var req dto.CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	span.SetAttributes(
		attribute.String("quote.type", req.QuoteType),
		attribute.String("quote.payment_frequency", req.PaymentFrequency),
	)

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := h.financingService.Calculate(ctx, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, resp)
}

func (h *FinancingHandler) CalculateCharges(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.CalculateCharges")
	defer span.End()

	var req dto.ChargesRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := h.financingService.CalculateCharges(ctx, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, resp)
}

func (h *FinancingHandler) DirectSchedule(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.DirectSchedule")
	defer span.End()

	var req dto.DirectScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := h.financingService.DirectSchedule(ctx, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, resp)
}

func (h *FinancingHandler) SaveSession(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.SaveSession")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	var req dto.SessionRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	session, err := h.financingService.SaveSession(ctx, actor.UserID, c.Params("paymentType"), req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, session)
}

func (h *FinancingHandler) GetSession(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.GetSession")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	session, err := h.financingService.GetSession(ctx, actor.UserID, c.Params("paymentType"))
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, session)
}

func (h *FinancingHandler) DeleteSession(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.DeleteSession")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	if err := h.financingService.DeleteSession(ctx, actor.UserID, c.Params("paymentType")); err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusNoContent, nil)
}
