package loanhandler

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
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

const requestTimeout = 10 * time.Second

type LoanHandler struct {
	loanService     service.LoanServices
	validate        *validator.Validate
	meter           metric.Meter
	tracer          trace.Tracer
	log             *zap.Logger
	requestCount    metric.Int64Counter
	requestDuration metric.Float64Histogram
	errorCount      metric.Int64Counter
}

func NewLoanHandler(
	loanService service.LoanServices,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) *LoanHandler {
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

	return &LoanHandler{
		loanService:     loanService,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		meter:           meter,
		tracer:          tracer,
		log:             log,
		requestCount:    requestCount,
		requestDuration: requestDuration,
		errorCount:      errorCount,
	}
}

func (h *LoanHandler) begin(c *fiber.Ctx, name string) (context.Context, trace.Span, time.Time) {
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

func (h *LoanHandler) recordError(
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

func (h *LoanHandler) recordSuccess(
	ctx context.Context, span trace.Span, c *fiber.Ctx,
	start time.Time, statusCode int, responseData any, fields ...zap.Field) error {
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

	logFields := append([]zap.Field{
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Int("status_code", statusCode),
		zap.Float64("duration_ms", duration),
	}, fields...)
	h.log.Info("Request completed successfully", logFields...)

	return c.Status(statusCode).JSON(responseData)
}

func (h *LoanHandler) serviceError(ctx context.Context, span trace.Span, c *fiber.Ctx, start time.Time, err error) error {
	switch {
	case financing.IsValidationError(err):
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnprocessableEntity, financing.ErrorType(err), err.Error())
	case errors.Is(err, common.ErrInvalidDate):
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_date", err.Error())
	case errors.Is(err, common.ErrInvalidAmount):
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, common.ErrCustomerMissing):
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "customer_missing", err.Error())
	case errors.Is(err, common.ErrLoanNotFound):
		return h.recordError(ctx, span, c, start, err, fiber.StatusNotFound, "loan_not_found", "Loan not found")
	case errors.Is(err, common.ErrForbidden):
		return h.recordError(ctx, span, c, start, err, fiber.StatusForbidden, "forbidden", "Access denied")
	case errors.Is(err, common.ErrOverpayment):
		return h.recordError(ctx, span, c, start, err, fiber.StatusConflict, "overpayment", err.Error())
	case errors.Is(err, common.ErrLoanClosed):
		return h.recordError(ctx, span, c, start, err, fiber.StatusConflict, "loan_closed", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return h.recordError(ctx, span, c, start, err, fiber.StatusRequestTimeout, "timeout", "Request timeout")
	default:
		return h.recordError(ctx, span, c, start, err, fiber.StatusInternalServerError, "service_error", "Internal server error")
	}
}

func loanID(c *fiber.Ctx) (uint64, error) {
	return strconv.ParseUint(c.Params("loanId"), 10, 64)
}

func (h *LoanHandler) CreateLoan(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.CreateLoan")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	var req dto.CreateLoanRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	loan, err := h.loanService.CreateLoan(ctx, actor, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusCreated, dto.LoanResponseFromEntity(loan),
		zap.Uint64("loan_id", loan.ID),
		zap.String("contract_number", loan.ContractNumber),
	)
}

func (h *LoanHandler) ListLoans(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.ListLoans")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	var customerID uint64
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_param", "Invalid customer_id")
		}
	}

	params := domain.Params{
		Status: c.Query("status"),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	result, err := h.loanService.ListLoans(ctx, actor, customerID, params)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, result, zap.Int64("total", result.Total))
}

func (h *LoanHandler) GetLoan(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.GetLoan")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	id, err := loanID(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_param", "Invalid loan ID")
	}
	span.SetAttributes(attribute.Int64("loan.id", int64(id)))

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	loan, err := h.loanService.GetLoan(ctx, actor, id)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, dto.LoanResponseFromEntity(loan))
}

func (h *LoanHandler) GetSchedule(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.GetLoanSchedule")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	id, err := loanID(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_param", "Invalid loan ID")
	}

	asOf, err := common.ParseDate(c.Query("as_of"), time.Time{})
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := h.loanService.GetSchedule(ctx, actor, id, asOf)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, resp, zap.Uint64("loan_id", id))
}

func (h *LoanHandler) RecordPayment(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.RecordPayment")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	id, err := loanID(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_param", "Invalid loan ID")
	}

	var req dto.RecordPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "parse_error", "Cannot parse request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "validation_error", "Validation failed")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := h.loanService.RecordPayment(ctx, actor, id, req)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusCreated, resp,
		zap.Uint64("loan_id", id),
		zap.String("reference", resp.Payment.Reference),
	)
}

func (h *LoanHandler) ListPayments(c *fiber.Ctx) error {
	ctx, span, start := h.begin(c, "handler.ListPayments")
	defer span.End()

	actor, err := middleware.GetActorFromLocals(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusUnauthorized, "auth_error", "Unauthorized")
	}

	id, err := loanID(c)
	if err != nil {
		return h.recordError(ctx, span, c, start, err, fiber.StatusBadRequest, "invalid_param", "Invalid loan ID")
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	payments, err := h.loanService.ListPayments(ctx, actor, id)
	if err != nil {
		return h.serviceError(ctx, span, c, start, err)
	}

	return h.recordSuccess(ctx, span, c, start, fiber.StatusOK, dto.PaymentResponsesFromEntities(payments))
}
