package financingsrv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/dto"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"
	"github.com/fazamuttaqien/ipap-financing/internal/service"
	"github.com/fazamuttaqien/ipap-financing/pkg/common"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
	"github.com/fazamuttaqien/ipap-financing/pkg/metrics"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type financingService struct {
	engine            *financing.Engine
	sessionRepository repository.SessionRepository
	sessionTTL        time.Duration

	meter  metric.Meter
	tracer trace.Tracer
	log    *zap.Logger

	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	schedulesBuilt    metric.Int64Counter
}

// today is midnight UTC of the current day.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func (f *financingService) begin(ctx context.Context, name, operation string) (context.Context, trace.Span, time.Time) {
	ctx, span := f.tracer.Start(ctx, name)
	f.operationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("service", "financing"),
	))
	span.SetAttributes(attribute.String("service", "financing"))
	return ctx, span, time.Now()
}

// finish records the outcome of operation on span and the service
// instruments. Engine validation errors are logged at warn level since they
// are caused by the caller.
func (f *financingService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		errorType := financing.ErrorType(err)

		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		f.errorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("service", "financing"),
			attribute.String("error_type", errorType),
		))

		fields := []zap.Field{
			zap.String("operation", operation),
			zap.String("error_type", errorType),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		}
		if financing.IsValidationError(err) {
			metrics.CalculationErrors.WithLabelValues(operation, errorType).Inc()
			f.log.Warn("Financing input rejected", fields...)
		} else {
			f.log.Error("Financing operation failed", fields...)
		}
	} else {
		span.SetStatus(codes.Ok, operation)
	}

	metrics.Calculations.WithLabelValues(operation, status).Inc()
	f.operationDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("service", "financing"),
		attribute.String("status", status),
	))
}

func quoteInput(req dto.QuoteRequest) financing.Input {
	return financing.Input{
		PremiumAmount:    req.PremiumAmount,
		InitialDeposit:   req.InitialDeposit,
		Duration:         req.Duration,
		DurationUnit:     financing.DurationUnit(req.DurationUnit),
		PaymentFrequency: req.PaymentFrequency,
		QuoteType:        req.QuoteType,
	}
}

// Calculate implements FinancingServices.
func (f *financingService) Calculate(ctx context.Context, req dto.CalculateRequest) (_ *dto.CalculateResponse, err error) {
	ctx, span, start := f.begin(ctx, "service.Calculate", "calculate")
	defer span.End()
	defer func() { f.finish(ctx, span, "calculate", start, err) }()

	span.SetAttributes(
		attribute.String("quote.type", req.QuoteType),
		attribute.String("quote.payment_frequency", req.PaymentFrequency),
		attribute.Int("quote.duration", req.Duration),
		attribute.String("quote.premium_amount", req.PremiumAmount.String()),
	)

	startDate, err := common.ParseDate(req.StartDate, today())
	if err != nil {
		return nil, err
	}

	result, err := f.engine.Calculate(quoteInput(req.QuoteRequest), startDate)
	if err != nil {
		return nil, err
	}

	f.schedulesBuilt.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "quote")))
	f.log.Debug("Quote calculated",
		zap.String("quote_type", req.QuoteType),
		zap.String("payment_frequency", string(result.PaymentFrequency)),
		zap.Int("installments", result.NoOfInstallments),
		zap.String("total_repayment", result.TotalRepayment.String()),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return &dto.CalculateResponse{
		Result:    result,
		StartDate: startDate.Format(time.DateOnly),
	}, nil
}

// CalculateCharges implements FinancingServices.
func (f *financingService) CalculateCharges(ctx context.Context, req dto.ChargesRequest) (_ *dto.ChargesResponse, err error) {
	ctx, span, start := f.begin(ctx, "service.CalculateCharges", "charges")
	defer span.End()
	defer func() { f.finish(ctx, span, "charges", start, err) }()

	if req.ProcessingFee.IsNegative() || req.InitialDeposit.IsNegative() {
		return nil, fmt.Errorf("%w: processing fee and deposit must not be negative", financing.ErrInvalidDeposit)
	}

	return &dto.ChargesResponse{
		ProcessingFee:  req.ProcessingFee,
		InitialDeposit: req.InitialDeposit,
		Charges:        f.engine.CalculateCharges(req.ProcessingFee, req.InitialDeposit),
	}, nil
}

// DirectSchedule implements FinancingServices.
func (f *financingService) DirectSchedule(ctx context.Context, req dto.DirectScheduleRequest) (_ *dto.ScheduleResponse, err error) {
	ctx, span, start := f.begin(ctx, "service.DirectSchedule", "direct_schedule")
	defer span.End()
	defer func() { f.finish(ctx, span, "direct_schedule", start, err) }()

	span.SetAttributes(
		attribute.String("loan.total_repayment", req.TotalRepayment.String()),
		attribute.Int("loan.installments", req.NoOfInstallments),
		attribute.String("loan.payment_frequency", req.PaymentFrequency),
	)

	startDate, err := common.ParseDate(req.StartDate, today())
	if err != nil {
		return nil, err
	}
	asOf, err := common.ParseDate(req.AsOf, today())
	if err != nil {
		return nil, err
	}

	schedule, err := f.engine.Reconstruct(financing.PersistedLoan{
		TotalRepayment:   req.TotalRepayment,
		TotalPaid:        req.TotalPaid,
		NoOfInstallments: req.NoOfInstallments,
		PaymentFrequency: req.PaymentFrequency,
		StartDate:        startDate,
	}, asOf)
	if err != nil {
		return nil, err
	}

	f.schedulesBuilt.Add(ctx, 1, metric.WithAttributes(attribute.String("source", "direct")))

	return &dto.ScheduleResponse{
		AsOf:     asOf.Format(time.DateOnly),
		Schedule: schedule,
		Summary:  financing.Summarize(schedule),
	}, nil
}

// sessionKey normalizes paymentType so that "Weekly" and "weekly" address
// the same session.
func (f *financingService) sessionKey(paymentType string) (string, error) {
	frequency, err := f.engine.ParseFrequency(paymentType)
	if err != nil {
		return "", err
	}
	return string(frequency), nil
}

// SaveSession implements FinancingServices. The stored inputs are not run
// through the engine; a session may hold a quote that is still being edited.
func (f *financingService) SaveSession(ctx context.Context, userID uint64, paymentType string, req dto.SessionRequest) (_ *domain.QuoteSession, err error) {
	ctx, span, start := f.begin(ctx, "service.SaveSession", "save_session")
	defer span.End()
	defer func() { f.finish(ctx, span, "save_session", start, err) }()

	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.String("session.payment_type", paymentType),
	)

	key, err := f.sessionKey(paymentType)
	if err != nil {
		return nil, err
	}

	session := domain.QuoteSession{
		PremiumAmount:    req.PremiumAmount,
		InitialDeposit:   req.InitialDeposit,
		Duration:         req.Duration,
		DurationUnit:     financing.DurationUnit(req.DurationUnit),
		PaymentFrequency: req.PaymentFrequency,
		QuoteType:        req.QuoteType,
		CustomerID:       req.CustomerID,
		UpdatedAt:        time.Now().UTC(),
	}
	if session.PaymentFrequency == "" {
		session.PaymentFrequency = key
	}

	if err = f.sessionRepository.Save(ctx, userID, key, session, f.sessionTTL); err != nil {
		return nil, err
	}

	return &session, nil
}

// GetSession implements FinancingServices.
func (f *financingService) GetSession(ctx context.Context, userID uint64, paymentType string) (_ *domain.QuoteSession, err error) {
	ctx, span, start := f.begin(ctx, "service.GetSession", "get_session")
	defer span.End()
	defer func() {
		// A missing session is an expected answer, not a failure.
		if errors.Is(err, common.ErrSessionNotFound) {
			f.finish(ctx, span, "get_session", start, nil)
			return
		}
		f.finish(ctx, span, "get_session", start, err)
	}()

	key, err := f.sessionKey(paymentType)
	if err != nil {
		return nil, err
	}

	return f.sessionRepository.Find(ctx, userID, key)
}

// DeleteSession implements FinancingServices.
func (f *financingService) DeleteSession(ctx context.Context, userID uint64, paymentType string) (err error) {
	ctx, span, start := f.begin(ctx, "service.DeleteSession", "delete_session")
	defer span.End()
	defer func() { f.finish(ctx, span, "delete_session", start, err) }()

	key, err := f.sessionKey(paymentType)
	if err != nil {
		return err
	}

	return f.sessionRepository.Delete(ctx, userID, key)
}

func NewFinancingService(
	engine *financing.Engine,
	sessionRepository repository.SessionRepository,
	sessionTTL time.Duration,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.FinancingServices {
	operationDuration, _ := meter.Float64Histogram(
		"service.operation.duration",
		metric.WithDescription("Duration of service operations"),
		metric.WithUnit("ms"),
	)

	operationCount, _ := meter.Int64Counter(
		"service.operation.count",
		metric.WithDescription("Number of service operations"),
		metric.WithUnit("{operation}"),
	)

	errorCount, _ := meter.Int64Counter(
		"service.error.count",
		metric.WithDescription("Number of service errors"),
		metric.WithUnit("{error}"),
	)

	schedulesBuilt, _ := meter.Int64Counter(
		"service.schedules.built",
		metric.WithDescription("Number of repayment schedules generated"),
		metric.WithUnit("{schedule}"),
	)

	return &financingService{
		engine:            engine,
		sessionRepository: sessionRepository,
		sessionTTL:        sessionTTL,

		meter:  meter,
		tracer: tracer,
		log:    log,

		operationDuration: operationDuration,
		operationCount:    operationCount,
		errorCount:        errorCount,
		schedulesBuilt:    schedulesBuilt,
	}
}
