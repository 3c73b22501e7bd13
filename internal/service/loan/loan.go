package loansrv

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/dto"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"
	loanrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/loan"
	paymentrepo "github.com/fazamuttaqien/ipap-financing/internal/repository/payment"
	"github.com/fazamuttaqien/ipap-financing/internal/service"
	"github.com/fazamuttaqien/ipap-financing/pkg/common"
	"github.com/fazamuttaqien/ipap-financing/pkg/financing"
	"github.com/fazamuttaqien/ipap-financing/pkg/metrics"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

type loanService struct {
	db                *gorm.DB
	engine            *financing.Engine
	loanRepository    repository.LoanRepository
	paymentRepository repository.PaymentRepository

	meter  metric.Meter
	tracer trace.Tracer
	log    *zap.Logger

	operationDuration metric.Float64Histogram
	operationCount    metric.Int64Counter
	errorCount        metric.Int64Counter
	loansCreated      metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
}

func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

func errorType(err error) string {
	switch {
	case errors.Is(err, common.ErrLoanNotFound):
		return "loan_not_found"
	case errors.Is(err, common.ErrForbidden):
		return "forbidden"
	case errors.Is(err, common.ErrOverpayment):
		return "overpayment"
	case errors.Is(err, common.ErrLoanClosed):
		return "loan_closed"
	case errors.Is(err, common.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, common.ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, common.ErrCustomerMissing):
		return "customer_missing"
	case financing.IsValidationError(err):
		return financing.ErrorType(err)
	default:
		return "internal"
	}
}

func (l *loanService) begin(ctx context.Context, name, operation string, actor domain.Actor) (context.Context, trace.Span, time.Time) {
	ctx, span := l.tracer.Start(ctx, name)
	l.operationCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("service", "loan"),
	))
	span.SetAttributes(
		attribute.String("service", "loan"),
		attribute.Int64("actor.id", int64(actor.UserID)),
		attribute.String("actor.role", string(actor.Role)),
	)
	return ctx, span, time.Now()
}

func (l *loanService) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		kind := errorType(err)

		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		l.errorCount.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("service", "loan"),
			attribute.String("error_type", kind),
		))

		fields := []zap.Field{
			zap.String("operation", operation),
			zap.String("error_type", kind),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		}
		if kind == "internal" {
			l.log.Error("Loan operation failed", fields...)
		} else {
			l.log.Warn("Loan operation rejected", fields...)
		}
	} else {
		span.SetStatus(codes.Ok, operation)
	}

	l.operationDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("service", "loan"),
		attribute.String("status", status),
	))
}

func newContractNumber() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "IPAP-" + strings.ToUpper(id[:12])
}

// CreateLoan implements LoanServices. Totals are always recomputed from the
// raw inputs.
func (l *loanService) CreateLoan(ctx context.Context, actor domain.Actor, req dto.CreateLoanRequest) (_ *domain.Loan, err error) {
	ctx, span, start := l.begin(ctx, "service.CreateLoan", "create_loan", actor)
	defer span.End()
	defer func() { l.finish(ctx, span, "create_loan", start, err) }()

	customerID := req.CustomerID
	if actor.Role == domain.CustomerRole {
		customerID = actor.UserID
	}
	if customerID == 0 {
		return nil, common.ErrCustomerMissing
	}

	startDate, err := common.ParseDate(req.StartDate, today())
	if err != nil {
		return nil, err
	}

	result, err := l.engine.Calculate(financing.Input{
		PremiumAmount:    req.PremiumAmount,
		InitialDeposit:   req.InitialDeposit,
		Duration:         req.Duration,
		DurationUnit:     financing.DurationUnit(req.DurationUnit),
		PaymentFrequency: req.PaymentFrequency,
		QuoteType:        req.QuoteType,
	}, startDate)
	if err != nil {
		metrics.CalculationErrors.WithLabelValues("create_loan", financing.ErrorType(err)).Inc()
		return nil, err
	}

	unit := financing.DurationUnit(req.DurationUnit)
	if unit == "" {
		unit = financing.DurationMonths
	}

	loan := &domain.Loan{
		ContractNumber:      newContractNumber(),
		CustomerID:          customerID,
		CreatedBy:           actor.UserID,
		QuoteType:           req.QuoteType,
		PaymentFrequency:    result.PaymentFrequency,
		Duration:            req.Duration,
		DurationUnit:        unit,
		PremiumAmount:       financing.Money(req.PremiumAmount),
		InitialDeposit:      financing.Money(req.InitialDeposit),
		StickerFee:          result.StickerFee,
		ActualProcessingFee: result.ActualProcessingFee,
		LoanAmount:          result.LoanAmount,
		InterestRate:        result.InterestRate,
		TotalInterest:       result.TotalInterestValue,
		TotalRepayment:      result.TotalRepayment,
		TotalPaid:           result.TotalPaid,
		NoOfInstallments:    result.NoOfInstallments,
		Status:              domain.LoanActive,
		StartDate:           startDate,
	}

	span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.String("loan.contract_number", loan.ContractNumber),
		attribute.String("loan.total_repayment", loan.TotalRepayment.String()),
	)

	if err = l.loanRepository.Create(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to create loan: %w", err)
	}

	metrics.Calculations.WithLabelValues("create_loan", "success").Inc()
	metrics.LoansCreated.WithLabelValues(string(loan.PaymentFrequency), loan.QuoteType).Inc()
	l.loansCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_frequency", string(loan.PaymentFrequency)),
	))

	l.log.Info("Loan created",
		zap.Uint64("loan_id", loan.ID),
		zap.String("contract_number", loan.ContractNumber),
		zap.Uint64("customer_id", customerID),
		zap.Uint64("created_by", actor.UserID),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return loan, nil
}

func (l *loanService) findAccessible(ctx context.Context, actor domain.Actor, loanID uint64) (*domain.Loan, error) {
	loan, err := l.loanRepository.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(loan.CustomerID) {
		return nil, common.ErrForbidden
	}
	return loan, nil
}

// GetLoan implements LoanServices.
func (l *loanService) GetLoan(ctx context.Context, actor domain.Actor, loanID uint64) (_ *domain.Loan, err error) {
	ctx, span, start := l.begin(ctx, "service.GetLoan", "get_loan", actor)
	defer span.End()
	defer func() { l.finish(ctx, span, "get_loan", start, err) }()

	span.SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	return l.findAccessible(ctx, actor, loanID)
}

// ListLoans implements LoanServices.
func (l *loanService) ListLoans(ctx context.Context, actor domain.Actor, customerID uint64, params domain.Params) (_ *domain.Paginated, err error) {
	ctx, span, start := l.begin(ctx, "service.ListLoans", "list_loans", actor)
	defer span.End()
	defer func() { l.finish(ctx, span, "list_loans", start, err) }()

	if actor.Role == domain.CustomerRole {
		customerID = actor.UserID
	}
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = defaultLimit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("pagination.page", params.Page),
		attribute.Int("pagination.limit", params.Limit),
	)

	loans, total, err := l.loanRepository.FindPaginatedByCustomerID(ctx, customerID, params)
	if err != nil {
		return nil, err
	}

	return &domain.Paginated{
		Data:       dto.LoanResponsesFromEntities(loans),
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(params.Limit))),
	}, nil
}

// GetSchedule implements LoanServices.
func (l *loanService) GetSchedule(ctx context.Context, actor domain.Actor, loanID uint64, asOf time.Time) (_ *dto.ScheduleResponse, err error) {
	ctx, span, start := l.begin(ctx, "service.GetLoanSchedule", "get_schedule", actor)
	defer span.End()
	defer func() { l.finish(ctx, span, "get_schedule", start, err) }()

	if asOf.IsZero() {
		asOf = today()
	}
	span.SetAttributes(
		attribute.Int64("loan.id", int64(loanID)),
		attribute.String("schedule.as_of", asOf.Format(time.DateOnly)),
	)

	loan, err := l.findAccessible(ctx, actor, loanID)
	if err != nil {
		return nil, err
	}

	schedule, err := l.engine.Reconstruct(loan.Persisted(), asOf)
	if err != nil {
		return nil, err
	}
	metrics.Calculations.WithLabelValues("loan_schedule", "success").Inc()

	return &dto.ScheduleResponse{
		LoanID:   loan.ID,
		AsOf:     asOf.Format(time.DateOnly),
		Schedule: schedule,
		Summary:  financing.Summarize(schedule),
	}, nil
}

// RecordPayment implements LoanServices. The loan row stays locked from the
// balance check until the journal entry and the new total are committed.
func (l *loanService) RecordPayment(ctx context.Context, actor domain.Actor, loanID uint64, req dto.RecordPaymentRequest) (_ *dto.RecordPaymentResponse, err error) {
	ctx, span, start := l.begin(ctx, "service.RecordPayment", "record_payment", actor)
	defer span.End()
	defer func() {
		l.finish(ctx, span, "record_payment", start, err)
		status := "success"
		if err != nil {
			status = errorType(err)
		}
		metrics.PaymentsRecorded.WithLabelValues(status).Inc()
	}()

	span.SetAttributes(
		attribute.Int64("loan.id", int64(loanID)),
		attribute.String("payment.amount", req.Amount.String()),
		attribute.String("payment.method", req.Method),
	)

	if !req.Amount.IsPositive() || !req.Amount.Equal(req.Amount.Round(2)) {
		return nil, common.ErrInvalidAmount
	}

	paidAt, err := common.ParseDate(req.PaidAt, today())
	if err != nil {
		return nil, err
	}

	reference := req.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	tx := l.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	loanTx := loanrepo.NewLoanRepository(tx, l.meter, l.tracer, l.log)
	paymentTx := paymentrepo.NewPaymentRepository(tx, l.meter, l.tracer, l.log)

	loan, err := loanTx.FindByIDWithLock(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(loan.CustomerID) {
		return nil, common.ErrForbidden
	}
	if loan.Status != domain.LoanActive {
		return nil, common.ErrLoanClosed
	}

	balance := loan.Balance()
	if req.Amount.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: balance %s, payment %s", common.ErrOverpayment, balance, req.Amount)
	}

	payment := &domain.Payment{
		LoanID:     loan.ID,
		Reference:  reference,
		Amount:     req.Amount,
		Method:     req.Method,
		RecordedBy: actor.UserID,
		PaidAt:     paidAt,
	}
	if err = paymentTx.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	loan.TotalPaid = loan.TotalPaid.Add(req.Amount)
	if loan.Balance().IsZero() {
		loan.Status = domain.LoanPaidOff
	}
	if err = loanTx.UpdatePaid(ctx, loan.ID, loan.TotalPaid, loan.Status); err != nil {
		return nil, err
	}

	if err = tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	l.paymentsRecorded.Add(ctx, 1, metric.WithAttributes(attribute.String("method", req.Method)))
	l.log.Info("Payment recorded",
		zap.Uint64("loan_id", loan.ID),
		zap.String("reference", payment.Reference),
		zap.String("amount", payment.Amount.String()),
		zap.String("balance", loan.Balance().String()),
		zap.String("status", string(loan.Status)),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return &dto.RecordPaymentResponse{
		Payment: dto.PaymentResponseFromEntity(payment),
		Loan:    dto.LoanResponseFromEntity(loan),
	}, nil
}

// ListPayments implements LoanServices.
func (l *loanService) ListPayments(ctx context.Context, actor domain.Actor, loanID uint64) (_ []domain.Payment, err error) {
	ctx, span, start := l.begin(ctx, "service.ListPayments", "list_payments", actor)
	defer span.End()
	defer func() { l.finish(ctx, span, "list_payments", start, err) }()

	span.SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	if _, err = l.findAccessible(ctx, actor, loanID); err != nil {
		return nil, err
	}

	return l.paymentRepository.FindByLoanID(ctx, loanID)
}

func NewLoanService(
	db *gorm.DB,
	engine *financing.Engine,
	loanRepository repository.LoanRepository,
	paymentRepository repository.PaymentRepository,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) service.LoanServices {
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

	loansCreated, _ := meter.Int64Counter(
		"service.loans.created",
		metric.WithDescription("Number of loans created"),
		metric.WithUnit("{loan}"),
	)

	paymentsRecorded, _ := meter.Int64Counter(
		"service.payments.recorded",
		metric.WithDescription("Number of loan payments recorded"),
		metric.WithUnit("{payment}"),
	)

	return &loanService{
		db:                db,
		engine:            engine,
		loanRepository:    loanRepository,
		paymentRepository: paymentRepository,

		meter:  meter,
		tracer: tracer,
		log:    log,

		operationDuration: operationDuration,
		operationCount:    operationCount,
		errorCount:        errorCount,
		loansCreated:      loansCreated,
		paymentsRecorded:  paymentsRecorded,
	}
}
