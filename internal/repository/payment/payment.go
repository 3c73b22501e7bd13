package paymentrepo

import (
	"context"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const table = "loan_payments"

type paymentRepository struct {
	db                 *gorm.DB
	meter              metric.Meter
	tracer             trace.Tracer
	log                *zap.Logger
	queryDuration      metric.Float64Histogram
	queryCount         metric.Int64Counter
	errorCount         metric.Int64Counter
	documentsInserted  metric.Int64Counter
	documentsRetrieved metric.Int64Counter
}

func (p *paymentRepository) recordError(ctx context.Context, span trace.Span, operation string, start time.Time, err error, message string, fields ...zap.Field) {
	span.SetStatus(codes.Error, message)
	span.RecordError(err)

	p.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
		attribute.String("error", err.Error()),
	))
	p.queryDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
		attribute.String("status", "error"),
	))

	p.log.Error(message, append(fields,
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err),
	)...)
}

// Create implements PaymentRepository.
func (p *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	ctx, span := p.tracer.Start(ctx, "repository.CreatePayment")
	defer span.End()
	start := time.Now()

	p.queryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", "insert"),
		attribute.String("table", table),
	))
	span.SetAttributes(
		attribute.Int64("loan.id", int64(payment.LoanID)),
		attribute.String("payment.reference", payment.Reference),
		attribute.String("payment.amount", payment.Amount.String()),
	)

	data := model.PaymentFromEntity(payment)
	if err := p.db.WithContext(ctx).Create(&data).Error; err != nil {
		p.recordError(ctx, span, "insert", start, err, "Failed to create payment",
			zap.Uint64("loan_id", payment.LoanID),
			zap.String("reference", payment.Reference),
		)
		return err
	}

	payment.ID = data.ID
	payment.CreatedAt = data.CreatedAt

	duration := float64(time.Since(start).Milliseconds())
	p.queryDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("operation", "insert"),
		attribute.String("table", table),
		attribute.String("status", "success"),
	))
	p.documentsInserted.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))

	span.SetStatus(codes.Ok, "Payment created")
	p.log.Debug("Payment created",
		zap.Uint64("payment_id", payment.ID),
		zap.Uint64("loan_id", payment.LoanID),
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)

	return nil
}

// FindByLoanID implements PaymentRepository. Entries come back in the
// order they were paid.
func (p *paymentRepository) FindByLoanID(ctx context.Context, loanID uint64) ([]domain.Payment, error) {
	ctx, span := p.tracer.Start(ctx, "repository.FindPaymentsByLoanID")
	defer span.End()
	start := time.Now()

	p.queryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", "select"),
		attribute.String("table", table),
	))
	span.SetAttributes(attribute.Int64("loan.id", int64(loanID)))

	var payments []model.Payment
	if err := p.db.WithContext(ctx).
		Where("loan_id = ?", loanID).
		Order("paid_at ASC").
		Order("id ASC").
		Find(&payments).Error; err != nil {
		p.recordError(ctx, span, "select", start, err, "Failed to find payments", zap.Uint64("loan_id", loanID))
		return nil, err
	}

	duration := float64(time.Since(start).Milliseconds())
	p.queryDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("operation", "select"),
		attribute.String("table", table),
		attribute.String("status", "success"),
	))
	p.documentsRetrieved.Add(ctx, int64(len(payments)), metric.WithAttributes(attribute.String("table", table)))

	span.SetAttributes(attribute.Int("result.count", len(payments)))
	span.SetStatus(codes.Ok, "Payments found")

	return model.PaymentsToEntity(payments), nil
}

func NewPaymentRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.PaymentRepository {
	queryDuration, _ := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Duration of database queries"),
		metric.WithUnit("ms"),
	)

	queryCount, _ := meter.Int64Counter(
		"db.query.count",
		metric.WithDescription("Number of database queries"),
		metric.WithUnit("{query}"),
	)

	errorCount, _ := meter.Int64Counter(
		"db.error.count",
		metric.WithDescription("Number of database errors"),
		metric.WithUnit("{error}"),
	)

	documentsInserted, _ := meter.Int64Counter(
		"db.rows.inserted",
		metric.WithDescription("Number of rows inserted"),
		metric.WithUnit("{row}"),
	)

	documentsRetrieved, _ := meter.Int64Counter(
		"db.rows.retrieved",
		metric.WithDescription("Number of rows retrieved"),
		metric.WithUnit("{row}"),
	)

	return &paymentRepository{
		db:                 db,
		meter:              meter,
		tracer:             tracer,
		log:                log,
		queryDuration:      queryDuration,
		queryCount:         queryCount,
		errorCount:         errorCount,
		documentsInserted:  documentsInserted,
		documentsRetrieved: documentsRetrieved,
	}
}
