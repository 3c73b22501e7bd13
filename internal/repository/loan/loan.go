package loanrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/model"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"
	"github.com/fazamuttaqien/ipap-financing/pkg/common"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const table = "loans"

type loanRepository struct {
	db                 *gorm.DB
	meter              metric.Meter
	tracer             trace.Tracer
	log                *zap.Logger
	queryDuration      metric.Float64Histogram
	queryCount         metric.Int64Counter
	errorCount         metric.Int64Counter
	connectionGauge    metric.Int64UpDownCounter
	documentsInserted  metric.Int64Counter
	documentsRetrieved metric.Int64Counter
}

// begin opens the span and bumps the per-operation counters. The returned
// func must be deferred to release the connection gauge.
func (l *loanRepository) begin(ctx context.Context, name, operation string) (context.Context, trace.Span, func()) {
	ctx, span := l.tracer.Start(ctx, name)

	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
	)
	l.connectionGauge.Add(ctx, 1, attrs)
	l.queryCount.Add(ctx, 1, attrs)

	span.SetAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.table", table),
	)

	return ctx, span, func() {
		l.connectionGauge.Add(ctx, -1, attrs)
		span.End()
	}
}

func (l *loanRepository) recordError(ctx context.Context, span trace.Span, operation string, start time.Time, err error, message string, fields ...zap.Field) {
	span.SetStatus(codes.Error, message)
	span.RecordError(err)

	l.errorCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
		attribute.String("error", err.Error()),
	))

	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
		attribute.String("status", "error"),
	))

	l.log.Error(message, append(fields,
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.Error(err),
	)...)
}

func (l *loanRepository) recordSuccess(ctx context.Context, span trace.Span, operation string, start time.Time, message string, fields ...zap.Field) {
	duration := float64(time.Since(start).Milliseconds())
	l.queryDuration.Record(ctx, duration, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("table", table),
		attribute.String("status", "success"),
	))

	span.SetStatus(codes.Ok, message)
	l.log.Debug(message, append(fields,
		zap.Float64("duration_ms", duration),
		zap.String("trace_id", span.SpanContext().TraceID().String()),
	)...)
}

// Create implements LoanRepository.
func (l *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	ctx, span, done := l.begin(ctx, "repository.CreateLoan", "insert")
	defer done()
	start := time.Now()

	span.SetAttributes(
		attribute.String("loan.contract_number", loan.ContractNumber),
		attribute.Int64("customer.id", int64(loan.CustomerID)),
	)

	data := model.LoanFromEntity(loan)
	if err := l.db.WithContext(ctx).Create(&data).Error; err != nil {
		l.recordError(ctx, span, "insert", start, err, "Failed to create loan",
			zap.String("contract_number", loan.ContractNumber),
			zap.Uint64("customer_id", loan.CustomerID),
		)
		return err
	}

	loan.ID = data.ID
	loan.CreatedAt = data.CreatedAt
	loan.UpdatedAt = data.UpdatedAt

	l.documentsInserted.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))
	l.recordSuccess(ctx, span, "insert", start, "Loan created",
		zap.Uint64("loan_id", loan.ID),
		zap.String("contract_number", loan.ContractNumber),
	)

	return nil
}

func (l *loanRepository) findByID(ctx context.Context, id uint64, lock bool) (*domain.Loan, error) {
	operation := "select"
	name := "repository.FindLoanByID"
	if lock {
		operation = "select_for_update"
		name = "repository.FindLoanByIDWithLock"
	}

	ctx, span, done := l.begin(ctx, name, operation)
	defer done()
	start := time.Now()

	span.SetAttributes(attribute.Int64("loan.id", int64(id)))

	query := l.db.WithContext(ctx)
	if lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var loan model.Loan
	if err := query.First(&loan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, "Loan not found")
			l.log.Debug("Loan not found", zap.Uint64("loan_id", id))
			return nil, fmt.Errorf("%w: id %d", common.ErrLoanNotFound, id)
		}

		l.recordError(ctx, span, operation, start, err, "Failed to find loan", zap.Uint64("loan_id", id))
		return nil, err
	}

	l.documentsRetrieved.Add(ctx, 1, metric.WithAttributes(attribute.String("table", table)))
	l.recordSuccess(ctx, span, operation, start, "Loan found", zap.Uint64("loan_id", id))

	return model.LoanToEntity(loan), nil
}

// FindByID implements LoanRepository.
func (l *loanRepository) FindByID(ctx context.Context, id uint64) (*domain.Loan, error) {
	return l.findByID(ctx, id, false)
}

// FindByIDWithLock implements LoanRepository. It must run inside a
// transaction; the row stays locked until the transaction ends.
func (l *loanRepository) FindByIDWithLock(ctx context.Context, id uint64) (*domain.Loan, error) {
	return l.findByID(ctx, id, true)
}

// FindPaginatedByCustomerID implements LoanRepository.
func (l *loanRepository) FindPaginatedByCustomerID(ctx context.Context, customerID uint64, params domain.Params) ([]domain.Loan, int64, error) {
	ctx, span, done := l.begin(ctx, "repository.FindLoansPaginated", "select_paginated")
	defer done()
	start := time.Now()

	span.SetAttributes(
		attribute.Int64("customer.id", int64(customerID)),
		attribute.Int("pagination.page", params.Page),
		attribute.Int("pagination.limit", params.Limit),
		attribute.String("filter.status", params.Status),
	)

	query := l.db.WithContext(ctx).Model(&model.Loan{})
	if customerID != 0 {
		query = query.Where("customer_id = ?", customerID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		l.recordError(ctx, span, "count", start, err, "Error counting loans", zap.Uint64("customer_id", customerID))
		return nil, 0, err
	}

	var loans []model.Loan
	offset := (params.Page - 1) * params.Limit
	if err := query.Order("created_at DESC").Order("id DESC").Limit(params.Limit).Offset(offset).Find(&loans).Error; err != nil {
		l.recordError(ctx, span, "select_paginated", start, err, "Error finding loans paginated", zap.Uint64("customer_id", customerID))
		return nil, 0, err
	}

	l.documentsRetrieved.Add(ctx, int64(len(loans)), metric.WithAttributes(attribute.String("table", table)))
	span.SetAttributes(
		attribute.Int64("result.total", total),
		attribute.Int("result.retrieved", len(loans)),
	)
	l.recordSuccess(ctx, span, "select_paginated", start, "Loans found paginated",
		zap.Uint64("customer_id", customerID),
		zap.Int64("total", total),
		zap.Int("retrieved", len(loans)),
	)

	return model.LoansToEntity(loans), total, nil
}

// UpdatePaid implements LoanRepository.
func (l *loanRepository) UpdatePaid(ctx context.Context, id uint64, totalPaid decimal.Decimal, status domain.LoanStatus) error {
	ctx, span, done := l.begin(ctx, "repository.UpdateLoanPaid", "update")
	defer done()
	start := time.Now()

	span.SetAttributes(
		attribute.Int64("loan.id", int64(id)),
		attribute.String("loan.total_paid", totalPaid.String()),
		attribute.String("loan.status", string(status)),
	)

	result := l.db.WithContext(ctx).Model(&model.Loan{}).Where("id = ?", id).Updates(map[string]any{
		"total_paid": totalPaid,
		"status":     string(status),
	})
	if result.Error != nil {
		l.recordError(ctx, span, "update", start, result.Error, "Failed to update loan payment totals", zap.Uint64("loan_id", id))
		return result.Error
	}
	if result.RowsAffected == 0 {
		span.SetStatus(codes.Error, "Loan not found")
		return fmt.Errorf("%w: id %d", common.ErrLoanNotFound, id)
	}

	l.recordSuccess(ctx, span, "update", start, "Loan payment totals updated",
		zap.Uint64("loan_id", id),
		zap.String("total_paid", totalPaid.String()),
		zap.String("status", string(status)),
	)

	return nil
}

func NewLoanRepository(
	db *gorm.DB,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.LoanRepository {
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

	connectionGauge, _ := meter.Int64UpDownCounter(
		"db.connections.active",
		metric.WithDescription("Number of active database operations"),
		metric.WithUnit("{connection}"),
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

	return &loanRepository{
		db:                 db,
		meter:              meter,
		tracer:             tracer,
		log:                log,
		queryDuration:      queryDuration,
		queryCount:         queryCount,
		errorCount:         errorCount,
		connectionGauge:    connectionGauge,
		documentsInserted:  documentsInserted,
		documentsRetrieved: documentsRetrieved,
	}
}
