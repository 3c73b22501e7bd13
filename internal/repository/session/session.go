package sessionrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fazamuttaqien/ipap-financing/internal/domain"
	"github.com/fazamuttaqien/ipap-financing/internal/repository"
	"github.com/fazamuttaqien/ipap-financing/pkg/common"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const keyPrefix = "financing:session"

type sessionRepository struct {
	client       *redis.Client
	tracer       trace.Tracer
	log          *zap.Logger
	opDuration   metric.Float64Histogram
	opErrorCount metric.Int64Counter
}

func Key(userID uint64, paymentType string) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, userID, paymentType)
}

func (s *sessionRepository) observe(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
		s.opErrorCount.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
		s.log.Error("Redis session operation failed",
			zap.String("operation", operation),
			zap.String("trace_id", span.SpanContext().TraceID().String()),
			zap.Error(err),
		)
	} else {
		span.SetStatus(codes.Ok, operation)
	}

	s.opDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}

// Save implements SessionRepository. An existing session for the same user
// and payment type is replaced and its TTL restarted.
func (s *sessionRepository) Save(ctx context.Context, userID uint64, paymentType string, session domain.QuoteSession, ttl time.Duration) (err error) {
	ctx, span := s.tracer.Start(ctx, "repository.SaveQuoteSession")
	defer span.End()
	start := time.Now()
	defer func() { s.observe(ctx, span, "set", start, err) }()

	key := Key(userID, paymentType)
	span.SetAttributes(attribute.String("redis.key", key))

	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, key, payload, ttl).Err()
}

// Find implements SessionRepository.
func (s *sessionRepository) Find(ctx context.Context, userID uint64, paymentType string) (_ *domain.QuoteSession, err error) {
	ctx, span := s.tracer.Start(ctx, "repository.FindQuoteSession")
	defer span.End()
	start := time.Now()

	key := Key(userID, paymentType)
	span.SetAttributes(attribute.String("redis.key", key))

	payload, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.observe(ctx, span, "get", start, nil)
		return nil, common.ErrSessionNotFound
	}
	defer func() { s.observe(ctx, span, "get", start, err) }()
	if err != nil {
		return nil, err
	}

	var session domain.QuoteSession
	if err = json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", key, err)
	}

	return &session, nil
}

// Delete implements SessionRepository. Deleting a missing session is not an
// error.
func (s *sessionRepository) Delete(ctx context.Context, userID uint64, paymentType string) (err error) {
	ctx, span := s.tracer.Start(ctx, "repository.DeleteQuoteSession")
	defer span.End()
	start := time.Now()
	defer func() { s.observe(ctx, span, "del", start, err) }()

	key := Key(userID, paymentType)
	span.SetAttributes(attribute.String("redis.key", key))

	return s.client.Del(ctx, key).Err()
}

func NewSessionRepository(
	client *redis.Client,
	meter metric.Meter,
	tracer trace.Tracer,
	log *zap.Logger,
) repository.SessionRepository {
	opDuration, _ := meter.Float64Histogram(
		"redis.operation.duration",
		metric.WithDescription("Duration of redis operations"),
		metric.WithUnit("ms"),
	)

	opErrorCount, _ := meter.Int64Counter(
		"redis.error.count",
		metric.WithDescription("Number of redis errors"),
		metric.WithUnit("{error}"),
	)

	return &sessionRepository{
		client:       client,
		tracer:       tracer,
		log:          log,
		opDuration:   opDuration,
		opErrorCount: opErrorCount,
	}
}
