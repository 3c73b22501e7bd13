package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// RequestMetrics records per-route HTTP metrics and an access log line.
// Spans come from otelfiber, which must run before it.
type RequestMetrics struct {
	log                 *zap.Logger
	httpRequestCounter  metric.Int64Counter
	httpRequestDuration metric.Float64Histogram
	httpRequestSize     metric.Int64Histogram
	httpResponseSize    metric.Int64Histogram
	httpActiveRequests  metric.Int64UpDownCounter
}

func NewRequestMetrics(meter metric.Meter, log *zap.Logger) *RequestMetrics {
	httpRequestCounter, err := meter.Int64Counter(
		"http.server.request.count",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		log.Fatal("Failed to create http request count metric", zap.Error(err))
	}

	httpRequestDuration, err := meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("Duration of HTTP requests"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		log.Fatal("Failed to create http request duration metric", zap.Error(err))
	}

	httpRequestSize, err := meter.Int64Histogram(
		"http.server.request.size",
		metric.WithDescription("Size of HTTP requests"),
		metric.WithUnit("By"),
	)
	if err != nil {
		log.Fatal("Failed to create http request size metric", zap.Error(err))
	}

	httpResponseSize, err := meter.Int64Histogram(
		"http.server.response.size",
		metric.WithDescription("Size of HTTP responses"),
		metric.WithUnit("By"),
	)
	if err != nil {
		log.Fatal("Failed to create http response size metric", zap.Error(err))
	}

	httpActiveRequests, err := meter.Int64UpDownCounter(
		"http.server.active.requests",
		metric.WithDescription("Number of in-flight HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		log.Fatal("Failed to create http active requests metric", zap.Error(err))
	}

	return &RequestMetrics{
		log:                 log,
		httpRequestCounter:  httpRequestCounter,
		httpRequestDuration: httpRequestDuration,
		httpRequestSize:     httpRequestSize,
		httpResponseSize:    httpResponseSize,
		httpActiveRequests:  httpActiveRequests,
	}
}

func (m *RequestMetrics) Handle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		method := c.Method()
		start := time.Now()

		inFlight := metric.WithAttributes(attribute.String("http.method", method))
		m.httpActiveRequests.Add(ctx, 1, inFlight)
		defer m.httpActiveRequests.Add(ctx, -1, inFlight)

		err := c.Next()

		// The route pattern keeps loan IDs out of metric labels.
		route := c.Route().Path
		status := c.Response().StatusCode()
		duration := float64(time.Since(start).Nanoseconds()) / 1e6
		reqSize := int64(len(c.Request().Body()))
		respSize := int64(len(c.Response().Body()))

		attrs := metric.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		m.httpRequestCounter.Add(ctx, 1, attrs)
		m.httpRequestDuration.Record(ctx, duration, attrs)
		m.httpRequestSize.Record(ctx, reqSize, attrs)
		m.httpResponseSize.Record(ctx, respSize, attrs)

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("path", c.Path()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Float64("duration_ms", duration),
			zap.Int64("response_size", respSize),
			zap.String("client_ip", c.IP()),
		}
		if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
			fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
		}

		if status >= fiber.StatusInternalServerError {
			m.log.Error("HTTP request completed", fields...)
		} else {
			m.log.Info("HTTP request completed", fields...)
		}

		return err
	}
}
