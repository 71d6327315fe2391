package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/tripgauge/tripgauge/internal/api/middleware"

// Metrics records per-route HTTP server instruments.
type Metrics struct {
	duration     metric.Float64Histogram
	requests     metric.Int64Counter
	active       metric.Int64UpDownCounter
	responseSize metric.Int64Histogram
}

// NewMetrics creates instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsWithProvider(otel.GetMeterProvider())
}

// NewMetricsWithProvider creates instruments on mp.
func NewMetricsWithProvider(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)

	var m Metrics
	var err, errs error
	m.duration, err = meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("Duration of HTTP server requests"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5))
	errs = errors.Join(errs, err)
	m.requests, err = meter.Int64Counter("http.server.request.count",
		metric.WithDescription("HTTP server requests by route and status"),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)
	m.active, err = meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("HTTP requests in flight, including open overlay streams"),
		metric.WithUnit("{request}"))
	errs = errors.Join(errs, err)
	m.responseSize, err = meter.Int64Histogram("http.server.response.body.size",
		metric.WithDescription("Size of HTTP response bodies"),
		metric.WithUnit("By"))
	errs = errors.Join(errs, err)

	if errs != nil {
		return nil, errs
	}
	return &m, nil
}

// Middleware returns an HTTP middleware that records metrics for each request.
func (m *Metrics) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()

			method := attribute.String("http.request.method", r.Method)
			m.active.Add(ctx, 1, metric.WithAttributes(method))
			defer m.active.Add(ctx, -1, metric.WithAttributes(method))

			sw := wrapWriter(w)
			next.ServeHTTP(sw, r)

			// The route pattern keeps driver and profile IDs out of the series.
			attrs := metric.WithAttributes(
				method,
				attribute.String("http.route", routePattern(r)),
				attribute.Int("http.response.status_code", sw.status),
				attribute.Bool("error", sw.status >= http.StatusInternalServerError),
			)
			m.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			m.requests.Add(ctx, 1, attrs)
			m.responseSize.Record(ctx, sw.written, attrs)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}
