package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tripgauge/tripgauge/internal/tripsource"
)

// publishMetrics counts simulated offers handed to the broker.
type publishMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	latency   prometheus.Histogram
}

func newPublishMetrics(reg prometheus.Registerer) *publishMetrics {
	m := &publishMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripgauge_simulator",
			Name:      "offers_published_total",
			Help:      "Simulated offers accepted by the broker",
		}, []string{"sink", "platform"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tripgauge_simulator",
			Name:      "offers_failed_total",
			Help:      "Simulated offers the broker rejected",
		}, []string{"sink"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tripgauge_simulator",
			Name:      "publish_duration_seconds",
			Help:      "Time to publish one offer",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.published, m.failed, m.latency)
	return m
}

// publishHandler publishes every simulated offer and records the outcome.
// Errors are returned so the simulator logs them; it keeps generating.
func publishHandler(sink string, pub tripsource.Publisher, m *publishMetrics) tripsource.Handler {
	return func(ctx context.Context, env tripsource.Envelope) error {
		start := time.Now()
		err := pub.Publish(ctx, env)
		m.latency.Observe(time.Since(start).Seconds())
		if err != nil {
			m.failed.WithLabelValues(sink).Inc()
			return err
		}
		m.published.WithLabelValues(sink, env.Offer.Platform).Inc()
		return nil
	}
}
