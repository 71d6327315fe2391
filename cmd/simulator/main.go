// Package main provides the trip offer simulator. It publishes plausible
// offers for a set of drivers to Kafka or Pub/Sub, where the API's trip
// source consumes them.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/config"
	"github.com/tripgauge/tripgauge/internal/tripsource"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "tripgauge-simulator"

	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(level)
	}
	if len(cfg.Simulator.DriverIDs) == 0 {
		log.Fatal().Msg("SIMULATOR_DRIVER_IDS is required")
	}

	log.Info().
		Str("build_time", BuildTime).
		Str("sink", cfg.TripSource).
		Msg("starting TripGauge simulator")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// TRIP_SOURCE names the broker the API consumes, so it is where offers go.
	pub, err := newPublisher(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create publisher")
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close publisher")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := newPublishMetrics(reg)

	// Health and metrics endpoints for the orchestrator
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "version": Version})
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	sim := tripsource.NewSimulator(tripsource.SimulatorConfig{
		DriverIDs: cfg.Simulator.DriverIDs,
		Interval:  cfg.Simulator.Interval,
		Seed:      cfg.Simulator.Seed,
		Logger:    log,
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := sim.Run(ctx, publishHandler(cfg.TripSource, pub, metrics)); err != nil {
			log.Error().Err(err).Msg("simulator stopped")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down simulator")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("simulator stopped")
}

func newPublisher(ctx context.Context, cfg config.Config, log zerolog.Logger) (tripsource.Publisher, error) {
	switch cfg.TripSource {
	case config.SourceKafka:
		return tripsource.NewKafkaPublisher(tripsource.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Logger:  log,
		}), nil
	case config.SourcePubSub:
		return tripsource.NewPubSubPublisher(ctx, tripsource.PubSubConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.Topic,
			Logger:    log,
		})
	default:
		return nil, errors.New("TRIP_SOURCE must be kafka or pubsub for the simulator")
	}
}
