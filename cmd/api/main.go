// Package main provides the entrypoint for the TripGauge API server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/advisor"
	"github.com/tripgauge/tripgauge/internal/api"
	"github.com/tripgauge/tripgauge/internal/api/middleware"
	"github.com/tripgauge/tripgauge/internal/auth"
	"github.com/tripgauge/tripgauge/internal/config"
	"github.com/tripgauge/tripgauge/internal/database"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/profile"
	"github.com/tripgauge/tripgauge/internal/resilience"
	"github.com/tripgauge/tripgauge/internal/settings"
	"github.com/tripgauge/tripgauge/internal/telemetry"
	"github.com/tripgauge/tripgauge/internal/tripsource"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const devSigningKey = "local-dev-signing-key-change-in-production"

func main() {
	const serviceName = "tripgauge-api"

	// Setup structured logging
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

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	log = log.Level(level)

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting TripGauge API")

	// Initialize OpenTelemetry
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TelemetryEnabled,
		SampleRatio:    cfg.TraceSampleRatio,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if tp.Enabled() {
		log.Info().
			Str("otlp_endpoint", cfg.OTLPEndpoint).
			Float64("sample_ratio", cfg.TraceSampleRatio).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Profile and settings storage
	profileRepo, settingsRepo, pool := openRepositories(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
	}

	profileService := profile.NewService(profileRepo)
	settingsService := settings.NewService(settings.ServiceConfig{
		Repository: settingsRepo,
		Logger:     log,
		CacheTTL:   cfg.SettingsCacheTTL,
	})
	log.Info().Str("storage", cfg.Storage).Msg("profile and settings services initialized")

	// Widget positions, written through a guarded persister
	registry := resilience.NewRegistry()
	positionStore, closeStore := openPositionStore(ctx, cfg, log)
	defer closeStore()

	guardCfg := resilience.DefaultGuardConfig("positions")
	guardCfg.Registry = registry
	persister := overlay.NewGuardedPersister(positionStore, resilience.NewGuard(guardCfg), log)

	overlays := overlay.NewManager(overlay.ManagerConfig{
		Store:     positionStore,
		Persister: persister,
		Logger:    log,
		AutoHide:  cfg.OverlayAutoHide,
	})

	adv, err := advisor.New(advisor.Config{
		Profiles: profileService,
		Overlays: overlays,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize advisor")
	}

	// Driver tokens
	signingKey := cfg.JWT.SigningKey
	if signingKey == "" {
		signingKey = devSigningKey
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: signingKey,
		Issuer:     cfg.JWT.Issuer,
		Audience:   cfg.JWT.Audience,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize JWT service")
	}
	if !cfg.IsProduction() {
		logDevTokens(jwtService, cfg.Simulator.DriverIDs, log)
	}

	// Trip source
	sourceCtx, stopSource := context.WithCancel(ctx)
	defer stopSource()
	sourceDone := startTripSource(sourceCtx, cfg, adv, log)

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:        Version,
		BuildTime:      BuildTime,
		Logger:         log,
		ServiceName:    serviceName,
		Metrics:        metrics,
		AllowedOrigins: cfg.AllowedOrigins,
		RequireTLS:     cfg.RequireTLS,
		Tokens:         jwtService,
		Profiles:       profileService,
		Settings:       settingsService,
		Overlays:       overlays,
		Advisor:        adv,
		Registry:       registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	stopSource()
	<-sourceDone

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	// Let pending position writes land before the stores close.
	persister.Wait()

	log.Info().Msg("server stopped")
}

// openRepositories returns the profile and settings repositories for the
// configured storage. The pool is nil for in-memory storage.
func openRepositories(ctx context.Context, cfg config.Config, log zerolog.Logger) (profile.Repository, settings.Repository, *pgxpool.Pool) {
	if cfg.Storage == config.StorageMemory {
		log.Warn().Msg("using in-memory storage - profiles and settings are lost on restart")
		return profile.NewInMemoryRepository(), settings.NewInMemoryRepository(), nil
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Database).
		Msg("database connected")

	if cfg.Migrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().Msg("database schema up to date")
	}

	return profile.NewPostgresRepository(pool), settings.NewPostgresRepository(pool), pool
}

// openPositionStore returns the Redis position store when Redis is
// configured, otherwise an in-memory one.
func openPositionStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (overlay.PositionStore, func()) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("widget positions kept in memory")
		return overlay.NewInMemoryPositionStore(), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// Positions are best-effort; the guard handles Redis coming back.
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at startup")
	} else {
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connected")
	}

	return overlay.NewRedisPositionStore(client), func() {
		if err := client.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis client")
		}
	}
}

type closingSource interface {
	tripsource.Source
	Close() error
}

// startTripSource runs the advisor against the configured source until ctx
// ends. The returned channel closes once the source has stopped.
func startTripSource(ctx context.Context, cfg config.Config, adv *advisor.Advisor, log zerolog.Logger) <-chan struct{} {
	done := make(chan struct{})

	var src tripsource.Source
	switch cfg.TripSource {
	case config.SourceSimulator:
		src = tripsource.NewSimulator(tripsource.SimulatorConfig{
			DriverIDs: cfg.Simulator.DriverIDs,
			Interval:  cfg.Simulator.Interval,
			Seed:      cfg.Simulator.Seed,
			Logger:    log,
		})
	case config.SourcePubSub:
		ps, err := tripsource.NewPubSubSource(ctx, tripsource.PubSubConfig{
			ProjectID:    cfg.PubSub.ProjectID,
			Subscription: cfg.PubSub.Subscription,
			Topic:        cfg.PubSub.Topic,
			Logger:       log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to pubsub")
		}
		src = ps
	case config.SourceKafka:
		src = tripsource.NewKafkaSource(tripsource.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID,
			Logger:  log,
		})
	default:
		log.Info().Msg("no trip source configured, offers arrive through the API only")
		close(done)
		return done
	}

	go func() {
		defer close(done)
		if c, ok := src.(closingSource); ok {
			defer func() {
				if err := c.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close trip source")
				}
			}()
		}

		log.Info().Str("source", cfg.TripSource).Msg("trip source started")
		if err := adv.Consume(ctx, src); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("source", cfg.TripSource).Msg("trip source stopped")
			return
		}
		log.Info().Str("source", cfg.TripSource).Msg("trip source stopped")
	}()

	return done
}

// logDevTokens prints access tokens for the simulated drivers so a local
// renderer can connect without a login flow.
func logDevTokens(tokens *auth.JWTService, driverIDs []string, log zerolog.Logger) {
	for _, id := range driverIDs {
		token, expiresAt, err := tokens.GenerateToken(id)
		if err != nil {
			log.Error().Err(err).Str("driver_id", id).Msg("failed to mint dev token")
			continue
		}
		log.Info().
			Str("driver_id", id).
			Str("token", token).
			Time("expires_at", expiresAt).
			Msg("dev access token")
	}
}
