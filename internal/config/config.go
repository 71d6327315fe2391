// Package config loads process configuration from the environment, with an
// optional .env file for local runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tripgauge/tripgauge/internal/database"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Trip sources.
const (
	SourceNone      = "none"
	SourceSimulator = "simulator"
	SourcePubSub    = "pubsub"
	SourceKafka     = "kafka"
)

// Config is the configuration of the API process.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	Storage  string
	Database database.Config
	Migrate  bool

	// RedisAddr empty keeps widget positions in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWT JWTConfig

	// AllowedOrigins are the renderer origins allowed for CORS and the
	// overlay stream.
	AllowedOrigins []string
	RequireTLS     bool

	OTLPEndpoint     string
	TelemetryEnabled bool
	TraceSampleRatio float64

	OverlayAutoHide  time.Duration
	SettingsCacheTTL time.Duration

	TripSource string
	Simulator  SimulatorConfig
	PubSub     PubSubConfig
	Kafka      KafkaConfig
}

// JWTConfig configures driver token verification.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// SimulatorConfig configures simulated offers.
type SimulatorConfig struct {
	DriverIDs []string
	Interval  time.Duration
	Seed      int64
}

// PubSubConfig configures Google Cloud Pub/Sub.
type PubSubConfig struct {
	ProjectID    string
	Subscription string
	Topic        string
}

// KafkaConfig configures Kafka.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

func defaults() Config {
	return Config{
		Port:            "8080",
		Env:             "development",
		LogLevel:        "info",
		ShutdownTimeout: 30 * time.Second,
		Storage:         StoragePostgres,
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			User:            "tripgauge",
			Password:        "localdev",
			Database:        "tripgauge",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		JWT: JWTConfig{
			Issuer:   "https://api.tripgauge.dev",
			Audience: "tripgauge-api",
		},
		OTLPEndpoint:     "localhost:4317",
		TraceSampleRatio: 0.1,
		OverlayAutoHide:  15 * time.Second,
		SettingsCacheTTL: 30 * time.Second,
		TripSource:       SourceNone,
		Simulator: SimulatorConfig{
			Interval: 20 * time.Second,
		},
		PubSub: PubSubConfig{
			Subscription: "trip-offers-api",
			Topic:        "trip-offers",
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "trip-offers",
			GroupID: "tripgauge-api",
		},
	}
}

// Load reads the configuration. Every malformed variable is reported, joined
// into one error.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := defaults()
	var errs []error

	setString(&cfg.Port, "APP_PORT")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	setDuration(&cfg.ShutdownTimeout, "SHUTDOWN_TIMEOUT", &errs)

	setString(&cfg.Storage, "STORAGE")
	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT", &errs)
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSL_MODE")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS", &errs)
	setInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS", &errs)
	setDuration(&cfg.Database.ConnMaxLifetime, "DB_CONN_MAX_LIFETIME", &errs)
	setBool(&cfg.Migrate, "DB_MIGRATE", &errs)

	setString(&cfg.RedisAddr, "REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setInt(&cfg.RedisDB, "REDIS_DB", &errs)

	setString(&cfg.JWT.SigningKey, "JWT_SIGNING_KEY")
	setString(&cfg.JWT.Issuer, "JWT_ISSUER")
	setString(&cfg.JWT.Audience, "JWT_AUDIENCE")

	setList(&cfg.AllowedOrigins, "CORS_ALLOWED_ORIGINS")
	setBool(&cfg.RequireTLS, "REQUIRE_TLS", &errs)

	setString(&cfg.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	setBool(&cfg.TelemetryEnabled, "OTEL_ENABLED", &errs)
	setFloat(&cfg.TraceSampleRatio, "OTEL_SAMPLE_RATIO", &errs)

	setDuration(&cfg.OverlayAutoHide, "OVERLAY_AUTO_HIDE", &errs)
	setDuration(&cfg.SettingsCacheTTL, "SETTINGS_CACHE_TTL", &errs)

	setString(&cfg.TripSource, "TRIP_SOURCE")
	setList(&cfg.Simulator.DriverIDs, "SIMULATOR_DRIVER_IDS")
	setDuration(&cfg.Simulator.Interval, "SIMULATOR_INTERVAL", &errs)
	setInt64(&cfg.Simulator.Seed, "SIMULATOR_SEED", &errs)
	setString(&cfg.PubSub.ProjectID, "PUBSUB_PROJECT_ID")
	setString(&cfg.PubSub.Subscription, "PUBSUB_SUBSCRIPTION")
	setString(&cfg.PubSub.Topic, "PUBSUB_TOPIC")
	setList(&cfg.Kafka.Brokers, "KAFKA_BROKERS")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")
	setString(&cfg.Kafka.GroupID, "KAFKA_GROUP")

	errs = append(errs, cfg.validate()...)
	return cfg, errors.Join(errs...)
}

func (c Config) validate() []error {
	var errs []error

	switch c.Storage {
	case StorageMemory, StoragePostgres:
	default:
		errs = append(errs, fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.Storage))
	}

	switch c.TripSource {
	case SourceNone:
	case SourceSimulator:
		if len(c.Simulator.DriverIDs) == 0 {
			errs = append(errs, errors.New("SIMULATOR_DRIVER_IDS is required when TRIP_SOURCE=simulator"))
		}
	case SourcePubSub:
		if c.PubSub.ProjectID == "" {
			errs = append(errs, errors.New("PUBSUB_PROJECT_ID is required when TRIP_SOURCE=pubsub"))
		}
	case SourceKafka:
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("KAFKA_BROKERS is required when TRIP_SOURCE=kafka"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown TRIP_SOURCE %q", c.TripSource))
	}

	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errs = append(errs, errors.New("OTEL_SAMPLE_RATIO must be between 0 and 1"))
	}
	if c.OverlayAutoHide <= 0 {
		errs = append(errs, errors.New("OVERLAY_AUTO_HIDE must be positive"))
	}
	if c.IsProduction() && c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required in production"))
	}
	return errs
}

// IsProduction reports whether the process runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func setString(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func setList(target *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	out := make([]string, 0)
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*target = out
}

func setInt(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setInt64(target *int64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setFloat(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setBool(target *bool, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = b
	}
}

func setDuration(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}
