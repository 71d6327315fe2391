// Package database provides PostgreSQL connection management and the schema
// of the profile and settings tables.
package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const pingTimeout = 5 * time.Second

// Config holds database connection configuration.
type Config struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ConnectionString returns the PostgreSQL URL with credentials escaped.
func (c Config) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": {c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Connect opens a pool and verifies it with a bounded ping.
func Connect(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns) //nolint:gosec // bounded by config validation
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns) //nolint:gosec // bounded by config validation
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping %s/%s: %w", cfg.Host, cfg.Database, err)
	}
	return pool, nil
}

// schema is idempotent; the partial unique index enforces at most one
// active profile per driver.
const schema = `
CREATE TABLE IF NOT EXISTS driver_profiles (
	id                    TEXT PRIMARY KEY,
	driver_id             TEXT NOT NULL,
	name                  TEXT NOT NULL,
	min_fare              DOUBLE PRECISION NOT NULL,
	max_pickup_distance   DOUBLE PRECISION NOT NULL,
	max_driving_distance  DOUBLE PRECISION NOT NULL,
	min_fare_per_mile     DOUBLE PRECISION NOT NULL DEFAULT 0,
	min_fare_per_minute   DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_active             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS driver_profiles_driver_idx ON driver_profiles (driver_id, updated_at DESC);

CREATE UNIQUE INDEX IF NOT EXISTS driver_profiles_one_active_idx
	ON driver_profiles (driver_id) WHERE is_active;

CREATE TABLE IF NOT EXISTS driver_settings (
	driver_id   TEXT NOT NULL,
	key         TEXT NOT NULL,
	value       JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (driver_id, key)
);
`

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
