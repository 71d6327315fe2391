package database_test

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/database"
)

func TestConfig_ConnectionString(t *testing.T) {
	cfg := database.Config{
		Host:     "db.internal",
		Port:     5432,
		User:     "tripgauge",
		Password: "p@ss:word/1",
		Database: "tripgauge",
		SSLMode:  "require",
	}

	parsed, err := pgxpool.ParseConfig(cfg.ConnectionString())
	require.NoError(t, err)

	conn := parsed.ConnConfig
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, uint16(5432), conn.Port)
	assert.Equal(t, "tripgauge", conn.User)
	assert.Equal(t, "p@ss:word/1", conn.Password)
	assert.Equal(t, "tripgauge", conn.Database)
}

func TestConfig_ConnectionString_IPv6Host(t *testing.T) {
	cfg := database.Config{Host: "::1", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}

	assert.Equal(t, "postgres://u:p@[::1]:5432/d?sslmode=disable", cfg.ConnectionString())
}
