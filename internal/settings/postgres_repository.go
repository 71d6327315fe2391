package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL settings repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves one entry.
func (r *PostgresRepository) Get(ctx context.Context, driverID, key string) (*Entry, error) {
	query := `
		SELECT driver_id, key, value, updated_at
		FROM driver_settings
		WHERE driver_id = $1 AND key = $2
	`

	entry, err := scanEntry(r.pool.QueryRow(ctx, query, driverID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingNotFound
		}
		return nil, err
	}
	return entry, nil
}

// All retrieves every entry of a driver.
func (r *PostgresRepository) All(ctx context.Context, driverID string) (map[string]*Entry, error) {
	query := `
		SELECT driver_id, key, value, updated_at
		FROM driver_settings
		WHERE driver_id = $1
		ORDER BY key
	`

	rows, err := r.pool.Query(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[string]*Entry)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries[entry.Key] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Set creates or updates entries in one transaction.
func (r *PostgresRepository) Set(ctx context.Context, entries []*Entry) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	query := `
		INSERT INTO driver_settings (driver_id, key, value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (driver_id, key) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
	`

	for _, e := range entries {
		valueJSON, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.Key, err)
		}
		if _, err := tx.Exec(ctx, query, e.DriverID, e.Key, valueJSON, e.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes one entry.
func (r *PostgresRepository) Delete(ctx context.Context, driverID, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM driver_settings WHERE driver_id = $1 AND key = $2`, driverID, key)
	return err
}

func scanEntry(row pgx.Row) (*Entry, error) {
	var (
		entry     Entry
		valueJSON []byte
	)
	if err := row.Scan(&entry.DriverID, &entry.Key, &valueJSON, &entry.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(valueJSON, &entry.Value); err != nil {
		return nil, fmt.Errorf("decode %s: %w", entry.Key, err)
	}
	return &entry, nil
}

var _ Repository = (*PostgresRepository)(nil)
