package profile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL profile repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const profileColumns = `
	id, driver_id, name,
	min_fare, max_pickup_distance, max_driving_distance,
	min_fare_per_mile, min_fare_per_minute,
	is_active, created_at, updated_at
`

// Get retrieves a profile owned by the driver.
func (r *PostgresRepository) Get(ctx context.Context, driverID, profileID string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM driver_profiles WHERE id = $1 AND driver_id = $2`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, profileID, driverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// List retrieves all profiles of a driver, most recently updated first.
func (r *PostgresRepository) List(ctx context.Context, driverID string) ([]*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM driver_profiles WHERE driver_id = $1 ORDER BY updated_at DESC`

	rows, err := r.pool.Query(ctx, query, driverID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Active retrieves the driver's active profile.
func (r *PostgresRepository) Active(ctx context.Context, driverID string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM driver_profiles WHERE driver_id = $1 AND is_active`

	p, err := scanProfile(r.pool.QueryRow(ctx, query, driverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActiveProfile
	}
	return p, err
}

const (
	oneActiveIndex  = "driver_profiles_one_active_idx"
	uniqueViolation = "23505"
)

// Create inserts p, active only when no other profile of the driver is.
// Two concurrent first inserts both pass the NOT EXISTS check; the loser
// hits the one-active index and is stored inactive instead.
func (r *PostgresRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO driver_profiles (` + profileColumns + `)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8,
			NOT EXISTS (SELECT 1 FROM driver_profiles WHERE driver_id = $2 AND is_active),
			$9, $10
		RETURNING is_active
	`
	err := r.insert(ctx, query, p)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == oneActiveIndex {
		inactive := `
			INSERT INTO driver_profiles (` + profileColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, FALSE, $9, $10)
			RETURNING is_active
		`
		err = r.insert(ctx, inactive, p)
	}
	return err
}

func (r *PostgresRepository) insert(ctx context.Context, query string, p *Profile) error {
	return r.pool.QueryRow(ctx, query,
		p.ID,
		p.DriverID,
		p.Name,
		p.MinFare,
		p.MaxPickupDistance,
		p.MaxDrivingDistance,
		p.MinFarePerMile,
		p.MinFarePerMinute,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&p.IsActive)
}

// Update updates an existing profile.
func (r *PostgresRepository) Update(ctx context.Context, p *Profile) error {
	query := `
		UPDATE driver_profiles SET
			name = $3,
			min_fare = $4,
			max_pickup_distance = $5,
			max_driving_distance = $6,
			min_fare_per_mile = $7,
			min_fare_per_minute = $8,
			updated_at = $9
		WHERE id = $1 AND driver_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		p.ID,
		p.DriverID,
		p.Name,
		p.MinFare,
		p.MaxPickupDistance,
		p.MaxDrivingDistance,
		p.MinFarePerMile,
		p.MinFarePerMinute,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Delete removes a profile and, if it was active, promotes the most
// recently updated remaining profile in the same transaction.
func (r *PostgresRepository) Delete(ctx context.Context, driverID, profileID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	if _, err := tx.Exec(ctx, `SELECT id FROM driver_profiles WHERE driver_id = $1 FOR UPDATE`, driverID); err != nil {
		return err
	}

	var wasActive bool
	err = tx.QueryRow(ctx,
		`DELETE FROM driver_profiles WHERE id = $1 AND driver_id = $2 RETURNING is_active`,
		profileID, driverID,
	).Scan(&wasActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrProfileNotFound
	}
	if err != nil {
		return err
	}

	if wasActive {
		promote := `
			UPDATE driver_profiles SET is_active = TRUE, updated_at = $2
			WHERE id = (
				SELECT id FROM driver_profiles WHERE driver_id = $1
				ORDER BY updated_at DESC LIMIT 1
			)
		`
		if _, err := tx.Exec(ctx, promote, driverID, time.Now()); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// Activate switches the driver's active profile inside one transaction.
// The driver's rows are locked first so concurrent switches serialize.
func (r *PostgresRepository) Activate(ctx context.Context, driverID, profileID string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback error is not critical

	rows, err := tx.Query(ctx, `SELECT id FROM driver_profiles WHERE driver_id = $1 FOR UPDATE`, driverID)
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		if id == profileID {
			found = true
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		return ErrProfileNotFound
	}

	// Deactivate first so the one-active index never sees two active rows.
	now := time.Now()
	deactivate := `UPDATE driver_profiles SET is_active = FALSE, updated_at = $3 WHERE driver_id = $1 AND is_active AND id <> $2`
	if _, err := tx.Exec(ctx, deactivate, driverID, profileID, now); err != nil {
		return err
	}
	activate := `UPDATE driver_profiles SET is_active = TRUE, updated_at = $3 WHERE driver_id = $1 AND id = $2 AND NOT is_active`
	if _, err := tx.Exec(ctx, activate, driverID, profileID, now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// scanProfile scans a profile from a row.
func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(
		&p.ID,
		&p.DriverID,
		&p.Name,
		&p.MinFare,
		&p.MaxPickupDistance,
		&p.MaxDrivingDistance,
		&p.MinFarePerMile,
		&p.MinFarePerMinute,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
