package profile

import "context"

// Repository defines the interface for profile persistence.
type Repository interface {
	// Get retrieves a profile owned by the driver.
	// Returns ErrProfileNotFound if it doesn't exist or belongs to another driver.
	Get(ctx context.Context, driverID, profileID string) (*Profile, error)

	// List retrieves all profiles of a driver, most recently updated first.
	List(ctx context.Context, driverID string) ([]*Profile, error)

	// Active retrieves the driver's active profile.
	// Returns ErrNoActiveProfile if none is active.
	Active(ctx context.Context, driverID string) (*Profile, error)

	// Create inserts p. The new profile is active exactly when the driver
	// has no active profile at the time of the insert; p.IsActive is set to
	// the stored value.
	Create(ctx context.Context, p *Profile) error

	// Update updates an existing profile. IsActive is not changed by Update.
	Update(ctx context.Context, p *Profile) error

	// Delete deletes a profile. Deleting the active profile activates the
	// most recently updated remaining one in the same atomic step.
	// Returns ErrProfileNotFound if it doesn't exist or belongs to another driver.
	Delete(ctx context.Context, driverID, profileID string) error

	// Activate marks profileID active and every other profile of the driver
	// inactive in a single atomic step.
	Activate(ctx context.Context, driverID, profileID string) error
}
