package settings

import (
	"context"
	"errors"
)

// ErrSettingNotFound is returned when a driver has no entry for a key.
var ErrSettingNotFound = errors.New("setting not found")

// Repository defines storage for setting entries.
type Repository interface {
	// Get retrieves one entry.
	Get(ctx context.Context, driverID, key string) (*Entry, error)

	// All retrieves every entry of a driver keyed by setting key.
	All(ctx context.Context, driverID string) (map[string]*Entry, error)

	// Set creates or updates entries atomically.
	Set(ctx context.Context, entries []*Entry) error

	// Delete removes one entry, reverting it to its default.
	Delete(ctx context.Context, driverID, key string) error
}
