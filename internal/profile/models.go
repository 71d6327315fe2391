// Package profile provides the driver profile registry.
//
// A driver keeps one or more named profiles ("Airport runs", "Late night")
// holding the thresholds an incoming trip offer is judged against. Exactly
// one of a driver's profiles is active at any time once the driver has at
// least one profile; the evaluator only ever reads the active one.
package profile

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrNoActiveProfile = errors.New("no active profile")
)

// Profile is a driver-configured set of trip acceptance thresholds.
type Profile struct {
	// ID is the unique profile identifier (format: prf_XXXX).
	ID string

	// DriverID is the owner of the profile.
	DriverID string

	// Name is the human-readable label shown in the profile switcher.
	Name string

	// MinFare is the lowest fare (currency units) the driver accepts.
	MinFare float64

	// MaxPickupDistance is the furthest the driver will travel to a pickup, in miles.
	MaxPickupDistance float64

	// MaxDrivingDistance is the longest trip the driver will take, in miles.
	MaxDrivingDistance float64

	// MinFarePerMile and MinFarePerMinute are informational targets shown
	// next to the computed efficiencies. They do not influence the score.
	MinFarePerMile   float64
	MinFarePerMinute float64

	// IsActive marks the profile the evaluator reads.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultProfile returns the starter profile offered to new drivers.
func DefaultProfile(driverID string) *Profile {
	now := time.Now()
	return &Profile{
		DriverID:           driverID,
		Name:               "Standard",
		MinFare:            10,
		MaxPickupDistance:  5,
		MaxDrivingDistance: 15,
		MinFarePerMile:     1.0,
		MinFarePerMinute:   0.3,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
