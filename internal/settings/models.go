// Package settings stores per-driver display settings as typed key/value
// entries and serves them through a cached, fail-safe service.
package settings

import (
	"time"
)

// Setting keys.
const (
	// KeyRatingFilterEnabled turns on the passenger-rating display override.
	KeyRatingFilterEnabled = "rating_filter_enabled"

	// KeyMinRating is the lowest passenger rating shown without the override.
	KeyMinRating = "min_rating"

	// KeyMinimalMode selects the compact overlay renderer.
	KeyMinimalMode = "minimal_mode"
)

// Entry is one stored setting. Value holds the JSON-decoded value.
type Entry struct {
	DriverID  string
	Key       string
	Value     interface{}
	UpdatedAt time.Time
}

// BoolValue returns the entry as a bool, or defaultValue if absent or mistyped.
func (e *Entry) BoolValue(defaultValue bool) bool {
	if e == nil {
		return defaultValue
	}
	switch v := e.Value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	default:
		return defaultValue
	}
}

// Float64Value returns the entry as a float64, or defaultValue if absent or mistyped.
func (e *Entry) Float64Value(defaultValue float64) float64 {
	if e == nil {
		return defaultValue
	}
	switch v := e.Value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return defaultValue
	}
}

// Settings is the resolved view of a driver's entries.
type Settings struct {
	RatingFilterEnabled bool
	MinRating           float64
	MinimalMode         bool
}

// Defaults returns the settings of a driver who never changed anything.
func Defaults() Settings {
	return Settings{
		RatingFilterEnabled: false,
		MinRating:           4.5,
		MinimalMode:         false,
	}
}

// Resolve layers entries over Defaults.
func Resolve(entries map[string]*Entry) Settings {
	d := Defaults()
	return Settings{
		RatingFilterEnabled: entries[KeyRatingFilterEnabled].BoolValue(d.RatingFilterEnabled),
		MinRating:           entries[KeyMinRating].Float64Value(d.MinRating),
		MinimalMode:         entries[KeyMinimalMode].BoolValue(d.MinimalMode),
	}
}
