package models

// DriverSettings represents a driver's overlay display settings.
type DriverSettings struct {
	RatingFilterEnabled bool    `json:"ratingFilterEnabled"`
	MinRating           float64 `json:"minRating"`
	MinimalMode         bool    `json:"minimalMode"`
}

// SettingsInput is a partial settings update; nil fields are left unchanged.
type SettingsInput struct {
	RatingFilterEnabled *bool    `json:"ratingFilterEnabled,omitempty"`
	MinRating           *float64 `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
	MinimalMode         *bool    `json:"minimalMode,omitempty"`
}
