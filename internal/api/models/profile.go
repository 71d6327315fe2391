package models

// DriverProfile is the API representation of a driver profile.
type DriverProfile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	MinFare            float64   `json:"minFare"`
	MaxPickupDistance  float64   `json:"maxPickupDistance"`
	MaxDrivingDistance float64   `json:"maxDrivingDistance"`
	MinFarePerMile     float64   `json:"minFarePerMile"`
	MinFarePerMinute   float64   `json:"minFarePerMinute"`
	IsActive           bool      `json:"isActive"`
	CreatedAt          Timestamp `json:"createdAt"`
	UpdatedAt          Timestamp `json:"updatedAt"`
}

// ProfileInput is the request body for creating or replacing a profile.
type ProfileInput struct {
	Name               string  `json:"name" validate:"required,max=60"`
	MinFare            float64 `json:"minFare" validate:"gte=0"`
	MaxPickupDistance  float64 `json:"maxPickupDistance" validate:"gte=0,lte=100"`
	MaxDrivingDistance float64 `json:"maxDrivingDistance" validate:"gte=0,lte=500"`
	MinFarePerMile     float64 `json:"minFarePerMile" validate:"gte=0"`
	MinFarePerMinute   float64 `json:"minFarePerMinute" validate:"gte=0"`
}

// ProfileList is a list of driver profiles.
type ProfileList struct {
	Items []DriverProfile `json:"items"`
}
