package models

// OfferInput is a trip offer submitted for evaluation.
// Distances are in miles.
type OfferInput struct {
	ID              string     `json:"id" validate:"omitempty,max=64"`
	Fare            float64    `json:"fare" validate:"gte=0"`
	PickupDistance  float64    `json:"pickupDistance" validate:"gte=0"`
	DropoffDistance float64    `json:"dropoffDistance" validate:"gte=0"`
	DurationSeconds float64    `json:"durationSeconds" validate:"gte=0"`
	PassengerRating float64    `json:"passengerRating" validate:"gte=0,lte=5"`
	Timestamp       *Timestamp `json:"timestamp,omitempty"`
	Platform        string     `json:"platform,omitempty" validate:"omitempty,max=32"`
}

// OfferEvaluation is the verdict on one offer.
type OfferEvaluation struct {
	OfferID            string  `json:"offerId"`
	ProfileID          string  `json:"profileId"`
	Score              int     `json:"evaluationScore"`
	IsAcceptable       bool    `json:"isAcceptable"`
	IsProfitable       bool    `json:"isProfitable"`
	IsBorderline       bool    `json:"isBorderline"`
	Recommendation     string  `json:"recommendation"`
	Tier               string  `json:"tier"`
	EstimatedProfit    float64 `json:"estimatedProfit"`
	TimeEfficiency     string  `json:"timeEfficiency"`
	DistanceEfficiency string  `json:"distanceEfficiency"`

	// OverlayShown is false when the overlay could not be updated, e.g.
	// while it is emergency-disabled.
	OverlayShown *bool `json:"overlayShown,omitempty"`
}
