// Package evaluation scores trip offers against a driver profile.
package evaluation

import "time"

// Recommendation is the three-way verdict shown to the driver.
type Recommendation string

const (
	RecommendationAccept   Recommendation = "accept"
	RecommendationConsider Recommendation = "consider"
	RecommendationReject   Recommendation = "reject"
)

// TripOffer is a single trip offer as delivered by a trip source.
// Distances are in miles, the fare in the driver's currency.
type TripOffer struct {
	ID              string    `json:"id"`
	Fare            float64   `json:"fare" validate:"gte=0"`
	PickupDistance  float64   `json:"pickupDistance" validate:"gte=0"`
	DropoffDistance float64   `json:"dropoffDistance" validate:"gte=0"`
	DurationSeconds float64   `json:"durationSeconds" validate:"gte=0"`
	PassengerRating float64   `json:"passengerRating" validate:"gte=0,lte=5"`
	Timestamp       time.Time `json:"timestamp"`
	Platform        string    `json:"platform,omitempty" validate:"omitempty,max=32"`
}

// TotalDistance is the pickup leg plus the trip itself.
func (t TripOffer) TotalDistance() float64 {
	return t.PickupDistance + t.DropoffDistance
}

// Evaluation is the result of scoring one TripOffer.
type Evaluation struct {
	Score          int            `json:"evaluationScore"`
	IsAcceptable   bool           `json:"isAcceptable"`
	IsProfitable   bool           `json:"isProfitable"`
	IsBorderline   bool           `json:"isBorderline"`
	Recommendation Recommendation `json:"recommendation"`

	EstimatedProfit    float64 `json:"estimatedProfit"`
	TimeEfficiency     string  `json:"timeEfficiency"`
	DistanceEfficiency string  `json:"distanceEfficiency"`
}
