package evaluation

import (
	"math"
	"strconv"

	"github.com/tripgauge/tripgauge/internal/profile"
)

// Scoring constants. The slack multiplier and per-mile cost are tuning
// values carried over as-is.
const (
	pickupWeight  = 30.0
	drivingWeight = 30.0
	fareWeight    = 40.0
	fareRatioUnit = 25.0

	distanceSlack = 1.5

	// CostPerMile is the flat vehicle cost assumed by EstimatedProfit.
	CostPerMile = 0.30

	// AcceptScore and BorderlineScore bound the accept and consider bands.
	AcceptScore     = 80
	BorderlineScore = 60
)

// Evaluate scores trip against the thresholds in p.
// It is pure and total: every non-negative input yields a well-formed result.
func Evaluate(trip TripOffer, p profile.Profile) Evaluation {
	acceptable := meetsHardConstraints(trip, p)
	profitable := isProfitable(trip, p)
	score := Score(trip, p)
	borderline := acceptable && score >= BorderlineScore && score < AcceptScore

	return Evaluation{
		Score:              score,
		IsAcceptable:       acceptable,
		IsProfitable:       profitable,
		IsBorderline:       borderline,
		Recommendation:     recommend(profitable, borderline, score),
		EstimatedProfit:    EstimatedProfit(trip),
		TimeEfficiency:     TimeEfficiency(trip),
		DistanceEfficiency: DistanceEfficiency(trip),
	}
}

// meetsHardConstraints reports whether the trip is inside every limit of the profile.
func meetsHardConstraints(trip TripOffer, p profile.Profile) bool {
	return trip.PickupDistance <= p.MaxPickupDistance &&
		trip.DropoffDistance <= p.MaxDrivingDistance &&
		trip.Fare >= p.MinFare
}

// isProfitable is currently the same predicate as meetsHardConstraints.
// Profitability rules that go beyond the raw limits (time-of-day pricing,
// per-mile targets) belong here.
func isProfitable(trip TripOffer, p profile.Profile) bool {
	return meetsHardConstraints(trip, p)
}

func recommend(profitable, borderline bool, score int) Recommendation {
	switch {
	case profitable && score >= AcceptScore:
		return RecommendationAccept
	case borderline:
		return RecommendationConsider
	default:
		return RecommendationReject
	}
}

// Score returns the 0-100 desirability score of trip under p.
func Score(trip TripOffer, p profile.Profile) int {
	total := distanceComponent(pickupWeight, trip.PickupDistance, p.MaxPickupDistance) +
		distanceComponent(drivingWeight, trip.DropoffDistance, p.MaxDrivingDistance) +
		fareComponent(trip.Fare, p.MinFare)

	score := int(math.Round(total))
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	}
	return score
}

// distanceComponent awards weight points at zero distance, falling linearly
// to zero at 1.5x the limit. A non-positive limit only rewards zero distance.
func distanceComponent(weight, distance, limit float64) float64 {
	if limit <= 0 {
		if distance <= 0 {
			return weight
		}
		return 0
	}
	return math.Max(0, weight*(1-distance/(limit*distanceSlack)))
}

// fareComponent awards 25 points per multiple of the minimum fare, capped at 40.
// A non-positive minimum fare is met by any offer.
func fareComponent(fare, minFare float64) float64 {
	if minFare <= 0 {
		return fareWeight
	}
	return math.Max(0, math.Min(fareWeight, fare/minFare*fareRatioUnit))
}

// EstimatedProfit is the fare less a flat per-mile cost over both legs, floored at 0.
func EstimatedProfit(trip TripOffer) float64 {
	return math.Max(0, trip.Fare-trip.TotalDistance()*CostPerMile)
}

// TimeEfficiency is fare per minute, formatted to 2 decimals.
func TimeEfficiency(trip TripOffer) string {
	minutes := trip.DurationSeconds / 60
	if minutes <= 0 {
		return formatRate(0)
	}
	return formatRate(trip.Fare / minutes)
}

// DistanceEfficiency is fare per mile over both legs, formatted to 2 decimals.
func DistanceEfficiency(trip TripOffer) string {
	distance := trip.TotalDistance()
	if distance <= 0 {
		return formatRate(0)
	}
	return formatRate(trip.Fare / distance)
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
