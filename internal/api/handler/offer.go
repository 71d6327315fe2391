package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/advisor"
	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/evaluation"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/profile"
)

// OfferHandler handles trip offer submission.
type OfferHandler struct {
	advisor *advisor.Advisor
	logger  zerolog.Logger
}

// NewOfferHandler creates a new OfferHandler.
func NewOfferHandler(a *advisor.Advisor, logger zerolog.Logger) *OfferHandler {
	return &OfferHandler{advisor: a, logger: logger}
}

// EvaluateOffer handles POST /v1/me/evaluations - score an offer against the
// active profile without touching the overlay.
func (h *OfferHandler) EvaluateOffer(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	var input models.OfferInput
	if !decodeValid(w, r, &input) {
		return
	}
	offer := toTripOffer(&input)

	decision, err := h.advisor.Evaluate(r.Context(), driverID, offer)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toOfferEvaluation(offer.ID, decision, nil))
}

// SubmitOffer handles POST /v1/me/offers - evaluate an offer and show the
// verdict on the driver's overlay. A disabled overlay does not fail the request.
func (h *OfferHandler) SubmitOffer(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	var input models.OfferInput
	if !decodeValid(w, r, &input) {
		return
	}
	offer := toTripOffer(&input)

	shown := true
	decision, err := h.advisor.HandleOffer(r.Context(), driverID, offer)
	switch {
	case err == nil:
	case decision != nil && errors.Is(err, overlay.ErrOverlayDisabled):
		shown = false
	default:
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toOfferEvaluation(offer.ID, decision, &shown))
}

func (h *OfferHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, profile.ErrNoActiveProfile) {
		response.NoActiveProfile(w, r)
		return
	}
	h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("offer evaluation failed")
	response.InternalError(w, r, "internal server error")
}

func toTripOffer(input *models.OfferInput) evaluation.TripOffer {
	offer := evaluation.TripOffer{
		ID:              input.ID,
		Fare:            input.Fare,
		PickupDistance:  input.PickupDistance,
		DropoffDistance: input.DropoffDistance,
		DurationSeconds: input.DurationSeconds,
		PassengerRating: input.PassengerRating,
		Platform:        input.Platform,
		Timestamp:       time.Now().UTC(),
	}
	if offer.ID == "" {
		offer.ID = "off_" + uuid.New().String()[:22]
	}
	if input.Timestamp != nil {
		offer.Timestamp = input.Timestamp.Time()
	}
	return offer
}

func toOfferEvaluation(offerID string, d *advisor.Decision, shown *bool) models.OfferEvaluation {
	e := d.Evaluation
	return models.OfferEvaluation{
		OfferID:            offerID,
		ProfileID:          d.ProfileID,
		Score:              e.Score,
		IsAcceptable:       e.IsAcceptable,
		IsProfitable:       e.IsProfitable,
		IsBorderline:       e.IsBorderline,
		Recommendation:     string(e.Recommendation),
		Tier:               string(d.Tier),
		EstimatedProfit:    e.EstimatedProfit,
		TimeEfficiency:     e.TimeEfficiency,
		DistanceEfficiency: e.DistanceEfficiency,
		OverlayShown:       shown,
	}
}
