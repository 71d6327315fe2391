// Package advisor runs incoming trip offers through evaluation against the
// driver's active profile and drives the driver's overlay with the result.
package advisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripgauge/tripgauge/internal/evaluation"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/profile"
	"github.com/tripgauge/tripgauge/internal/tripsource"
)

const instrumentationName = "github.com/tripgauge/tripgauge/internal/advisor"

// ProfileSource returns the profile offers are evaluated against.
type ProfileSource interface {
	ActiveProfile(ctx context.Context, driverID string) (*profile.Profile, error)
}

// Config holds the advisor's collaborators.
type Config struct {
	Profiles ProfileSource
	Overlays *overlay.Manager
	Logger   zerolog.Logger
}

// Decision is the outcome of one handled offer.
type Decision struct {
	ProfileID  string
	Evaluation evaluation.Evaluation
	Tier       overlay.Tier
}

// Advisor evaluates offers and shows the verdict on the overlay.
type Advisor struct {
	profiles ProfileSource
	overlays *overlay.Manager
	logger   zerolog.Logger
	tracer   trace.Tracer

	evaluated metric.Int64Counter
	scores    metric.Int64Histogram
	skipped   metric.Int64Counter
}

// New creates an Advisor with instruments from the global meter.
func New(cfg Config) (*Advisor, error) {
	meter := otel.Meter(instrumentationName)

	evaluated, err := meter.Int64Counter(
		"tripgauge.offers.evaluated",
		metric.WithDescription("Trip offers evaluated, by recommendation"),
		metric.WithUnit("{offer}"),
	)
	if err != nil {
		return nil, err
	}

	scores, err := meter.Int64Histogram(
		"tripgauge.offers.score",
		metric.WithDescription("Evaluation scores of trip offers"),
		metric.WithExplicitBucketBoundaries(20, 40, 60, 80, 90, 100),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"tripgauge.offers.skipped",
		metric.WithDescription("Trip offers that could not be evaluated, by reason"),
		metric.WithUnit("{offer}"),
	)
	if err != nil {
		return nil, err
	}

	return &Advisor{
		profiles:  cfg.Profiles,
		overlays:  cfg.Overlays,
		logger:    cfg.Logger,
		tracer:    otel.Tracer(instrumentationName),
		evaluated: evaluated,
		scores:    scores,
		skipped:   skipped,
	}, nil
}

// Evaluate scores offer against the driver's active profile without touching
// the overlay. Returns profile.ErrNoActiveProfile when there is nothing to
// evaluate against.
func (a *Advisor) Evaluate(ctx context.Context, driverID string, offer evaluation.TripOffer) (*Decision, error) {
	ctx, span := a.tracer.Start(ctx, "advisor.Evaluate", trace.WithAttributes(
		attribute.String("offer.id", offer.ID),
		attribute.String("offer.platform", offer.Platform),
	))
	defer span.End()

	p, err := a.profiles.ActiveProfile(ctx, driverID)
	if err != nil {
		if errors.Is(err, profile.ErrNoActiveProfile) {
			a.skipped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", "no_active_profile")))
			a.logger.Info().Str("driver_id", driverID).Str("offer_id", offer.ID).Msg("no active profile, offer not evaluated")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "active profile unavailable")
		return nil, err
	}

	result := evaluation.Evaluate(offer, *p)

	rec := attribute.String("recommendation", string(result.Recommendation))
	a.evaluated.Add(ctx, 1, metric.WithAttributes(rec))
	a.scores.Record(ctx, int64(result.Score), metric.WithAttributes(rec))
	span.SetAttributes(
		attribute.Int("evaluation.score", result.Score),
		rec,
	)

	return &Decision{
		ProfileID:  p.ID,
		Evaluation: result,
		Tier:       overlay.TierFor(result.Recommendation),
	}, nil
}

// HandleOffer evaluates offer and shows the result on the driver's overlay.
// Without an active profile the overlay is left untouched.
func (a *Advisor) HandleOffer(ctx context.Context, driverID string, offer evaluation.TripOffer) (*Decision, error) {
	decision, err := a.Evaluate(ctx, driverID, offer)
	if err != nil {
		return nil, err
	}

	machine := a.overlays.Machine(ctx, driverID)
	if err := machine.ShowTrip(decision.Tier, offer.PassengerRating); err != nil {
		return decision, fmt.Errorf("show overlay: %w", err)
	}

	a.logger.Info().
		Str("driver_id", driverID).
		Str("offer_id", offer.ID).
		Int("score", decision.Evaluation.Score).
		Str("recommendation", string(decision.Evaluation.Recommendation)).
		Msg("offer evaluated")

	return decision, nil
}

// Consume feeds every offer from src through HandleOffer until ctx ends.
// Offers that can never succeed are dropped rather than redelivered.
func (a *Advisor) Consume(ctx context.Context, src tripsource.Source) error {
	return src.Run(ctx, func(ctx context.Context, env tripsource.Envelope) error {
		_, err := a.HandleOffer(ctx, env.DriverID, env.Offer)
		if errors.Is(err, profile.ErrNoActiveProfile) || errors.Is(err, overlay.ErrOverlayDisabled) {
			return tripsource.Drop(err)
		}
		return err
	})
}
