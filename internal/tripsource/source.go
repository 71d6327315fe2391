// Package tripsource delivers trip offers to the evaluation pipeline from a
// simulator or a message broker, and publishes offers onto a broker.
package tripsource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripgauge/tripgauge/internal/evaluation"
	"github.com/tripgauge/tripgauge/internal/validation"
)

// ErrInvalidOffer is returned by Decode for payloads that are not a usable offer.
var ErrInvalidOffer = errors.New("invalid trip offer")

// Envelope addresses an offer to one driver.
type Envelope struct {
	DriverID string               `json:"driverId" validate:"required"`
	Offer    evaluation.TripOffer `json:"offer"`
}

// Handler processes one offer. Returning an error wrapped with Drop tells
// the source not to redeliver it.
type Handler func(ctx context.Context, env Envelope) error

// Source feeds offers to a Handler until ctx is cancelled.
type Source interface {
	Run(ctx context.Context, handle Handler) error
}

// Publisher sends offers onto a broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
	Close() error
}

// Decode parses and validates a JSON envelope.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}
	if fieldErrors := validation.Struct(&env); len(fieldErrors) > 0 {
		return Envelope{}, fmt.Errorf("%w: %s %s", ErrInvalidOffer, fieldErrors[0].Field, fieldErrors[0].Message)
	}
	return env, nil
}

type dropError struct {
	err error
}

func (e *dropError) Error() string { return e.err.Error() }
func (e *dropError) Unwrap() error { return e.err }

// Drop marks err as final for the offer: it is logged and not redelivered.
func Drop(err error) error {
	if err == nil {
		return nil
	}
	return &dropError{err: err}
}

// IsDropped reports whether err was marked with Drop.
func IsDropped(err error) bool {
	var d *dropError
	return errors.As(err, &d)
}
