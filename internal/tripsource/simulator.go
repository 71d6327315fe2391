package tripsource

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/evaluation"
)

// SimulatorConfig configures a Simulator.
type SimulatorConfig struct {
	// DriverIDs receive offers round-robin.
	DriverIDs []string

	// Interval between offers. Default: 20 seconds
	Interval time.Duration

	// Seed makes the offer sequence reproducible. Zero seeds from the clock.
	Seed int64

	Platforms []string
	Logger    zerolog.Logger
}

// Simulator generates plausible random offers.
type Simulator struct {
	cfg SimulatorConfig

	mu   sync.Mutex
	rng  *rand.Rand
	next int
}

// NewSimulator creates a Simulator.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Interval <= 0 {
		cfg.Interval = 20 * time.Second
	}
	if len(cfg.Platforms) == 0 {
		cfg.Platforms = []string{"uber", "lyft"}
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Simulator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // simulation only
	}
}

// Next returns the next simulated offer.
func (s *Simulator) Next() Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	driverID := ""
	if len(s.cfg.DriverIDs) > 0 {
		driverID = s.cfg.DriverIDs[s.next%len(s.cfg.DriverIDs)]
		s.next++
	}

	pickup := round2(0.2 + s.rng.Float64()*7.8)
	dropoff := round2(0.5 + s.rng.Float64()*24.5)
	// Roughly 2-4 minutes per mile in city traffic.
	minutes := (pickup + dropoff) * (2 + s.rng.Float64()*2)
	// Base fare plus per-mile and per-minute components with surge noise.
	fare := round2((2.5 + dropoff*1.1 + minutes*0.25) * (0.8 + s.rng.Float64()*0.6))

	return Envelope{
		DriverID: driverID,
		Offer: evaluation.TripOffer{
			ID:              "off_" + uuid.New().String()[:22],
			Fare:            fare,
			PickupDistance:  pickup,
			DropoffDistance: dropoff,
			DurationSeconds: math.Round(minutes * 60),
			PassengerRating: round2(4.0 + s.rng.Float64()),
			Timestamp:       time.Now().UTC(),
			Platform:        s.cfg.Platforms[s.rng.Intn(len(s.cfg.Platforms))],
		},
	}
}

// Run emits an offer every interval until ctx is cancelled.
// Handler errors are logged; the simulator keeps going.
func (s *Simulator) Run(ctx context.Context, handle Handler) error {
	s.cfg.Logger.Info().
		Dur("interval", s.cfg.Interval).
		Strs("drivers", s.cfg.DriverIDs).
		Msg("starting trip simulator")

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			env := s.Next()
			if err := handle(ctx, env); err != nil {
				s.cfg.Logger.Warn().Err(err).
					Str("driver_id", env.DriverID).
					Str("offer_id", env.Offer.ID).
					Msg("simulated offer not handled")
			}
		}
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

var _ Source = (*Simulator)(nil)
