package tripsource_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/tripsource"
	"github.com/tripgauge/tripgauge/internal/validation"
)

func TestSimulator_OffersArePlausible(t *testing.T) {
	sim := tripsource.NewSimulator(tripsource.SimulatorConfig{
		DriverIDs: []string{"drv_1", "drv_2"},
		Seed:      1,
		Logger:    zerolog.Nop(),
	})

	for i := 0; i < 500; i++ {
		env := sim.Next()
		offer := env.Offer

		assert.Empty(t, validation.Struct(&env), "offer %+v", offer)
		assert.True(t, strings.HasPrefix(offer.ID, "off_"))
		assert.GreaterOrEqual(t, offer.PickupDistance, 0.2)
		assert.LessOrEqual(t, offer.PickupDistance, 8.0)
		assert.GreaterOrEqual(t, offer.DropoffDistance, 0.5)
		assert.LessOrEqual(t, offer.DropoffDistance, 25.0)
		assert.Positive(t, offer.Fare)
		assert.Positive(t, offer.DurationSeconds)
		assert.GreaterOrEqual(t, offer.PassengerRating, 4.0)
		assert.LessOrEqual(t, offer.PassengerRating, 5.0)
		assert.Contains(t, []string{"uber", "lyft"}, offer.Platform)
	}
}

func TestSimulator_RoundRobinDrivers(t *testing.T) {
	sim := tripsource.NewSimulator(tripsource.SimulatorConfig{DriverIDs: []string{"a", "b", "c"}, Seed: 3})

	var got []string
	for i := 0; i < 4; i++ {
		got = append(got, sim.Next().DriverID)
	}
	assert.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestSimulator_SeedIsReproducible(t *testing.T) {
	a := tripsource.NewSimulator(tripsource.SimulatorConfig{DriverIDs: []string{"drv_1"}, Seed: 99})
	b := tripsource.NewSimulator(tripsource.SimulatorConfig{DriverIDs: []string{"drv_1"}, Seed: 99})

	for i := 0; i < 10; i++ {
		x, y := a.Next().Offer, b.Next().Offer
		assert.Equal(t, x.Fare, y.Fare)
		assert.Equal(t, x.PickupDistance, y.PickupDistance)
		assert.Equal(t, x.PassengerRating, y.PassengerRating)
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	sim := tripsource.NewSimulator(tripsource.SimulatorConfig{
		DriverIDs: []string{"drv_1"},
		Interval:  5 * time.Millisecond,
		Seed:      5,
		Logger:    zerolog.Nop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	var mu sync.Mutex
	count := 0

	done := make(chan error, 1)
	go func() {
		done <- sim.Run(ctx, func(context.Context, tripsource.Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			count++
			if count == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("simulator did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, count, 3)
}
