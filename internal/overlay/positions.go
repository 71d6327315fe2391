package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/resilience"
)

// ErrPositionsNotFound is returned when a driver has no saved positions.
var ErrPositionsNotFound = errors.New("widget positions not found")

// PositionStore persists committed widget positions per driver.
type PositionStore interface {
	Load(ctx context.Context, driverID string) (Positions, error)
	Save(ctx context.Context, driverID string, positions Positions) error
}

// InMemoryPositionStore is a PositionStore backed by a map.
type InMemoryPositionStore struct {
	mu        sync.RWMutex
	positions map[string]Positions
}

// NewInMemoryPositionStore creates an empty store.
func NewInMemoryPositionStore() *InMemoryPositionStore {
	return &InMemoryPositionStore{positions: make(map[string]Positions)}
}

// Load implements PositionStore.
func (s *InMemoryPositionStore) Load(_ context.Context, driverID string) (Positions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[driverID]
	if !ok {
		return Positions{}, ErrPositionsNotFound
	}
	return p, nil
}

// Save implements PositionStore.
func (s *InMemoryPositionStore) Save(_ context.Context, driverID string, positions Positions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positions[driverID] = positions
	return nil
}

var _ PositionStore = (*InMemoryPositionStore)(nil)

// Persister receives every committed position change.
type Persister interface {
	Persist(driverID string, positions Positions)
}

// GuardedPersister writes positions in the background through a resilience
// guard. Writes are fire-and-forget: a failed write is logged and dropped,
// and the driver falls back to the last saved or default positions.
type GuardedPersister struct {
	store   PositionStore
	guard   *resilience.Guard
	logger  zerolog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewGuardedPersister creates a persister over store.
func NewGuardedPersister(store PositionStore, guard *resilience.Guard, logger zerolog.Logger) *GuardedPersister {
	return &GuardedPersister{
		store:   store,
		guard:   guard,
		logger:  logger,
		timeout: 5 * time.Second,
	}
}

// Persist implements Persister.
func (p *GuardedPersister) Persist(driverID string, positions Positions) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		err := p.guard.Do(ctx, func(ctx context.Context) error {
			return p.store.Save(ctx, driverID, positions)
		})
		if err != nil {
			p.logger.Warn().Err(err).Str("driver_id", driverID).Msg("failed to persist widget positions")
		}
	}()
}

// Wait blocks until in-flight writes finish.
func (p *GuardedPersister) Wait() {
	p.wg.Wait()
}

// Haptics produces a tactile pulse on the driver's device.
type Haptics interface {
	Pulse(ctx context.Context, tier Tier) error
}

// NoopHaptics is used when no device is attached.
type NoopHaptics struct{}

// Pulse implements Haptics.
func (NoopHaptics) Pulse(context.Context, Tier) error { return nil }
