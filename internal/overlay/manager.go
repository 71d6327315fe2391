package overlay

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	Store     PositionStore
	Persister Persister
	Scheduler Scheduler
	Haptics   Haptics
	Logger    zerolog.Logger
	AutoHide  time.Duration
	Viewport  Size
}

// Manager owns one Machine per driver and fans out state changes to subscribers.
type Manager struct {
	cfg ManagerConfig

	mu          sync.Mutex
	machines    map[string]*Machine
	subscribers map[string]map[uint64]func(Snapshot)
	nextSubID   uint64
}

// NewManager creates a Manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:         cfg,
		machines:    make(map[string]*Machine),
		subscribers: make(map[string]map[uint64]func(Snapshot)),
	}
}

// Machine returns the driver's machine, creating it on first use with the
// driver's saved positions. A failed load falls back to default positions.
func (m *Manager) Machine(ctx context.Context, driverID string) *Machine {
	m.mu.Lock()
	if machine, ok := m.machines[driverID]; ok {
		m.mu.Unlock()
		return machine
	}
	m.mu.Unlock()

	positions := m.loadPositions(ctx, driverID)

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have won the race while positions were loading.
	if machine, ok := m.machines[driverID]; ok {
		return machine
	}

	machine := NewMachine(MachineConfig{
		DriverID:  driverID,
		Scheduler: m.cfg.Scheduler,
		Persister: m.cfg.Persister,
		Haptics:   m.cfg.Haptics,
		Logger:    m.cfg.Logger,
		AutoHide:  m.cfg.AutoHide,
		Viewport:  m.cfg.Viewport,
		Positions: positions,
		OnChange:  func(s Snapshot) { m.publish(driverID, s) },
	})
	m.machines[driverID] = machine
	return machine
}

func (m *Manager) loadPositions(ctx context.Context, driverID string) *Positions {
	if m.cfg.Store == nil {
		return nil
	}

	positions, err := m.cfg.Store.Load(ctx, driverID)
	if err != nil {
		if !errors.Is(err, ErrPositionsNotFound) {
			m.cfg.Logger.Warn().Err(err).Str("driver_id", driverID).Msg("failed to load widget positions, using defaults")
		}
		return nil
	}

	viewport := m.cfg.Viewport
	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = DefaultViewport
	}
	positions.Accept = ClampPoint(positions.Accept, DefaultWidgetSize, viewport)
	positions.Reject = ClampPoint(positions.Reject, DefaultWidgetSize, viewport)
	return &positions
}

// Subscribe registers fn for the driver's state changes and returns a
// function that removes it. fn runs on the goroutine that caused the change
// and must not block.
func (m *Manager) Subscribe(driverID string, fn func(Snapshot)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	if m.subscribers[driverID] == nil {
		m.subscribers[driverID] = make(map[uint64]func(Snapshot))
	}
	m.subscribers[driverID][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers[driverID], id)
		if len(m.subscribers[driverID]) == 0 {
			delete(m.subscribers, driverID)
		}
	}
}

// Refresh republishes the driver's current state, for subscribers whose
// rendering depends on something outside the machine such as display settings.
// Drivers without a machine are skipped.
func (m *Manager) Refresh(driverID string) {
	m.mu.Lock()
	machine, ok := m.machines[driverID]
	m.mu.Unlock()
	if !ok {
		return
	}
	m.publish(driverID, machine.Snapshot())
}

func (m *Manager) publish(driverID string, snap Snapshot) {
	m.mu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subscribers[driverID]))
	for _, fn := range m.subscribers[driverID] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
