package overlay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// AutoHideAfter is how long a shown overlay stays up outside positioning mode.
const AutoHideAfter = 15 * time.Second

// Snapshot is a consistent copy of a Machine's state.
type Snapshot struct {
	DriverID        string    `json:"driverId"`
	Visible         bool      `json:"visible"`
	Tier            Tier      `json:"tier,omitempty"`
	PassengerRating *float64  `json:"passengerRating,omitempty"`
	Positions       Positions `json:"positions"`
	PositioningMode bool      `json:"positioningMode"`
	TimerArmed      bool      `json:"timerArmed"`
	Disabled        bool      `json:"disabled"`
	Viewport        Size      `json:"viewport"`
}

// MachineConfig configures a Machine.
type MachineConfig struct {
	DriverID  string
	Scheduler Scheduler
	Persister Persister
	Haptics   Haptics
	Logger    zerolog.Logger

	// AutoHide defaults to AutoHideAfter.
	AutoHide time.Duration

	// Viewport defaults to DefaultViewport.
	Viewport Size

	// Positions are the committed positions to start from.
	// Nil means DefaultPositions for the viewport.
	Positions *Positions

	// OnChange is called with the new state after every transition,
	// outside the machine's lock.
	OnChange func(Snapshot)
}

type drag struct {
	origin Point
}

// Machine is the overlay state machine for one driver. States are Hidden and
// Visible(tier); positioning mode is an orthogonal flag. At most one
// auto-hide timer is outstanding, and none while positioning.
type Machine struct {
	driverID  string
	scheduler Scheduler
	persister Persister
	haptics   Haptics
	logger    zerolog.Logger
	autoHide  time.Duration
	onChange  func(Snapshot)

	mu          sync.Mutex
	visible     bool
	tier        Tier
	rating      *float64
	positioning bool
	disabled    bool
	positions   Positions
	viewport    Size
	footprints  map[Widget]Size
	drags       map[Widget]drag

	timer Timer
	// generation invalidates callbacks of timers that were replaced or stopped.
	generation uint64
}

// NewMachine creates a hidden Machine.
func NewMachine(cfg MachineConfig) *Machine {
	if cfg.Scheduler == nil {
		cfg.Scheduler = SystemScheduler{}
	}
	if cfg.Haptics == nil {
		cfg.Haptics = NoopHaptics{}
	}
	if cfg.AutoHide <= 0 {
		cfg.AutoHide = AutoHideAfter
	}
	if cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		cfg.Viewport = DefaultViewport
	}

	positions := DefaultPositions(cfg.Viewport)
	if cfg.Positions != nil {
		positions = *cfg.Positions
	}

	return &Machine{
		driverID:  cfg.DriverID,
		scheduler: cfg.Scheduler,
		persister: cfg.Persister,
		haptics:   cfg.Haptics,
		logger:    cfg.Logger,
		autoHide:  cfg.AutoHide,
		onChange:  cfg.OnChange,
		positions: positions,
		viewport:  cfg.Viewport,
		footprints: map[Widget]Size{
			WidgetAccept: DefaultWidgetSize,
			WidgetReject: DefaultWidgetSize,
		},
		drags: make(map[Widget]drag),
	}
}

// ShowOverlay makes the overlay visible with tier and restarts the auto-hide
// window. The current trip rating, if any, is cleared.
func (m *Machine) ShowOverlay(tier Tier) error {
	return m.show(tier, nil)
}

// ShowTrip is ShowOverlay for a trip offer; the passenger rating feeds the
// rating filter in Render.
func (m *Machine) ShowTrip(tier Tier, passengerRating float64) error {
	return m.show(tier, &passengerRating)
}

func (m *Machine) show(tier Tier, rating *float64) error {
	if _, err := ParseTier(string(tier)); err != nil {
		return err
	}

	m.mu.Lock()
	if m.disabled {
		m.mu.Unlock()
		return ErrOverlayDisabled
	}
	m.visible = true
	m.tier = tier
	m.rating = rating
	m.stopTimerLocked()
	if !m.positioning {
		m.armTimerLocked()
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.pulse(tier)
	m.emit(snap)
	return nil
}

// HideOverlay hides the overlay and cancels any pending auto-hide.
func (m *Machine) HideOverlay() {
	m.mu.Lock()
	m.hideLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
}

func (m *Machine) hideLocked() {
	m.stopTimerLocked()
	m.visible = false
	m.rating = nil
}

// TogglePositioningMode flips positioning mode and reports the new value.
// Entering cancels the auto-hide timer; leaving while visible starts a fresh one.
func (m *Machine) TogglePositioningMode() bool {
	m.mu.Lock()
	m.positioning = !m.positioning
	if m.positioning {
		m.stopTimerLocked()
	} else {
		m.drags = make(map[Widget]drag)
		if m.visible {
			m.armTimerLocked()
		}
	}
	positioning := m.positioning
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
	return positioning
}

// EmergencyDisable hides the overlay and rejects shows until Enable.
func (m *Machine) EmergencyDisable() {
	m.mu.Lock()
	m.hideLocked()
	m.disabled = true
	m.positioning = false
	m.drags = make(map[Widget]drag)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Warn().Str("driver_id", m.driverID).Msg("overlay emergency disabled")
	m.emit(snap)
}

// Enable lifts EmergencyDisable. The overlay stays hidden until the next show.
func (m *Machine) Enable() {
	m.mu.Lock()
	m.disabled = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.emit(snap)
}

// BeginDrag starts a gesture on w and returns its committed position.
func (m *Machine) BeginDrag(w Widget) (Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.positioning {
		return Point{}, ErrNotPositioning
	}
	origin := m.positions.Get(w)
	m.drags[w] = drag{origin: origin}
	return origin, nil
}

// MoveDrag returns where w would be after moving by offset from the gesture
// origin. Nothing is clamped or committed.
func (m *Machine) MoveDrag(w Widget, offset Point) (Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.positioning {
		return Point{}, ErrNotPositioning
	}
	return m.dragOriginLocked(w).Add(offset), nil
}

// EndDrag releases the gesture on w, clamps the final position to the
// viewport and commits it.
func (m *Machine) EndDrag(w Widget, offset Point) (Point, error) {
	m.mu.Lock()
	if !m.positioning {
		m.mu.Unlock()
		return Point{}, ErrNotPositioning
	}
	proposed := m.dragOriginLocked(w).Add(offset)
	delete(m.drags, w)
	m.mu.Unlock()

	return m.UpdatePosition(w, proposed)
}

func (m *Machine) dragOriginLocked(w Widget) Point {
	if d, ok := m.drags[w]; ok {
		return d.origin
	}
	return m.positions.Get(w)
}

// UpdatePosition clamps proposed for w and commits it. Only w moves.
func (m *Machine) UpdatePosition(w Widget, proposed Point) (Point, error) {
	m.mu.Lock()
	if !m.positioning {
		m.mu.Unlock()
		return Point{}, ErrNotPositioning
	}
	committed := ClampPoint(proposed, m.footprints[w], m.viewport)
	m.positions.Set(w, committed)
	positions := m.positions
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.persist(positions)
	m.emit(snap)
	return committed, nil
}

// SetViewport changes the viewport and pulls committed positions back inside it.
func (m *Machine) SetViewport(viewport Size) {
	m.mu.Lock()
	m.viewport = viewport
	before := m.positions
	for _, w := range []Widget{WidgetAccept, WidgetReject} {
		m.positions.Set(w, ClampPoint(m.positions.Get(w), m.footprints[w], viewport))
	}
	changed := before != m.positions
	positions := m.positions
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if changed {
		m.persist(positions)
	}
	m.emit(snap)
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	var rating *float64
	if m.rating != nil {
		r := *m.rating
		rating = &r
	}
	return Snapshot{
		DriverID:        m.driverID,
		Visible:         m.visible,
		Tier:            m.tier,
		PassengerRating: rating,
		Positions:       m.positions,
		PositioningMode: m.positioning,
		TimerArmed:      m.timer != nil,
		Disabled:        m.disabled,
		Viewport:        m.viewport,
	}
}

// armTimerLocked schedules the auto-hide. The caller must have stopped any
// previous timer.
func (m *Machine) armTimerLocked() {
	m.generation++
	gen := m.generation

	timer, err := m.scheduler.AfterFunc(m.autoHide, func() { m.expire(gen) })
	if err != nil {
		m.logger.Warn().Err(err).Str("driver_id", m.driverID).Msg("auto-hide timer unavailable")
		return
	}
	m.timer = timer
}

func (m *Machine) stopTimerLocked() {
	m.generation++
	if m.timer == nil {
		return
	}
	m.timer.Stop()
	m.timer = nil
}

func (m *Machine) expire(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.timer == nil {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	m.hideLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.logger.Debug().Str("driver_id", m.driverID).Msg("overlay auto-hidden")
	m.emit(snap)
}

func (m *Machine) pulse(tier Tier) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := m.haptics.Pulse(ctx, tier); err != nil {
		m.logger.Warn().Err(err).Str("driver_id", m.driverID).Msg("haptic pulse failed")
	}
}

func (m *Machine) persist(positions Positions) {
	if m.persister != nil {
		m.persister.Persist(m.driverID, positions)
	}
}

func (m *Machine) emit(snap Snapshot) {
	if m.onChange != nil {
		m.onChange(snap)
	}
}
