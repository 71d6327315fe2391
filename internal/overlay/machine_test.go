package overlay_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/overlay"
)

func newTestMachine(t *testing.T) (*overlay.Machine, *fakeScheduler, *recordingPersister) {
	t.Helper()
	sched := &fakeScheduler{}
	persister := &recordingPersister{}
	m := overlay.NewMachine(overlay.MachineConfig{
		DriverID:  "drv_1",
		Scheduler: sched,
		Persister: persister,
		Logger:    zerolog.Nop(),
	})
	return m, sched, persister
}

func TestMachine_StartsHidden(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	snap := m.Snapshot()
	assert.False(t, snap.Visible)
	assert.False(t, snap.PositioningMode)
	assert.False(t, snap.TimerArmed)
	assert.Equal(t, overlay.DefaultViewport, snap.Viewport)
	assert.Equal(t, overlay.DefaultPositions(overlay.DefaultViewport), snap.Positions)
	assert.Zero(t, sched.Pending())
}

func TestMachine_ShowThenAutoHide(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	snap := m.Snapshot()
	assert.True(t, snap.Visible)
	assert.Equal(t, overlay.TierGreen, snap.Tier)
	assert.True(t, snap.TimerArmed)

	sched.Advance(14900 * time.Millisecond)
	assert.True(t, m.Snapshot().Visible)

	sched.Advance(100 * time.Millisecond)
	snap = m.Snapshot()
	assert.False(t, snap.Visible)
	assert.False(t, snap.TimerArmed)
}

func TestMachine_ReshowKeepsSingleTimer(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	sched.Advance(10 * time.Second)
	require.NoError(t, m.ShowOverlay(overlay.TierYellow))

	assert.Equal(t, 1, sched.Pending())

	// The first window would have ended here.
	sched.Advance(5 * time.Second)
	assert.True(t, m.Snapshot().Visible)
	assert.Equal(t, overlay.TierYellow, m.Snapshot().Tier)
	assert.Zero(t, sched.Fired())

	sched.Advance(10 * time.Second)
	assert.False(t, m.Snapshot().Visible)
	assert.Equal(t, 1, sched.Fired(), "exactly one timer fires")
}

func TestMachine_HideCancelsTimer(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	require.NoError(t, m.ShowOverlay(overlay.TierRed))
	m.HideOverlay()

	assert.False(t, m.Snapshot().Visible)
	assert.Zero(t, sched.Pending())

	sched.Advance(time.Minute)
	assert.Zero(t, sched.Fired())
}

func TestMachine_PositioningSuspendsAutoHide(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	sched.Advance(14900 * time.Millisecond)

	assert.True(t, m.TogglePositioningMode())
	assert.Zero(t, sched.Pending())

	sched.Advance(30 * time.Second)
	snap := m.Snapshot()
	assert.True(t, snap.Visible, "overlay must survive past 15s while positioning")
	assert.False(t, snap.TimerArmed)

	assert.False(t, m.TogglePositioningMode())
	assert.Equal(t, 1, sched.Pending())

	sched.Advance(14900 * time.Millisecond)
	assert.True(t, m.Snapshot().Visible, "leaving positioning starts a fresh window")

	sched.Advance(100 * time.Millisecond)
	assert.False(t, m.Snapshot().Visible)
}

func TestMachine_ShowWhilePositioningArmsNoTimer(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	m.TogglePositioningMode()
	require.NoError(t, m.ShowOverlay(overlay.TierYellow))

	snap := m.Snapshot()
	assert.True(t, snap.Visible)
	assert.True(t, snap.PositioningMode)
	assert.False(t, snap.TimerArmed)
	assert.Zero(t, sched.Pending())
}

func TestMachine_LeavingPositioningWhileHiddenArmsNoTimer(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	m.TogglePositioningMode()
	m.TogglePositioningMode()

	assert.False(t, m.Snapshot().Visible)
	assert.Zero(t, sched.Pending())
}

func TestMachine_StaleTimerCallbackIgnored(t *testing.T) {
	sched := &fakeScheduler{}
	var captured []func()
	capturing := schedulerFunc(func(d time.Duration, f func()) (overlay.Timer, error) {
		captured = append(captured, f)
		return sched.AfterFunc(d, f)
	})

	m := overlay.NewMachine(overlay.MachineConfig{DriverID: "drv_1", Scheduler: capturing, Logger: zerolog.Nop()})

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	require.NoError(t, m.ShowOverlay(overlay.TierYellow))
	require.Len(t, captured, 2)

	// A timer that was stopped but raced past Stop must not hide the overlay.
	captured[0]()
	assert.True(t, m.Snapshot().Visible)

	captured[1]()
	assert.False(t, m.Snapshot().Visible)
}

type schedulerFunc func(d time.Duration, f func()) (overlay.Timer, error)

func (f schedulerFunc) AfterFunc(d time.Duration, fn func()) (overlay.Timer, error) {
	return f(d, fn)
}

func TestMachine_TimerFailureIsNonFatal(t *testing.T) {
	sched := &fakeScheduler{fail: true}
	m := overlay.NewMachine(overlay.MachineConfig{DriverID: "drv_1", Scheduler: sched, Logger: zerolog.Nop()})

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	snap := m.Snapshot()
	assert.True(t, snap.Visible)
	assert.False(t, snap.TimerArmed)

	m.HideOverlay()
	assert.False(t, m.Snapshot().Visible)
}

type failingHaptics struct {
	mu    sync.Mutex
	calls int
}

func (h *failingHaptics) Pulse(context.Context, overlay.Tier) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return errors.New("vibrator not available")
}

func TestMachine_HapticFailureIsNonFatal(t *testing.T) {
	haptics := &failingHaptics{}
	m := overlay.NewMachine(overlay.MachineConfig{
		DriverID:  "drv_1",
		Scheduler: &fakeScheduler{},
		Haptics:   haptics,
		Logger:    zerolog.Nop(),
	})

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	assert.True(t, m.Snapshot().Visible)
	assert.Equal(t, 1, haptics.calls)
}

func TestMachine_ShowRejectsUnknownTier(t *testing.T) {
	m, _, _ := newTestMachine(t)

	err := m.ShowOverlay(overlay.Tier("purple"))
	assert.ErrorIs(t, err, overlay.ErrInvalidTier)
	assert.False(t, m.Snapshot().Visible)
}

func TestMachine_ShowTripRecordsRating(t *testing.T) {
	m, _, _ := newTestMachine(t)

	require.NoError(t, m.ShowTrip(overlay.TierGreen, 4.5))
	snap := m.Snapshot()
	require.NotNil(t, snap.PassengerRating)
	assert.Equal(t, 4.5, *snap.PassengerRating)

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	assert.Nil(t, m.Snapshot().PassengerRating)
}

func TestMachine_EmergencyDisable(t *testing.T) {
	m, sched, _ := newTestMachine(t)

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	m.TogglePositioningMode()
	m.EmergencyDisable()

	snap := m.Snapshot()
	assert.False(t, snap.Visible)
	assert.True(t, snap.Disabled)
	assert.False(t, snap.PositioningMode)
	assert.Zero(t, sched.Pending())

	assert.ErrorIs(t, m.ShowOverlay(overlay.TierGreen), overlay.ErrOverlayDisabled)
	assert.False(t, m.Snapshot().Visible)

	m.Enable()
	assert.False(t, m.Snapshot().Visible, "enable does not re-show")
	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	assert.True(t, m.Snapshot().Visible)
}

func TestMachine_OnChangeReceivesEveryTransition(t *testing.T) {
	var mu sync.Mutex
	var seen []overlay.Snapshot
	sched := &fakeScheduler{}
	m := overlay.NewMachine(overlay.MachineConfig{
		DriverID:  "drv_1",
		Scheduler: sched,
		Logger:    zerolog.Nop(),
		OnChange: func(s overlay.Snapshot) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, s)
		},
	})

	require.NoError(t, m.ShowOverlay(overlay.TierGreen))
	sched.Advance(overlay.AutoHideAfter)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 2)
	assert.True(t, seen[0].Visible)
	assert.False(t, seen[1].Visible)
}
