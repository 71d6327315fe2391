package overlay_test

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tripgauge/tripgauge/internal/overlay"
)

// fakeScheduler is a manual clock for timer tests.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
	fired  int
	fail   bool
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	f       func()
	stopped bool
	done    bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.done {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) (overlay.Timer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, errors.New("timer service unavailable")
	}
	t := &fakeTimer{s: s, at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t, nil
}

// Advance moves the clock forward and runs every timer that came due.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.done && t.at <= s.now {
			t.done = true
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
	s.fired += len(due)
	s.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// Pending counts timers that have neither fired nor been stopped.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.done {
			n++
		}
	}
	return n
}

func (s *fakeScheduler) Fired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fired
}

// recordingPersister captures persisted positions synchronously.
type recordingPersister struct {
	mu    sync.Mutex
	saved []overlay.Positions
}

func (p *recordingPersister) Persist(_ string, positions overlay.Positions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saved = append(p.saved, positions)
}

func (p *recordingPersister) Saved() []overlay.Positions {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]overlay.Positions(nil), p.saved...)
}
