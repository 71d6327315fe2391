package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrCircuitOpen is returned when the breaker rejects a call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// GuardConfig configures a Guard.
type GuardConfig struct {
	// Name identifies the guarded dependency in health reports.
	Name string

	// Timeout bounds each attempt. Default: 2 seconds
	Timeout time.Duration

	// MaxRetries after the first attempt. Default: 2
	MaxRetries uint64

	// InitialInterval is the first retry delay. Default: 50ms
	InitialInterval time.Duration

	// MaxInterval caps the retry delay. Default: 1 second
	MaxInterval time.Duration

	Breaker BreakerConfig

	// Registry, when set, has the guard registered under Name.
	Registry *Registry
}

// DefaultGuardConfig returns defaults suited to a fast key/value dependency.
func DefaultGuardConfig(name string) GuardConfig {
	return GuardConfig{
		Name:            name,
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		InitialInterval: 50 * time.Millisecond,
		MaxInterval:     time.Second,
		Breaker:         DefaultBreakerConfig(),
	}
}

// Guard runs operations against one dependency with breaker and retry protection.
type Guard struct {
	cfg     GuardConfig
	breaker *gobreaker.CircuitBreaker[struct{}]

	mu            sync.Mutex
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewGuard creates a Guard and registers it with cfg.Registry if set.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 50 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = time.Second
	}

	g := &Guard{
		cfg:     cfg,
		breaker: newBreaker(cfg.Name, cfg.Breaker),
	}
	if cfg.Registry != nil {
		cfg.Registry.Register(g)
	}
	return g
}

// Name returns the guarded dependency name.
func (g *Guard) Name() string {
	return g.cfg.Name
}

// Do runs op, retrying transient failures with exponential backoff.
// Errors wrapped with Permanent are not retried. Returns ErrCircuitOpen
// without calling op when the breaker is open.
func (g *Guard) Do(ctx context.Context, op func(ctx context.Context) error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = g.cfg.InitialInterval
	bo.MaxInterval = g.cfg.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, g.cfg.MaxRetries), ctx)

	attempt := func() error {
		_, err := g.breaker.Execute(func() (struct{}, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
			defer cancel()
			return struct{}{}, op(attemptCtx)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return backoff.Permanent(ErrCircuitOpen)
		}
		return err
	}

	err := backoff.Retry(attempt, policy)
	g.record(err)
	return err
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

func (g *Guard) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if err == nil {
		g.lastSuccessAt = &now
		return
	}
	g.lastFailureAt = &now
	g.lastError = err.Error()
}

// State returns the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// Health returns a point-in-time health report.
func (g *Guard) Health() *Health {
	g.mu.Lock()
	defer g.mu.Unlock()

	return &Health{
		Name:          g.cfg.Name,
		CircuitState:  g.breaker.State(),
		Counts:        g.breaker.Counts(),
		LastSuccessAt: g.lastSuccessAt,
		LastFailureAt: g.lastFailureAt,
		LastError:     g.lastError,
	}
}
