package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Health is the health of one guarded dependency.
type Health struct {
	Name          string
	CircuitState  gobreaker.State
	Counts        gobreaker.Counts
	LastSuccessAt *time.Time
	LastFailureAt *time.Time
	LastError     string
}

// Status maps the breaker state onto ok, degraded or down.
func (h *Health) Status() string {
	switch h.CircuitState {
	case gobreaker.StateClosed:
		return "ok"
	case gobreaker.StateHalfOpen:
		return "degraded"
	default:
		return "down"
	}
}

// Registry tracks guards by dependency name.
type Registry struct {
	mu     sync.RWMutex
	guards map[string]*Guard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{guards: make(map[string]*Guard)}
}

// Register adds g, replacing any guard with the same name.
func (r *Registry) Register(g *Guard) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.guards[g.Name()] = g
}

// Unregister removes the guard called name.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.guards, name)
}

// Health returns the health of one dependency, or nil if unknown.
func (r *Registry) Health(name string) *Health {
	r.mu.RLock()
	g, ok := r.guards[name]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return g.Health()
}

// AllHealth returns the health of every dependency, sorted by name.
func (r *Registry) AllHealth() []*Health {
	r.mu.RLock()
	guards := make([]*Guard, 0, len(r.guards))
	for _, g := range r.guards {
		guards = append(guards, g)
	}
	r.mu.RUnlock()

	health := make([]*Health, 0, len(guards))
	for _, g := range guards {
		health = append(health, g.Health())
	}
	sort.Slice(health, func(i, j int) bool { return health[i].Name < health[j].Name })
	return health
}

// Len returns the number of registered guards.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.guards)
}
