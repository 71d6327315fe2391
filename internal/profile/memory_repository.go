package profile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for local runs and testing. Production should use PostgresRepository.
type InMemoryRepository struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles: make(map[string]*Profile),
	}
}

// Get retrieves a profile owned by the driver.
func (r *InMemoryRepository) Get(_ context.Context, driverID, profileID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[profileID]
	if !ok || p.DriverID != driverID {
		return nil, ErrProfileNotFound
	}

	cpy := *p
	return &cpy, nil
}

// List retrieves all profiles of a driver, most recently updated first.
func (r *InMemoryRepository) List(_ context.Context, driverID string) ([]*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var profiles []*Profile
	for _, p := range r.profiles {
		if p.DriverID == driverID {
			cpy := *p
			profiles = append(profiles, &cpy)
		}
	}

	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].UpdatedAt.After(profiles[j].UpdatedAt)
	})

	return profiles, nil
}

// Active retrieves the driver's active profile.
func (r *InMemoryRepository) Active(_ context.Context, driverID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p := r.activeLocked(driverID); p != nil {
		cpy := *p
		return &cpy, nil
	}
	return nil, ErrNoActiveProfile
}

// Create creates a new profile, activating it if the driver has no active one.
func (r *InMemoryRepository) Create(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.IsActive = r.activeLocked(p.DriverID) == nil
	cpy := *p
	r.profiles[p.ID] = &cpy
	return nil
}

// Update updates an existing profile.
func (r *InMemoryRepository) Update(_ context.Context, p *Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.profiles[p.ID]
	if !ok || existing.DriverID != p.DriverID {
		return ErrProfileNotFound
	}

	cpy := *p
	cpy.IsActive = existing.IsActive
	r.profiles[p.ID] = &cpy
	return nil
}

// Delete deletes a profile and promotes a successor under the same lock.
func (r *InMemoryRepository) Delete(_ context.Context, driverID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.profiles[profileID]
	if !ok || p.DriverID != driverID {
		return ErrProfileNotFound
	}
	delete(r.profiles, profileID)
	if !p.IsActive {
		return nil
	}

	var next *Profile
	for _, candidate := range r.profiles {
		if candidate.DriverID == driverID && (next == nil || candidate.UpdatedAt.After(next.UpdatedAt)) {
			next = candidate
		}
	}
	if next != nil {
		next.IsActive = true
		next.UpdatedAt = time.Now()
	}
	return nil
}

func (r *InMemoryRepository) activeLocked(driverID string) *Profile {
	for _, p := range r.profiles {
		if p.DriverID == driverID && p.IsActive {
			return p
		}
	}
	return nil
}

// Activate switches the driver's active profile under a single lock.
func (r *InMemoryRepository) Activate(_ context.Context, driverID, profileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.profiles[profileID]
	if !ok || target.DriverID != driverID {
		return ErrProfileNotFound
	}

	now := time.Now()
	for _, p := range r.profiles {
		if p.DriverID != driverID {
			continue
		}
		active := p.ID == profileID
		if p.IsActive != active {
			p.IsActive = active
			p.UpdatedAt = now
		}
	}
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
