package settings

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries map[string]map[string]*Entry
}

// NewInMemoryRepository creates a new in-memory settings repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{entries: make(map[string]map[string]*Entry)}
}

// Get retrieves one entry.
func (r *InMemoryRepository) Get(_ context.Context, driverID, key string) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[driverID][key]
	if !ok {
		return nil, ErrSettingNotFound
	}
	entryCopy := *e
	return &entryCopy, nil
}

// All retrieves every entry of a driver.
func (r *InMemoryRepository) All(_ context.Context, driverID string) (map[string]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]*Entry, len(r.entries[driverID]))
	for k, e := range r.entries[driverID] {
		entryCopy := *e
		result[k] = &entryCopy
	}
	return result, nil
}

// Set creates or updates entries under a single lock.
func (r *InMemoryRepository) Set(_ context.Context, entries []*Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range entries {
		if r.entries[e.DriverID] == nil {
			r.entries[e.DriverID] = make(map[string]*Entry)
		}
		entryCopy := *e
		r.entries[e.DriverID][e.Key] = &entryCopy
	}
	return nil
}

// Delete removes one entry.
func (r *InMemoryRepository) Delete(_ context.Context, driverID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries[driverID], key)
	return nil
}

var _ Repository = (*InMemoryRepository)(nil)
