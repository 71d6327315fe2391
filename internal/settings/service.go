package settings

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/validation"
)

// ServiceConfig holds configuration for the settings service.
type ServiceConfig struct {
	Repository Repository
	Logger     zerolog.Logger
	CacheTTL   time.Duration // How long resolved settings are cached per driver
}

type cachedSettings struct {
	settings Settings
	expires  time.Time
}

// Service resolves driver settings with caching and fallback to defaults.
type Service struct {
	repo     Repository
	logger   zerolog.Logger
	cacheTTL time.Duration

	mu    sync.RWMutex
	cache map[string]cachedSettings
}

// NewService creates a new settings service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	return &Service{
		repo:     cfg.Repository,
		logger:   cfg.Logger,
		cacheTTL: cacheTTL,
		cache:    make(map[string]cachedSettings),
	}
}

// Get returns the driver's settings. A repository failure is logged and the
// defaults are returned, so display decisions never fail.
func (s *Service) Get(ctx context.Context, driverID string) Settings {
	if cached, ok := s.getCached(driverID); ok {
		return cached
	}

	entries, err := s.repo.All(ctx, driverID)
	if err != nil {
		s.logger.Warn().Err(err).Str("driver_id", driverID).Msg("failed to load settings, using defaults")
		return Defaults()
	}

	resolved := Resolve(entries)
	s.setCached(driverID, resolved)
	return resolved
}

// Update applies the non-nil fields of input and returns the new settings.
func (s *Service) Update(ctx context.Context, driverID string, input *models.SettingsInput) (*Settings, error) {
	if fieldErrors := validation.Struct(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	var entries []*Entry
	add := func(key string, value interface{}) {
		entries = append(entries, &Entry{DriverID: driverID, Key: key, Value: value, UpdatedAt: now})
	}
	if input.RatingFilterEnabled != nil {
		add(KeyRatingFilterEnabled, *input.RatingFilterEnabled)
	}
	if input.MinRating != nil {
		add(KeyMinRating, *input.MinRating)
	}
	if input.MinimalMode != nil {
		add(KeyMinimalMode, *input.MinimalMode)
	}

	if len(entries) > 0 {
		if err := s.repo.Set(ctx, entries); err != nil {
			return nil, err
		}
	}

	s.Invalidate(driverID)

	stored, err := s.repo.All(ctx, driverID)
	if err != nil {
		return nil, err
	}
	resolved := Resolve(stored)
	s.setCached(driverID, resolved)
	return &resolved, nil
}

// Reset deletes every stored entry of the driver, restoring the defaults.
func (s *Service) Reset(ctx context.Context, driverID string) error {
	for _, key := range []string{KeyRatingFilterEnabled, KeyMinRating, KeyMinimalMode} {
		if err := s.repo.Delete(ctx, driverID, key); err != nil {
			return err
		}
	}
	s.Invalidate(driverID)
	return nil
}

// Invalidate drops the cached settings of a driver.
func (s *Service) Invalidate(driverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, driverID)
}

func (s *Service) getCached(driverID string) (Settings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cache[driverID]
	if !ok || time.Now().After(c.expires) {
		return Settings{}, false
	}
	return c.settings, true
}

func (s *Service) setCached(driverID string, settings Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[driverID] = cachedSettings{settings: settings, expires: time.Now().Add(s.cacheTTL)}
}

// ToAPI converts Settings to the API representation.
func ToAPI(s Settings) models.DriverSettings {
	return models.DriverSettings{
		RatingFilterEnabled: s.RatingFilterEnabled,
		MinRating:           s.MinRating,
		MinimalMode:         s.MinimalMode,
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
