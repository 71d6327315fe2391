package profile

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/validation"
)

// Service provides profile registry operations.
type Service struct {
	repo Repository
}

// NewService creates a new profile service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves all profiles of a driver.
func (s *Service) List(ctx context.Context, driverID string) (*models.ProfileList, error) {
	profiles, err := s.repo.List(ctx, driverID)
	if err != nil {
		return nil, err
	}

	items := make([]models.DriverProfile, 0, len(profiles))
	for _, p := range profiles {
		items = append(items, toAPIProfile(p))
	}

	return &models.ProfileList{Items: items}, nil
}

// Get retrieves a single profile of a driver.
func (s *Service) Get(ctx context.Context, driverID, profileID string) (*models.DriverProfile, error) {
	p, err := s.repo.Get(ctx, driverID, profileID)
	if err != nil {
		return nil, err
	}

	result := toAPIProfile(p)
	return &result, nil
}

// Create creates a new profile. A driver's first profile becomes active.
func (s *Service) Create(ctx context.Context, driverID string, input *models.ProfileInput) (*models.DriverProfile, error) {
	if fieldErrors := validation.Struct(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	p := &Profile{
		ID:        newProfileID(),
		DriverID:  driverID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyInput(p, input)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	result := toAPIProfile(p)
	return &result, nil
}

// Update replaces the thresholds of an existing profile.
func (s *Service) Update(ctx context.Context, driverID, profileID string, input *models.ProfileInput) (*models.DriverProfile, error) {
	p, err := s.repo.Get(ctx, driverID, profileID)
	if err != nil {
		return nil, err
	}

	if fieldErrors := validation.Struct(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	applyInput(p, input)
	p.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	result := toAPIProfile(p)
	return &result, nil
}

// Delete deletes a profile. When the active profile is deleted the most
// recently updated remaining profile takes over.
func (s *Service) Delete(ctx context.Context, driverID, profileID string) error {
	return s.repo.Delete(ctx, driverID, profileID)
}

// Activate makes profileID the driver's active profile.
func (s *Service) Activate(ctx context.Context, driverID, profileID string) (*models.DriverProfile, error) {
	if err := s.repo.Activate(ctx, driverID, profileID); err != nil {
		return nil, err
	}
	return s.Get(ctx, driverID, profileID)
}

// Active returns the API representation of the driver's active profile.
func (s *Service) Active(ctx context.Context, driverID string) (*models.DriverProfile, error) {
	p, err := s.repo.Active(ctx, driverID)
	if err != nil {
		return nil, err
	}
	result := toAPIProfile(p)
	return &result, nil
}

// ActiveProfile returns the profile the evaluator should read.
// Returns ErrNoActiveProfile when the driver has none.
func (s *Service) ActiveProfile(ctx context.Context, driverID string) (*Profile, error) {
	return s.repo.Active(ctx, driverID)
}

// EnsureDefault creates and activates DefaultProfile when the driver has
// no profiles yet, and returns the active profile.
func (s *Service) EnsureDefault(ctx context.Context, driverID string) (*Profile, error) {
	active, err := s.repo.Active(ctx, driverID)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, ErrNoActiveProfile) {
		return nil, err
	}

	p := DefaultProfile(driverID)
	p.ID = newProfileID()
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	if !p.IsActive {
		// A concurrent create activated its own profile first.
		return s.repo.Active(ctx, driverID)
	}
	return p, nil
}

func applyInput(p *Profile, input *models.ProfileInput) {
	p.Name = input.Name
	p.MinFare = input.MinFare
	p.MaxPickupDistance = input.MaxPickupDistance
	p.MaxDrivingDistance = input.MaxDrivingDistance
	p.MinFarePerMile = input.MinFarePerMile
	p.MinFarePerMinute = input.MinFarePerMinute
}

func newProfileID() string {
	return "prf_" + uuid.New().String()[:22]
}

// toAPIProfile converts a domain Profile to an API DriverProfile.
func toAPIProfile(p *Profile) models.DriverProfile {
	return models.DriverProfile{
		ID:                 p.ID,
		Name:               p.Name,
		MinFare:            p.MinFare,
		MaxPickupDistance:  p.MaxPickupDistance,
		MaxDrivingDistance: p.MaxDrivingDistance,
		MinFarePerMile:     p.MinFarePerMile,
		MinFarePerMinute:   p.MinFarePerMinute,
		IsActive:           p.IsActive,
		CreatedAt:          models.Timestamp(p.CreatedAt),
		UpdatedAt:          models.Timestamp(p.UpdatedAt),
	}
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
