package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/profile"
)

// ProfileHandler handles driver profile endpoints.
type ProfileHandler struct {
	profiles *profile.Service
	logger   zerolog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles *profile.Service, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// ListProfiles handles GET /v1/me/profiles.
func (h *ProfileHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	list, err := h.profiles.List(r.Context(), driverID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, list)
}

// CreateProfile handles POST /v1/me/profiles. A driver's first profile is
// activated.
func (h *ProfileHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	var input models.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	created, err := h.profiles.Create(r.Context(), driverID, &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, r, fmt.Sprintf("/v1/me/profiles/%s", created.ID), created)
}

// GetProfile handles GET /v1/me/profiles/{profileId}.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Get(r.Context(), driverID, chi.URLParam(r, "profileId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

// UpdateProfile handles PUT /v1/me/profiles/{profileId}.
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	var input models.ProfileInput
	if !decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.profiles.Update(r.Context(), driverID, chi.URLParam(r, "profileId"), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteProfile handles DELETE /v1/me/profiles/{profileId}.
func (h *ProfileHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	if err := h.profiles.Delete(r.Context(), driverID, chi.URLParam(r, "profileId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w, r)
}

// ActivateProfile handles POST /v1/me/profiles/{profileId}:activate.
func (h *ProfileHandler) ActivateProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Activate(r.Context(), driverID, chi.URLParam(r, "profileId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info().Str("driver_id", driverID).Str("profile_id", p.ID).Msg("profile activated")
	response.JSON(w, r, http.StatusOK, p)
}

// GetActiveProfile handles GET /v1/me/profiles:active.
func (h *ProfileHandler) GetActiveProfile(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	p, err := h.profiles.Active(r.Context(), driverID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, p)
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *profile.ValidationError
	switch {
	case errors.As(err, &validationErr):
		response.BadRequest(w, r, "validation failed", validationErr.Errors)
	case errors.Is(err, profile.ErrProfileNotFound):
		response.NotFound(w, r, "profile not found")
	case errors.Is(err, profile.ErrNoActiveProfile):
		response.NotFound(w, r, "no active profile")
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("profile request failed")
		response.InternalError(w, r, "internal server error")
	}
}
