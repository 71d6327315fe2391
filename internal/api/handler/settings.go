package handler

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/settings"
)

// SettingsHandler handles driver display settings.
type SettingsHandler struct {
	settings *settings.Service
	overlays *overlay.Manager
	logger   zerolog.Logger
}

// NewSettingsHandler creates a new SettingsHandler. Changes are pushed to
// open overlay streams through overlays, which may be nil.
func NewSettingsHandler(svc *settings.Service, overlays *overlay.Manager, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{settings: svc, overlays: overlays, logger: logger}
}

// GetSettings handles GET /v1/me/settings.
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}
	response.JSON(w, r, http.StatusOK, settings.ToAPI(h.settings.Get(r.Context(), driverID)))
}

// UpdateSettings handles PUT /v1/me/settings. Omitted fields keep their value.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	var input models.SettingsInput
	if !decodeJSON(w, r, &input) {
		return
	}

	updated, err := h.settings.Update(r.Context(), driverID, &input)
	if err != nil {
		var validationErr *settings.ValidationError
		if errors.As(err, &validationErr) {
			response.BadRequest(w, r, "validation failed", validationErr.Errors)
			return
		}
		h.logger.Error().Err(err).Str("driver_id", driverID).Msg("failed to update settings")
		response.InternalError(w, r, "internal server error")
		return
	}

	h.refresh(driverID)
	response.JSON(w, r, http.StatusOK, settings.ToAPI(*updated))
}

// ResetSettings handles DELETE /v1/me/settings.
func (h *SettingsHandler) ResetSettings(w http.ResponseWriter, r *http.Request) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return
	}

	if err := h.settings.Reset(r.Context(), driverID); err != nil {
		h.logger.Error().Err(err).Str("driver_id", driverID).Msg("failed to reset settings")
		response.InternalError(w, r, "internal server error")
		return
	}

	h.refresh(driverID)
	response.NoContent(w, r)
}

func (h *SettingsHandler) refresh(driverID string) {
	if h.overlays != nil {
		h.overlays.Refresh(driverID)
	}
}
