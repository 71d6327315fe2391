package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/settings"
)

// OverlayState is the overlay machine state together with what the
// renderer draws for it under the driver's settings.
type OverlayState struct {
	State overlay.Snapshot `json:"state"`
	View  overlay.View     `json:"view"`
}

// OverlayHandler handles the driver's overlay.
type OverlayHandler struct {
	overlays *overlay.Manager
	settings *settings.Service
	logger   zerolog.Logger
}

// NewOverlayHandler creates a new OverlayHandler.
func NewOverlayHandler(overlays *overlay.Manager, svc *settings.Service, logger zerolog.Logger) *OverlayHandler {
	return &OverlayHandler{overlays: overlays, settings: svc, logger: logger}
}

func (h *OverlayHandler) state(ctx context.Context, snap overlay.Snapshot) OverlayState {
	return OverlayState{
		State: snap,
		View:  overlay.Render(snap, h.settings.Get(ctx, snap.DriverID)),
	}
}

func (h *OverlayHandler) machine(w http.ResponseWriter, r *http.Request) (*overlay.Machine, bool) {
	driverID, ok := requireDriver(w, r)
	if !ok {
		return nil, false
	}
	return h.overlays.Machine(r.Context(), driverID), true
}

func (h *OverlayHandler) writeState(w http.ResponseWriter, r *http.Request, m *overlay.Machine) {
	response.JSON(w, r, http.StatusOK, h.state(r.Context(), m.Snapshot()))
}

// GetOverlay handles GET /v1/me/overlay.
func (h *OverlayHandler) GetOverlay(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	h.writeState(w, r, m)
}

// ShowOverlay handles POST /v1/me/overlay:show.
func (h *OverlayHandler) ShowOverlay(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var input models.OverlayShowInput
	if !decodeValid(w, r, &input) {
		return
	}
	tier, err := overlay.ParseTier(input.Tier)
	if err != nil {
		response.BadRequest(w, r, err.Error(), nil)
		return
	}

	if err := m.ShowOverlay(tier); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, m)
}

// HideOverlay handles POST /v1/me/overlay:hide.
func (h *OverlayHandler) HideOverlay(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.HideOverlay()
	h.writeState(w, r, m)
}

// TogglePositioning handles POST /v1/me/overlay:toggle-positioning.
func (h *OverlayHandler) TogglePositioning(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.TogglePositioningMode()
	h.writeState(w, r, m)
}

// EmergencyDisable handles POST /v1/me/overlay:emergency-disable.
func (h *OverlayHandler) EmergencyDisable(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.EmergencyDisable()
	h.writeState(w, r, m)
}

// Enable handles POST /v1/me/overlay:enable.
func (h *OverlayHandler) Enable(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}
	m.Enable()
	h.writeState(w, r, m)
}

// SetViewport handles PUT /v1/me/overlay/viewport.
func (h *OverlayHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	m, ok := h.machine(w, r)
	if !ok {
		return
	}

	var input models.ViewportInput
	if !decodeValid(w, r, &input) {
		return
	}
	m.SetViewport(overlay.Size{Width: input.Width, Height: input.Height})
	h.writeState(w, r, m)
}

// BeginDrag handles POST /v1/me/overlay/widgets/{widget}/drag:begin.
func (h *OverlayHandler) BeginDrag(w http.ResponseWriter, r *http.Request) {
	m, widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	pos, err := m.BeginDrag(widget)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, widgetPosition(widget, pos, true))
}

// MoveDrag handles POST /v1/me/overlay/widgets/{widget}/drag:move. The
// returned position is a preview and is not committed.
func (h *OverlayHandler) MoveDrag(w http.ResponseWriter, r *http.Request) {
	m, widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	var input models.DragInput
	if !decodeJSON(w, r, &input) {
		return
	}
	pos, err := m.MoveDrag(widget, overlay.Point{X: input.DX, Y: input.DY})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, widgetPosition(widget, pos, false))
}

// EndDrag handles POST /v1/me/overlay/widgets/{widget}/drag:end.
func (h *OverlayHandler) EndDrag(w http.ResponseWriter, r *http.Request) {
	m, widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	var input models.DragInput
	if !decodeJSON(w, r, &input) {
		return
	}
	pos, err := m.EndDrag(widget, overlay.Point{X: input.DX, Y: input.DY})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, widgetPosition(widget, pos, true))
}

// SetPosition handles PUT /v1/me/overlay/widgets/{widget}/position, placing
// the widget directly. The position is clamped to the viewport.
func (h *OverlayHandler) SetPosition(w http.ResponseWriter, r *http.Request) {
	m, widget, ok := h.widget(w, r)
	if !ok {
		return
	}

	var input models.PositionInput
	if !decodeJSON(w, r, &input) {
		return
	}
	pos, err := m.UpdatePosition(widget, overlay.Point{X: input.X, Y: input.Y})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, widgetPosition(widget, pos, true))
}

func (h *OverlayHandler) widget(w http.ResponseWriter, r *http.Request) (*overlay.Machine, overlay.Widget, bool) {
	widget, err := overlay.ParseWidget(chi.URLParam(r, "widget"))
	if err != nil {
		response.NotFound(w, r, "widget not found")
		return nil, "", false
	}
	m, ok := h.machine(w, r)
	if !ok {
		return nil, "", false
	}
	return m, widget, true
}

func (h *OverlayHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, overlay.ErrOverlayDisabled):
		response.OverlayDisabled(w, r)
	case errors.Is(err, overlay.ErrNotPositioning):
		response.NotPositioning(w, r)
	case errors.Is(err, overlay.ErrInvalidTier), errors.Is(err, overlay.ErrInvalidWidget):
		response.BadRequest(w, r, err.Error(), nil)
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("overlay request failed")
		response.InternalError(w, r, "internal server error")
	}
}

func widgetPosition(widget overlay.Widget, p overlay.Point, committed bool) models.WidgetPosition {
	return models.WidgetPosition{
		Widget:    string(widget),
		X:         p.X,
		Y:         p.Y,
		Committed: committed,
	}
}
