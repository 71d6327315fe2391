// Package handler provides HTTP handlers for the TripGauge companion API.
package handler

import (
	"net/http"
	"time"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. registry may be nil.
func NewOpsHandler(version, buildTime string, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]interface{}{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready - readiness check.
// The service is not ready while any guarded dependency's circuit is open.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.overall(h.subsystems())
	health := models.Health{
		Status: status,
		Time:   models.Timestamp(time.Now()),
	}
	if status == models.HealthStatusFail {
		response.JSON(w, r, http.StatusServiceUnavailable, health)
		return
	}
	response.JSON(w, r, http.StatusOK, health)
}

// SystemStatus handles GET /v1/ops/status - guarded dependency status.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	subsystems := h.subsystems()
	status := models.SystemStatus{
		Status:     h.overall(subsystems),
		Time:       models.Timestamp(time.Now()),
		Subsystems: subsystems,
	}
	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) subsystems() []models.SubsystemStatus {
	subsystems := []models.SubsystemStatus{}
	if h.registry == nil {
		return subsystems
	}

	for _, health := range h.registry.AllHealth() {
		s := models.SubsystemStatus{
			Name:          health.Name,
			Status:        healthStatus(health.Status()),
			CircuitState:  health.CircuitState.String(),
			LastSuccessAt: timestampPtr(health.LastSuccessAt),
			LastFailureAt: timestampPtr(health.LastFailureAt),
		}
		if health.LastError != "" {
			msg := health.LastError
			s.Message = &msg
		}
		subsystems = append(subsystems, s)
	}
	return subsystems
}

// overall is the worst status across subsystems.
func (h *OpsHandler) overall(subsystems []models.SubsystemStatus) models.HealthStatus {
	status := models.HealthStatusOK
	for _, s := range subsystems {
		switch s.Status {
		case models.HealthStatusFail:
			return models.HealthStatusFail
		case models.HealthStatusDegraded:
			status = models.HealthStatusDegraded
		}
	}
	return status
}

func healthStatus(s string) models.HealthStatus {
	switch s {
	case "ok":
		return models.HealthStatusOK
	case "degraded":
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}

func timestampPtr(t *time.Time) *models.Timestamp {
	if t == nil {
		return nil
	}
	ts := models.Timestamp(*t)
	return &ts
}
