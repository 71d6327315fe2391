package models

import (
	"encoding/json"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const problemBase = "https://api.tripgauge.app/problems/"

// Problem types. The overlay and profile conflicts get their own types so
// the renderer can react without parsing the detail text.
const (
	ProblemTypeValidation           = problemBase + "validation-error"
	ProblemTypeUnauthorized         = problemBase + "unauthorized"
	ProblemTypeNotFound             = problemBase + "not-found"
	ProblemTypeConflict             = problemBase + "conflict"
	ProblemTypeTooManyRequests      = problemBase + "too-many-requests"
	ProblemTypeInternal             = problemBase + "internal-error"
	ProblemTypeTLSRequired          = problemBase + "tls-required"
	ProblemTypeUnsupportedMediaType = problemBase + "unsupported-media-type"

	ProblemTypeNoActiveProfile = problemBase + "no-active-profile"
	ProblemTypeOverlayDisabled = problemBase + "overlay-disabled"
	ProblemTypeNotPositioning  = problemBase + "not-positioning"
)

// NewProblem creates a Problem without detail.
func NewProblem(problemType, title string, status int, traceID string) *Problem {
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		TraceID: traceID,
	}
}

// Write writes the Problem as JSON to the ResponseWriter.
func (p *Problem) Write(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		w.Header().Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func newDetailed(problemType, title string, status int, traceID, detail string) *Problem {
	p := NewProblem(problemType, title, status, traceID)
	p.Detail = detail
	return p
}

// NewBadRequest creates a 400 problem carrying field errors.
func NewBadRequest(traceID, detail string, errors []FieldError) *Problem {
	p := newDetailed(ProblemTypeValidation, "Validation error", http.StatusBadRequest, traceID, detail)
	p.Errors = errors
	return p
}

func NewUnauthorized(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeUnauthorized, "Unauthorized", http.StatusUnauthorized, traceID, detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeNotFound, "Not found", http.StatusNotFound, traceID, detail)
}

func NewConflict(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeConflict, "Conflict", http.StatusConflict, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeTooManyRequests, "Too many requests", http.StatusTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return newDetailed(ProblemTypeInternal, "Internal server error", http.StatusInternalServerError, traceID, detail)
}

// NewNoActiveProfile is the 409 returned when an offer arrives for a driver
// who has not activated a profile.
func NewNoActiveProfile(traceID string) *Problem {
	return newDetailed(ProblemTypeNoActiveProfile, "No active profile", http.StatusConflict, traceID,
		"activate a profile before submitting offers")
}

// NewOverlayDisabled is the 409 returned while the overlay is emergency-disabled.
func NewOverlayDisabled(traceID string) *Problem {
	return newDetailed(ProblemTypeOverlayDisabled, "Overlay disabled", http.StatusConflict, traceID,
		"overlay is emergency-disabled")
}

// NewNotPositioning is the 409 returned for drags outside positioning mode.
func NewNotPositioning(traceID string) *Problem {
	return newDetailed(ProblemTypeNotPositioning, "Not positioning", http.StatusConflict, traceID,
		"overlay is not in positioning mode")
}
