// Package response writes JSON and RFC 7807 responses with the request ID
// echoed for correlation.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/tripgauge/tripgauge/internal/api/middleware"
	"github.com/tripgauge/tripgauge/internal/api/models"
)

func write(w http.ResponseWriter, r *http.Request, status int, location string, data interface{}) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}
	if data != nil {
		w.Header().Set("Content-Type", "application/json")
	}
	if location != "" {
		w.Header().Set("Location", location)
	}
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// JSON writes data with the given status code.
func JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	write(w, r, status, "", data)
}

// Created writes a 201 with a Location header.
func Created(w http.ResponseWriter, r *http.Request, location string, data interface{}) {
	write(w, r, http.StatusCreated, location, data)
}

// NoContent writes a 204.
func NoContent(w http.ResponseWriter, r *http.Request) {
	write(w, r, http.StatusNoContent, "", nil)
}

// Error writes problem with the request path as its instance.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

func traceID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}

// BadRequest writes a 400 with optional field errors.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string, errors []models.FieldError) {
	Error(w, r, models.NewBadRequest(traceID(r), detail, errors))
}

// Unauthorized writes a 401.
func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(traceID(r), detail))
}

// NotFound writes a 404.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(traceID(r), detail))
}

// Conflict writes a generic 409.
func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(traceID(r), detail))
}

// NoActiveProfile writes the 409 for offers without an active profile.
func NoActiveProfile(w http.ResponseWriter, r *http.Request) {
	Error(w, r, models.NewNoActiveProfile(traceID(r)))
}

// OverlayDisabled writes the 409 for a kill-switched overlay.
func OverlayDisabled(w http.ResponseWriter, r *http.Request) {
	Error(w, r, models.NewOverlayDisabled(traceID(r)))
}

// NotPositioning writes the 409 for drags outside positioning mode.
func NotPositioning(w http.ResponseWriter, r *http.Request) {
	Error(w, r, models.NewNotPositioning(traceID(r)))
}

// InternalError writes a 500. detail must not leak internals.
func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(traceID(r), detail))
}
