package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tripgauge/tripgauge/internal/api/middleware"
	"github.com/tripgauge/tripgauge/internal/api/response"
	"github.com/tripgauge/tripgauge/internal/validation"
)

// maxBodyBytes bounds request bodies; every payload is a small JSON object.
const maxBodyBytes = 64 << 10

// GetDriverID retrieves the authenticated driver ID from the context.
// This is a convenience wrapper around middleware.GetDriverID.
func GetDriverID(ctx context.Context) string {
	return middleware.GetDriverID(ctx)
}

// requireDriver returns the authenticated driver, writing a 401 when there is none.
func requireDriver(w http.ResponseWriter, r *http.Request) (string, bool) {
	driverID := GetDriverID(r.Context())
	if driverID == "" {
		response.Unauthorized(w, r, "driver not authenticated")
		return "", false
	}
	return driverID, true
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return false
	}
	return true
}

// decodeValid is decodeJSON followed by struct-tag validation.
func decodeValid(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if fieldErrors := validation.Struct(dst); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "validation failed", fieldErrors)
		return false
	}
	return true
}
