package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripgauge/tripgauge/internal/api/middleware"
	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/auth"
)

func testJWTService(t *testing.T, ttl time.Duration) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "test-secret-key-for-testing-only",
		Issuer:     "https://api.tripgauge.app",
		Audience:   "tripgauge-api",
		TTL:        ttl,
	})
	require.NoError(t, err)
	return svc
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// driverEcho writes the authenticated driver ID as the body.
func driverEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(middleware.GetDriverID(r.Context())))
	})
}

func TestAuth_Rejections(t *testing.T) {
	svc := testJWTService(t, 0)
	otherIssuer, err := auth.NewJWTService(auth.JWTConfig{
		SigningKey: "another-signing-key-entirely",
		Issuer:     "https://api.tripgauge.app",
		Audience:   "tripgauge-api",
	})
	require.NoError(t, err)
	forged, _, err := otherIssuer.GenerateToken("drv_1")
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantDetail string
	}{
		{"missing header", "", "missing authorization header"},
		{"no scheme", "token123", "invalid authorization header format"},
		{"basic auth", "Basic dXNlcjpwYXNz", "invalid authorization header format"},
		{"scheme only", "Bearer", "invalid authorization header format"},
		{"empty token", "Bearer ", "missing bearer token"},
		{"malformed token", "Bearer invalid.jwt.token", "invalid access token"},
		{"wrong signing key", "Bearer " + forged, "invalid access token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me/settings", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			middleware.Auth(svc)(okHandler()).ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")

			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, models.ProblemTypeUnauthorized, problem.Type)
			assert.Equal(t, tt.wantDetail, problem.Detail)
			assert.Equal(t, "/v1/me/settings", problem.Instance)
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	svc := testJWTService(t, time.Nanosecond)
	token, _, err := svc.GenerateToken("drv_1")
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/v1/me/settings", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	middleware.Auth(svc)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access token has expired")
}

func TestAuth_ValidToken_AnySchemeCase(t *testing.T) {
	svc := testJWTService(t, 0)
	token, _, err := svc.GenerateToken("drv_8f2k")
	require.NoError(t, err)

	for _, scheme := range []string{"Bearer ", "bearer ", "BEARER "} {
		t.Run(scheme, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/me/settings", http.NoBody)
			req.Header.Set("Authorization", scheme+token)
			rec := httptest.NewRecorder()
			middleware.Auth(svc)(driverEcho()).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "drv_8f2k", rec.Body.String())
		})
	}
}

func TestAuth_QueryTokenOnlyForWebSocketUpgrade(t *testing.T) {
	svc := testJWTService(t, 0)
	token, _, err := svc.GenerateToken("drv_ws")
	require.NoError(t, err)
	handler := middleware.Auth(svc)(driverEcho())

	plain := httptest.NewRequest(http.MethodGet, "/v1/me/overlay/stream?access_token="+token, http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, plain)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	upgrade := httptest.NewRequest(http.MethodGet, "/v1/me/overlay/stream?access_token="+token, http.NoBody)
	upgrade.Header.Set("Connection", "Upgrade")
	upgrade.Header.Set("Upgrade", "websocket")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, upgrade)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "drv_ws", rec.Body.String())
}

func TestGetDriverID_NoAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/me/settings", http.NoBody)
	assert.Empty(t, middleware.GetDriverID(req.Context()))
}
