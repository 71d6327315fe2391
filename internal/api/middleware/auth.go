package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tripgauge/tripgauge/internal/api/models"
	"github.com/tripgauge/tripgauge/internal/auth"
)

// driverIDKey is the context key for the authenticated driver ID.
type driverIDKey struct{}

// TokenValidator validates driver bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth creates authentication middleware that validates JWT bearer tokens.
// Browsers cannot set headers on websocket upgrades, so upgrade requests may
// carry the token in the access_token query parameter instead.
func Auth(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, detail := bearerToken(r)
			if detail != "" {
				writeUnauthorized(w, r, detail)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenExpired):
					writeUnauthorized(w, r, "access token has expired")
				case errors.Is(err, auth.ErrInvalidToken):
					writeUnauthorized(w, r, "invalid access token")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			recordDriver(r.Context(), claims.DriverID)
			next.ServeHTTP(w, r.WithContext(WithDriverID(r.Context(), claims.DriverID)))
		})
	}
}

// bearerToken extracts the token, or returns why it could not.
func bearerToken(r *http.Request) (token, detail string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if isWebSocketUpgrade(r) {
			if token := r.URL.Query().Get("access_token"); token != "" {
				return token, ""
			}
		}
		return "", "missing authorization header"
	}

	// Check for Bearer prefix (case-insensitive)
	const bearerPrefix = "Bearer "
	if len(authHeader) < len(bearerPrefix) ||
		!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", "invalid authorization header format"
	}

	token = authHeader[len(bearerPrefix):]
	if token == "" {
		return "", "missing bearer token"
	}
	return token, ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// writeUnauthorized is local because response imports this package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := models.NewUnauthorized(GetRequestID(r.Context()), detail)
	problem.Instance = r.URL.Path
	w.Header().Set("WWW-Authenticate", `Bearer realm="tripgauge"`)
	problem.Write(w)
}

// GetDriverID retrieves the authenticated driver ID from the context.
// Returns an empty string if not authenticated.
func GetDriverID(ctx context.Context) string {
	if id, ok := ctx.Value(driverIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithDriverID returns a copy of ctx carrying driverID, as Auth does.
func WithDriverID(ctx context.Context, driverID string) context.Context {
	return context.WithValue(ctx, driverIDKey{}, driverID)
}
