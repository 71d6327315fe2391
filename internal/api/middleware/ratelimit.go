package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"

	"github.com/tripgauge/tripgauge/internal/api/models"
)

// RateLimitConfig holds configuration for rate limiting.
type RateLimitConfig struct {
	RequestLimit int
	WindowLength time.Duration
}

var (
	// ClientRateLimit bounds everything one IP sends before authentication,
	// which caps token guessing (600 req/min).
	ClientRateLimit = RateLimitConfig{RequestLimit: 600, WindowLength: time.Minute}

	// OfferRateLimit applies to offer submission (300 req/min). Offers arrive
	// in bursts while a driver is online.
	OfferRateLimit = RateLimitConfig{RequestLimit: 300, WindowLength: time.Minute}

	// GestureRateLimit applies to widget drag updates (1200 req/min).
	GestureRateLimit = RateLimitConfig{RequestLimit: 1200, WindowLength: time.Minute}

	// StandardRateLimit applies to profile, settings and overlay actions (100 req/min).
	StandardRateLimit = RateLimitConfig{RequestLimit: 100, WindowLength: time.Minute}
)

// RateLimitByIP limits by client IP, ignoring the port. chi's RealIP runs
// first, so proxied requests key on the forwarded address.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

// RateLimitByDriver limits by authenticated driver, falling back to the
// client IP on unauthenticated requests.
func RateLimitByDriver(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowLength,
		httprate.WithKeyFuncs(keyByDriverOrIP),
		httprate.WithLimitHandler(limitExceeded(cfg)),
	)
}

func keyByDriverOrIP(r *http.Request) (string, error) {
	if driverID := GetDriverID(r.Context()); driverID != "" {
		return "driver:" + driverID, nil
	}
	return httprate.KeyByIP(r)
}

// limitExceeded writes a 429 problem. httprate does not expose the window
// reset, so Retry-After is the full window.
func limitExceeded(cfg RateLimitConfig) http.HandlerFunc {
	retryAfter := strconv.Itoa(int(cfg.WindowLength.Seconds()))
	return func(w http.ResponseWriter, r *http.Request) {
		problem := models.NewTooManyRequests(GetRequestID(r.Context()), "Rate limit exceeded. Please try again later.")
		problem.Instance = r.URL.Path
		w.Header().Set("Retry-After", retryAfter)
		problem.Write(w)
	}
}
