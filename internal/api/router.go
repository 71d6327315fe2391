// Package api provides the HTTP companion API for TripGauge.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/tripgauge/tripgauge/internal/advisor"
	"github.com/tripgauge/tripgauge/internal/api/handler"
	"github.com/tripgauge/tripgauge/internal/api/middleware"
	"github.com/tripgauge/tripgauge/internal/overlay"
	"github.com/tripgauge/tripgauge/internal/profile"
	"github.com/tripgauge/tripgauge/internal/resilience"
	"github.com/tripgauge/tripgauge/internal/settings"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// AllowedOrigins are the renderer origins allowed for CORS and websocket
	// upgrades. Empty allows same-origin only.
	AllowedOrigins []string

	// RequireTLS rejects plain-HTTP requests not forwarded from a TLS proxy.
	RequireTLS bool

	Tokens   middleware.TokenValidator
	Profiles *profile.Service
	Settings *settings.Service
	Overlays *overlay.Manager
	Advisor  *advisor.Advisor
	Registry *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "tripgauge-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)            // HSTS, CSP, no-store
	r.Use(middleware.RequireTLS(cfg.RequireTLS)) // TLS enforcement
	r.Use(middleware.ContentTypeJSON)            // JSON content type

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry)
	profileHandler := handler.NewProfileHandler(cfg.Profiles, cfg.Logger)
	settingsHandler := handler.NewSettingsHandler(cfg.Settings, cfg.Overlays, cfg.Logger)
	offerHandler := handler.NewOfferHandler(cfg.Advisor, cfg.Logger)
	overlayHandler := handler.NewOverlayHandler(cfg.Overlays, cfg.Settings, cfg.Logger)
	streamHandler := handler.NewStreamHandler(cfg.Overlays, cfg.Settings, cfg.Logger, originChecker(cfg.AllowedOrigins))

	authMiddleware := middleware.Auth(cfg.Tokens)

	clientRateLimit := middleware.RateLimitByIP(middleware.ClientRateLimit)         // 600 req/min per IP, before auth
	standardRateLimit := middleware.RateLimitByDriver(middleware.StandardRateLimit) // 100 req/min per driver
	offerRateLimit := middleware.RateLimitByDriver(middleware.OfferRateLimit)       // 300 req/min per driver
	gestureRateLimit := middleware.RateLimitByDriver(middleware.GestureRateLimit)   // 1200 req/min per driver

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires authentication
			r.With(authMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Me endpoints (authenticated)
		r.Route("/me", func(r chi.Router) {
			r.Use(clientRateLimit)
			r.Use(authMiddleware)
			r.Use(middleware.RequireJSON)

			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)

				// Profiles
				r.Get("/profiles", profileHandler.ListProfiles)
				r.Post("/profiles", profileHandler.CreateProfile)
				r.Get("/profiles:active", profileHandler.GetActiveProfile)
				r.Get("/profiles/{profileId}", profileHandler.GetProfile)
				r.Put("/profiles/{profileId}", profileHandler.UpdateProfile)
				r.Delete("/profiles/{profileId}", profileHandler.DeleteProfile)
				r.Post("/profiles/{profileId}:activate", profileHandler.ActivateProfile)

				// Settings
				r.Get("/settings", settingsHandler.GetSettings)
				r.Put("/settings", settingsHandler.UpdateSettings)
				r.Delete("/settings", settingsHandler.ResetSettings)

				// Overlay
				r.Get("/overlay", overlayHandler.GetOverlay)
				r.Post("/overlay:show", overlayHandler.ShowOverlay)
				r.Post("/overlay:hide", overlayHandler.HideOverlay)
				r.Post("/overlay:toggle-positioning", overlayHandler.TogglePositioning)
				r.Post("/overlay:emergency-disable", overlayHandler.EmergencyDisable)
				r.Post("/overlay:enable", overlayHandler.Enable)
				r.Put("/overlay/viewport", overlayHandler.SetViewport)
				r.Get("/overlay/stream", streamHandler.Stream)
			})

			// Offers arrive in bursts while online.
			r.Group(func(r chi.Router) {
				r.Use(offerRateLimit)
				r.Post("/evaluations", offerHandler.EvaluateOffer)
				r.Post("/offers", offerHandler.SubmitOffer)
			})

			// Drag gestures stream pointer updates.
			r.Route("/overlay/widgets/{widget}", func(r chi.Router) {
				r.Use(gestureRateLimit)
				r.Post("/drag:begin", overlayHandler.BeginDrag)
				r.Post("/drag:move", overlayHandler.MoveDrag)
				r.Post("/drag:end", overlayHandler.EndDrag)
				r.Put("/position", overlayHandler.SetPosition)
			})
		})
	})

	return r
}

// originChecker allows websocket upgrades from the configured origins. With
// none configured gorilla's same-origin check applies.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
