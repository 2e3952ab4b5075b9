// Package server assembles the HTTP router: middleware, JSON API, and pages.
package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	dashboardhandler "webstarter/backend/internal/dashboard/handler"
	healthhandler "webstarter/backend/internal/health/handler"
	identityhandler "webstarter/backend/internal/identity/handler"
	"webstarter/backend/internal/server/middleware"
	settingshandler "webstarter/backend/internal/settings/handler"
	"webstarter/backend/internal/telemetry/metrics"
	"webstarter/backend/internal/web"
)

// AuthService is what the router needs from the auth service: the auth endpoints plus
// session lookup for the session middleware.
type AuthService interface {
	identityhandler.AuthService
	middleware.SessionLoader
}

// Deps holds the router's dependencies.
type Deps struct {
	// Auth serves sign-up, sign-in, sign-out, and session lookup. Required.
	Auth AuthService
	// Settings backs /api/settings and the settings page. Required.
	Settings settingshandler.SettingsService
	// Renderer renders the HTML pages. Required.
	Renderer *web.Renderer
	// Cookie names and secures the session cookie.
	Cookie middleware.CookieConfig
	// Metrics records HTTP metrics and serves /metrics. If nil, neither is mounted.
	Metrics *metrics.Metrics
	// HealthDB is pinged by /health. If nil, the database check is skipped.
	HealthDB healthhandler.Pinger
	// HealthCache is pinged by /health when the session cache is enabled.
	HealthCache healthhandler.Pinger
	// CORSOrigins are the origins allowed to make credentialed cross-origin API calls.
	CORSOrigins []string
	// Logger receives request logs and handler errors. If nil, logging is disabled.
	Logger *zap.Logger
}

// NewRouter returns the application handler, wrapped for OpenTelemetry tracing.
//
// Route → handler mapping:
//   - /health, /health/live → internal/health/handler
//   - /metrics              → internal/telemetry/metrics
//   - /api/auth/*           → internal/identity/handler
//   - /api/dashboard        → internal/dashboard/handler
//   - /api/settings         → internal/settings/handler
//   - /api/public           → publicAPI
//   - /api/protected        → protectedAPI
//   - pages                 → internal/web
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.ClientIPContext)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	health := healthhandler.NewServer(deps.HealthDB, deps.HealthCache)
	r.Get("/health", health.Ready)
	r.Get("/health/live", health.Live)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(deps.Auth, deps.Cookie, logger))

		r.Route("/api", func(r chi.Router) {
			r.Get("/public", publicAPI)
			r.Route("/auth", identityhandler.NewServer(deps.Auth, deps.Cookie, logger).Routes)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAPI)
				settings := settingshandler.NewServer(deps.Settings, logger)
				r.Get("/protected", protectedAPI)
				r.Get("/dashboard", dashboardhandler.Overview)
				r.Get("/settings", settings.Get)
				r.Put("/settings", settings.Update)
			})
		})

		web.NewPages(deps.Renderer, deps.Auth, deps.Settings, deps.Cookie, logger).Routes(r)
	})

	return otelhttp.NewHandler(r, "http.server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics" && !strings.HasPrefix(r.URL.Path, "/health")
		}),
	)
}
