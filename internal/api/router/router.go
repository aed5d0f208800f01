package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/serviceinfo/serviceinfo/internal/api/handlers"
	"github.com/serviceinfo/serviceinfo/internal/api/middleware"
	"github.com/serviceinfo/serviceinfo/internal/config"
	"github.com/serviceinfo/serviceinfo/internal/pkg/logger"
	"github.com/serviceinfo/serviceinfo/internal/pkg/metrics"
)

// Handlers groups every HTTP handler mounted by the router
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Activation *handlers.ActivationHandler
	Provider   *handlers.ProviderHandler
	Area       *handlers.AreaHandler
	Service    *handlers.ServiceHandler
	User       *handlers.UserHandler
}

// RegistrationRate bounds self-registrations per client IP
var RegistrationRate = struct {
	PerSecond float64
	Burst     int
}{PerSecond: 0.2, Burst: 5}

func New(cfg *config.Config, log *logger.Logger, users middleware.Authenticator, h *Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recovery(log))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.FrontendCORS(cfg.Server.FrontendURL))
	r.Use(middleware.RateLimit(100, 200)) // 100 req/sec, burst of 200
	r.Use(middleware.Language)

	requireAuth := middleware.AuthMiddleware(users, cfg.Auth.JWTSecret)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Get("/swagger/*", httpSwagger.WrapHandler)
		r.Handle("/metrics", metrics.Handler())

		// Health checks
		r.Get("/health", h.Health.Healthz)
		r.Get("/healthz", h.Health.Healthz)
		r.Get("/readyz", h.Health.Readyz)

		r.Post("/api/auth/login", h.Auth.Login)
		r.Post("/api/auth/refresh", h.Auth.Refresh)
		r.Post("/api/auth/logout", h.Auth.Logout)

		r.Get("/api/activate/{key}", h.Activation.Activate)

		r.Get("/api/providertypes", h.Provider.ListTypes)
		r.Get("/api/providertypes/{id}", h.Provider.GetType)
		r.Get("/api/servicetypes", h.Service.ListTypes)
		r.Get("/api/servicetypes/{id}", h.Service.GetType)
		r.Get("/api/serviceareas", h.Area.List)
		r.Get("/api/serviceareas/{id}", h.Area.Get)
	})

	r.Route("/api/providers", func(r chi.Router) {
		// Self-registration is the only unauthenticated create
		r.With(middleware.RateLimit(RegistrationRate.PerSecond, RegistrationRate.Burst)).
			Post("/create_provider/", h.Provider.Register)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.Provider.List)
			r.Post("/", h.Provider.Create)
			r.Get("/{id}", h.Provider.Get)
		})
	})

	r.Route("/api/services", func(r chi.Router) {
		r.Get("/search", h.Service.Search)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", h.Service.List)
			r.Post("/", h.Service.Create)
			r.Get("/{id}", h.Service.Get)
			r.With(middleware.RequireStaff).Post("/{id}/approve", h.Service.Approve)
			r.With(middleware.RequireStaff).Post("/{id}/reject", h.Service.Reject)
		})
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.With(middleware.RequireStaff).Post("/api/serviceareas", h.Area.Create)

		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", h.User.List)
			r.Get("/me", h.User.Me)
			r.Get("/{id}", h.User.Get)
		})
	})

	return r
}
