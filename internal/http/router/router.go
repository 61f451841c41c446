package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rentflow/rental-api/internal/auth"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/http/handler"
	"github.com/rentflow/rental-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "github.com/rentflow/rental-api/docs" // Register swagger docs
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	User        *handler.UserHandler
	Estate      *handler.EstateHandler
	Property    *handler.PropertyHandler
	Tenant      *handler.TenantHandler
	Contract    *handler.ContractHandler
	Maintenance *handler.MaintenanceHandler
	Portal      *handler.PortalHandler
	Audit       *handler.AuditHandler
}

type Router struct {
	cfg             *config.Config
	logger          *zap.Logger
	authMiddleware  *auth.Middleware
	rateLimiter     *middleware.RateLimiter
	auditMiddleware *middleware.AuditMiddleware
	handlers        Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	auditMiddleware *middleware.AuditMiddleware,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:             cfg,
		logger:          logger,
		authMiddleware:  authMiddleware,
		rateLimiter:     rateLimiter,
		auditMiddleware: auditMiddleware,
		handlers:        handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := rt.handlers

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)
	if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
		r.Use(chimiddleware.Timeout(timeout))
	}

	r.Get("/health", h.Health.Live)
	r.Get("/health/db", h.Health.Database)
	r.Get("/health/ready", h.Health.Ready)

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	staffWriters := rt.authMiddleware.RequireRole(domain.RoleAdmin, domain.RolePropertyManager)
	adminOnly := rt.authMiddleware.RequireRole(domain.RoleAdmin)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/login", h.Auth.Login)

		// Staff routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)
			r.Use(rt.rateLimiter.Limit)
			r.Use(rt.auditMiddleware.Audit)

			r.Get("/auth/me", h.Auth.Me)

			r.Route("/users", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.User.List)
				r.Post("/", h.User.Create)
			})

			r.With(adminOnly).Get("/audit", h.Audit.List)

			r.Route("/estates", func(r chi.Router) {
				r.Get("/", h.Estate.List)
				r.Post("/", h.Estate.Create)
				r.Get("/{id}", h.Estate.GetByID)
				r.Put("/{id}", h.Estate.Update)
				r.Delete("/{id}", h.Estate.Delete)
			})

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", h.Property.List)
				r.Post("/", h.Property.Create)
				r.Get("/{id}", h.Property.GetByID)
				r.Put("/{id}", h.Property.Update)
				r.Delete("/{id}", h.Property.Delete)
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", h.Tenant.List)
				r.Post("/", h.Tenant.Create)
				r.Get("/{id}", h.Tenant.GetByID)
				r.Put("/{id}", h.Tenant.Update)
				r.Delete("/{id}", h.Tenant.Delete)
			})

			r.Route("/contracts", func(r chi.Router) {
				r.Get("/", h.Contract.List)
				r.With(staffWriters).Post("/", h.Contract.Create)
				r.Get("/{id}", h.Contract.GetByID)
				r.With(staffWriters).Put("/{id}", h.Contract.Update)
				r.With(staffWriters).Delete("/{id}", h.Contract.Delete)
				r.Get("/{id}/document", h.Contract.Document)
				r.With(staffWriters).Post("/{id}/portal-token/rotate", h.Contract.RotatePortalToken)
			})

			r.Route("/maintenance", func(r chi.Router) {
				r.Get("/", h.Maintenance.List)
				r.With(staffWriters).Post("/", h.Maintenance.Create)
				r.Get("/{id}", h.Maintenance.GetByID)
				r.With(staffWriters).Patch("/{id}", h.Maintenance.Update)
			})
		})

		// Tenant portal, authenticated by the contract's portal token
		r.Route("/tenant-portal", func(r chi.Router) {
			r.Use(rt.authMiddleware.AuthenticatePortal)
			r.Use(rt.rateLimiter.LimitPortal)
			r.Use(rt.auditMiddleware.Audit)

			r.Get("/contracts", h.Portal.ListContracts)
			r.Get("/contracts/{id}", h.Portal.GetContract)
			r.Get("/contracts/{id}/document", h.Portal.ContractDocument)
			r.Get("/maintenance", h.Portal.ListMaintenance)
			r.Post("/maintenance", h.Portal.CreateMaintenance)
			r.Get("/maintenance/{id}", h.Portal.GetMaintenance)
			r.Patch("/maintenance/{id}", h.Portal.UpdateMaintenance)
		})
	})

	return r
}
