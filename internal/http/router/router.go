package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/cache"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/straye-as/crm-api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/straye-as/crm-api/docs" // Import swagger docs
)

// domainAdmins may reach user management routes; finer rules live in the user service
var domainAdmins = []domain.UserRole{domain.RoleAdmin, domain.RoleManager}

// Handlers groups the API handlers mounted under /api/v1
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Contact  *handler.ContactHandler
	Lead     *handler.LeadHandler
	Deal     *handler.DealHandler
	Activity *handler.ActivityHandler
	Report   *handler.ReportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	cache          *cache.Cache
	metrics        *metrics.Metrics
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	reportCache *cache.Cache,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		cache:          reportCache,
		metrics:        m,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(rt.metrics.Instrument)
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	r.Get("/health", rt.health)
	r.Get("/health/db", rt.healthDB)
	r.Get("/health/ready", rt.healthReady)

	if rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	h := rt.handlers
	r.Route("/api/v1", func(r chi.Router) {
		if timeout := rt.cfg.Server.RequestTimeoutDuration(); timeout > 0 {
			r.Use(chimw.Timeout(timeout))
		}
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(rt.rateLimiter.LimitByUser)

		r.Get("/auth/me", h.Auth.Me)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.User.List)
			r.With(rt.authMiddleware.RequireRole(domainAdmins...)).Post("/", h.User.Create)
			r.Get("/{id}", h.User.GetByID)
			r.Put("/{id}", h.User.Update)
			r.With(rt.authMiddleware.RequireRole(domainAdmins...)).Put("/{id}/role", h.User.ChangeRole)
			r.With(rt.authMiddleware.RequireRole(domainAdmins...)).Put("/{id}/active", h.User.SetActive)
			r.With(rt.authMiddleware.RequireRole(domainAdmins...)).Delete("/{id}", h.User.Delete)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", h.Contact.List)
			r.Post("/", h.Contact.Create)
			r.Get("/{id}", h.Contact.GetByID)
			r.Put("/{id}", h.Contact.Update)
			r.Delete("/{id}", h.Contact.Delete)
		})

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", h.Lead.List)
			r.Post("/", h.Lead.Create)
			r.Get("/{id}", h.Lead.GetByID)
			r.Put("/{id}", h.Lead.Update)
			r.Delete("/{id}", h.Lead.Delete)
			r.Post("/{id}/convert", h.Lead.Convert)
		})

		r.Route("/deals", func(r chi.Router) {
			r.Get("/", h.Deal.List)
			r.Post("/", h.Deal.Create)
			r.Get("/{id}", h.Deal.GetByID)
			r.Put("/{id}", h.Deal.Update)
			r.Delete("/{id}", h.Deal.Delete)
			r.Post("/{id}/stage", h.Deal.MoveStage)
			r.Get("/{id}/history", h.Deal.GetStageHistory)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.Activity.List)
			r.Post("/", h.Activity.Create)
			r.Get("/{id}", h.Activity.GetByID)
			r.Put("/{id}", h.Activity.Update)
			r.Patch("/{id}", h.Activity.SetCompleted)
			r.Delete("/{id}", h.Activity.Delete)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/pipeline", h.Report.Pipeline)
			r.Get("/activities", h.Report.Activities)
		})
	})

	return r
}
