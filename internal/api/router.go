package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"orbtrap-lab/internal/api/handlers"
	apimiddleware "orbtrap-lab/internal/api/middleware"
	"orbtrap-lab/internal/config"
	"orbtrap-lab/internal/infrastructure/cache"
	"orbtrap-lab/pkg/logger"
)

// Router holds dependencies for the API router
type Router struct {
	config   config.Config
	handlers *handlers.Handlers
	cache    *cache.RedisCache
	logger   *logger.Logger
}

// NewRouter creates a new Router instance
func NewRouter(cfg config.Config, h *handlers.Handlers, c *cache.RedisCache, log *logger.Logger) *Router {
	return &Router{
		config:   cfg,
		handlers: h,
		cache:    c,
		logger:   log.WithComponent("router"),
	}
}

// Setup sets up the Chi router with all routes and middleware
func (r *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Core middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(apimiddleware.Logger(r.logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   r.config.CORS.AllowedOrigins,
		AllowedMethods:   r.config.CORS.AllowedMethods,
		AllowedHeaders:   r.config.CORS.AllowedHeaders,
		AllowCredentials: r.config.CORS.AllowCredentials,
		MaxAge:           r.config.CORS.MaxAge,
	}))

	// Public routes
	router.Group(func(pub chi.Router) {
		pub.Get("/health", r.handlers.Health.Check)
		pub.Get("/ready", r.handlers.Health.Ready)
	})

	// API v1 routes (authenticated)
	router.Route("/api/v1", func(api chi.Router) {
		api.Use(apimiddleware.APIKeyAuth(r.config.Auth.APIKey))

		// Rate limiting needs Redis; skip it on in-memory runs
		if r.config.RateLimit.Enabled && r.cache != nil {
			api.Use(apimiddleware.RateLimiter(r.cache, r.config.RateLimit))
		}

		api.Use(middleware.AllowContentType("application/json"))

		api.Route("/honeypot", func(hp chi.Router) {
			// Conversation turn
			hp.Post("/message", r.handlers.Honeypot.Message)

			// Manual report dispatch (recovery path)
			hp.Post("/callback", r.handlers.Honeypot.Callback)

			// Inspection
			hp.Get("/sessions", r.handlers.Sessions.List)
			hp.Get("/sessions/{sessionId}", r.handlers.Sessions.Get)

			// Reference data
			hp.Get("/patterns", r.handlers.Patterns.List)

			// Counters
			hp.Get("/stats", r.handlers.Stats.Get)
		})
	})

	return router
}
