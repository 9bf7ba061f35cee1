package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/handler"
	"github.com/jwalitptl/clinic-portal/internal/handler/health"
	"github.com/jwalitptl/clinic-portal/internal/handler/prometheus"
	"github.com/jwalitptl/clinic-portal/internal/middleware"
)

type RouterConfig struct {
	CORSConfig     middleware.CORSConfig
	RequestTimeout time.Duration

	// CatalogMaxAge is the browser cache lifetime of catalog reads.
	CatalogMaxAge time.Duration

	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter *middleware.RateLimiter
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	metrics  *prometheus.Handler
	health   *health.Handler
	handlers []handler.Registrar
	config   RouterConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	metrics *prometheus.Handler,
	health *health.Handler,
	config RouterConfig,
	handlers ...handler.Registrar,
) *Router {
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		metrics:  metrics,
		health:   health,
		handlers: handlers,
		config:   config,
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		metrics.Middleware(),
	)

	return r
}

// Setup mounts probes and metrics on the engine root, and the API under
// /api/v1 behind the full middleware chain.
func (r *Router) Setup() {
	r.health.RegisterRoutes(r.engine)
	r.engine.GET("/metrics", r.metrics.Handler())

	timeout := middleware.DefaultTimeoutConfig()
	if r.config.RequestTimeout > 0 {
		timeout.Duration = r.config.RequestTimeout
	}

	api := r.engine.Group("/api/v1")
	api.Use(
		middleware.Timeout(timeout),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.CORS(r.config.CORSConfig),
		middleware.SizeLimit(middleware.DefaultSizeLimitConfig()),
	)
	if r.config.RateLimiter != nil {
		api.Use(r.config.RateLimiter.RateLimit())
	}
	api.Use(r.auth.Authenticate())

	public := api.Group("")
	public.Use(middleware.Cache(middleware.PrivateCacheConfig()))

	catalog := api.Group("")
	catalog.Use(middleware.Cache(middleware.PublicCacheConfig(r.config.CatalogMaxAge)))

	protected := api.Group("")
	protected.Use(
		r.auth.ProtectedRoute(),
		middleware.Cache(middleware.PrivateCacheConfig()),
	)

	admin := api.Group("/admin")
	admin.Use(
		r.auth.AdminRoute(),
		middleware.Cache(middleware.PrivateCacheConfig()),
	)

	routes := handler.Routes{
		Public:    public,
		Catalog:   catalog,
		Protected: protected,
		Admin:     admin,
	}
	for _, h := range r.handlers {
		h.RegisterRoutes(routes)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
