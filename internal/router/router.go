package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/warrantywise/warranty-api/internal/handler"
	"github.com/warrantywise/warranty-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit rate.Limit
	RateBurst int
}

type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	authH  Handler
	warrH  Handler
	adminH Handler
	h      *handler.Handler
	config RouterConfig
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	warrH Handler,
	adminH Handler,
	h *handler.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	return &Router{
		engine: gin.New(),
		auth:   auth,
		authH:  authH,
		warrH:  warrH,
		adminH: adminH,
		h:      h,
		config: config,
	}
}

func (r *Router) Setup() {
	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:  r.config.RateLimit,
		Burst: r.config.RateBurst,
	})

	r.engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		limiter.RateLimit(),
	)

	r.engine.GET("/health", r.h.HealthCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	// Public routes
	r.authH.RegisterRoutes(api)

	// Authenticated user routes
	authed := api.Group("")
	authed.Use(r.auth.Authenticate())
	r.warrH.RegisterRoutes(authed)

	// Admin routes
	admin := api.Group("")
	admin.Use(r.auth.Authenticate(), r.auth.RequireAdmin())
	r.adminH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
