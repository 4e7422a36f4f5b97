package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/dentalia/clinic-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORS       middleware.CORSConfig
	CronSecret string
}

// Router assembles the three route surfaces: public (booking pages, auth,
// event stream), staff (JWT), admin (JWT + admin role), plus the
// cron-gated internal group.
type Router struct {
	engine *gin.Engine
	auth   *middleware.AuthMiddleware
	config Config

	public   []Handler
	staff    []Handler
	admin    []Handler
	internal []Handler
}

func NewRouter(auth *middleware.AuthMiddleware, config Config) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		middleware.CORS(config.CORS),
	)

	if config.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return &Router{engine: engine, auth: auth, config: config}
}

func (r *Router) Public(handlers ...Handler)   { r.public = append(r.public, handlers...) }
func (r *Router) Staff(handlers ...Handler)    { r.staff = append(r.staff, handlers...) }
func (r *Router) Admin(handlers ...Handler)    { r.admin = append(r.admin, handlers...) }
func (r *Router) Internal(handlers ...Handler) { r.internal = append(r.internal, handlers...) }

func (r *Router) Setup() {
	root := r.engine.Group("")
	for _, h := range r.public {
		h.RegisterRoutes(root)
	}
	root.GET("/metrics", gin.WrapH(promhttp.Handler()))

	staff := r.engine.Group("/api/v1")
	staff.Use(r.auth.Authenticate())
	for _, h := range r.staff {
		h.RegisterRoutes(staff)
	}

	admin := staff.Group("/admin")
	admin.Use(r.auth.RequireAdmin())
	for _, h := range r.admin {
		h.RegisterRoutes(admin)
	}

	internal := r.engine.Group("/internal")
	internal.Use(middleware.CronSecret(r.config.CronSecret))
	for _, h := range r.internal {
		h.RegisterRoutes(internal)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
