package router

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/medicore/hospital-api/internal/config"
	"github.com/medicore/hospital-api/internal/middleware"
	"github.com/medicore/hospital-api/pkg/logger"
	"github.com/medicore/hospital-api/pkg/metrics"
)

// Handler is anything that can attach its routes to a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Router struct {
	engine *gin.Engine
	authMW *middleware.AuthMiddleware
}

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// registerValidators adds the custom binding rules used by request structs.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
			return hhmmPattern.MatchString(fl.Field().String())
		})
	}
}

func New(cfg *config.Config, log *logger.Logger, m *metrics.Metrics,
	authMW *middleware.AuthMiddleware) *Router {
	gin.SetMode(gin.ReleaseMode)
	registerValidators()

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.ErrorHandler(log),
		middleware.Metrics(m),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.CORS(cfg.Security.AllowedOrigins),
	)

	if cfg.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.Security.RateLimit.RequestsPerSecond),
			Burst: cfg.Security.RateLimit.Burst,
		})
		engine.Use(limiter.RateLimit())
	}

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Router{engine: engine, authMW: authMW}
}

// Setup wires the handlers under /api/v1. Everything except health and auth
// sits behind authentication; fine-grained permission checks live on the
// individual routes.
func (r *Router) Setup(healthH, authH Handler, protectedHandlers ...Handler) {
	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	healthH.RegisterRoutes(api)
	authH.RegisterRoutes(api)

	protected := api.Group("")
	protected.Use(r.authMW.Authenticate())
	for _, h := range protectedHandlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
