package delivery

import (
	"time"

	"adsight/internal/delivery/middleware"
	"adsight/pkg/logger"
	"adsight/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HTTPRouter struct {
	handlers *HTTPHandlers
	logger   *logger.Logger
	metrics  *metrics.Metrics
}

func NewHTTPRouter(handlers *HTTPHandlers, logger *logger.Logger, metrics *metrics.Metrics) *HTTPRouter {
	return &HTTPRouter{
		handlers: handlers,
		logger:   logger,
		metrics:  metrics,
	}
}

func (r *HTTPRouter) SetupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(r.logger))
	router.Use(middleware.Recovery(r.logger))
	router.Use(middleware.Metrics(r.metrics))
	router.Use(middleware.Timeout(60 * time.Second))

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Content-Type", "X-Request-ID"}
	config.ExposeHeaders = []string{"X-Request-ID"}

	router.Use(cors.New(config))

	// Health endpoint
	router.GET("/health", r.handlers.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.GET("/", r.handlers.GetAPIInfo)
		v1.GET("", r.handlers.GetAPIInfo)

		dashboards := v1.Group("/dashboards")
		{
			dashboards.POST("", r.handlers.CreateSession)
			dashboards.GET("/:id", r.handlers.GetSnapshot)
			dashboards.PUT("/:id/filters", r.handlers.ApplyFilters)
			dashboards.PUT("/:id/tab", r.handlers.SetTab)
			dashboards.PUT("/:id/compare", r.handlers.SetCompareMode)
			dashboards.PUT("/:id/widgets/:key/filter", r.handlers.SetWidgetFilter)
			dashboards.POST("/:id/sections/:key/toggle", r.handlers.ToggleShowAll)
			dashboards.PUT("/:id/search", r.handlers.SetSearch)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	return router
}
