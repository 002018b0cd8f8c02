package delivery

import (
	"time"

	"adsync/internal/delivery/middleware"
	"adsync/pkg/logger"
	"adsync/pkg/metrics"

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
	router.Use(middleware.Timeout(5 * time.Minute))

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
		// Sync trigger
		sync := v1.Group("/sync")
		{
			sync.POST("/run", r.handlers.SyncRun)
		}

		// Manual report ingestion
		upload := v1.Group("/upload")
		{
			upload.POST("/csv", r.handlers.UploadCSV)
		}

		// Connection audit trail
		v1.GET("/connections/:workspace", r.handlers.GetConnections)

		// Dashboard views
		dashboard := v1.Group("/dashboard")
		{
			dashboard.GET("/summary", r.handlers.GetSummary)
			dashboard.GET("/by-source", r.handlers.GetBySource)
			dashboard.GET("/by-device", r.handlers.GetByDevice)
			dashboard.GET("/by-campaign", r.handlers.GetByCampaign)
			dashboard.GET("/by-keyword", r.handlers.GetByKeyword)
			dashboard.GET("/by-creative", r.handlers.GetByCreative)
			dashboard.GET("/weekly", r.handlers.GetWeekly)
			dashboard.GET("/monthly", r.handlers.GetMonthly)
			dashboard.GET("/goal-progress", r.handlers.GetGoalProgress)
		}
	}

	// Prometheus metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	return router
}
