package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ambulance-tracker/internal/config"
	"ambulance-tracker/internal/delivery/http/handler"
	"ambulance-tracker/internal/hub"
	"ambulance-tracker/internal/ingestion"
	"ambulance-tracker/internal/logger"
	"ambulance-tracker/internal/middleware"
	notificationUC "ambulance-tracker/internal/usecase/notification"
	trackingUC "ambulance-tracker/internal/usecase/tracking"
)

// Dependencies carries the wired services into the router.
type Dependencies struct {
	Tracking      *trackingUC.Service
	Notifications *notificationUC.Service
	Hub           *hub.Hub
	IngestMetrics *ingestion.MetricsTracker
}

func SetupRoutes(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware in order: recovery, request ID, logging, CORS, rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "healthy",
			"connected_viewers":  deps.Hub.ClientCount(),
			"registered_devices": deps.Tracking.DeviceCount(),
		})
	})

	router.GET("/metrics", func(c *gin.Context) {
		if deps.IngestMetrics == nil {
			c.JSON(http.StatusOK, gin.H{"ingestion": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ingestion": deps.IngestMetrics.Snapshot()})
	})

	trackingHandler := handler.NewTrackingHandler(deps.Tracking, deps.Hub)
	trackingHandler.RegisterRoutes(router)

	notificationHandler := handler.NewNotificationHandler(deps.Notifications)
	notificationHandler.RegisterRoutes(router)

	logger.Info("All routes initialized")
	return router
}
