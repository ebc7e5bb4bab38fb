package main

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	"github.com/wms-platform/picking-orchestrator/pkg/middleware"
)

// newRouter builds the gin engine. m may be nil, which also drops /metrics.
func newRouter(svc *services, logger *logging.Logger, m *metrics.Metrics, ready func(ctx context.Context) error) *gin.Engine {
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(serviceName, logger))
	router.Use(middleware.TracingMiddleware(serviceName))
	if m != nil {
		router.Use(middleware.MetricsMiddleware(m))
		router.GET("/metrics", middleware.MetricsEndpoint(m))
	}

	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, ready))

	api := router.Group("/api/v1")

	waves := api.Group("/waves")
	{
		waves.GET("", listWavesHandler(svc, logger))
		waves.POST("", createWaveHandler(svc, logger))
		waves.POST("/workflow", launchWaveHandler(svc, logger))
		waves.GET("/:waveId", getWaveHandler(svc, logger))
		waves.GET("/:waveId/tasks", getWaveTasksHandler(svc, logger))
		waves.POST("/:waveId/release", releaseWaveHandler(svc, logger))
		waves.POST("/:waveId/progress", recordProgressHandler(svc, logger))
		waves.POST("/:waveId/cancel", cancelWaveHandler(svc, logger))
	}

	tasks := api.Group("/tasks")
	{
		tasks.GET("/:taskId", getTaskHandler(svc, logger))
		tasks.POST("/:taskId/start", startTaskHandler(svc, logger))
		tasks.POST("/:taskId/complete", completeTaskHandler(svc, logger))
	}

	pickers := api.Group("/pickers")
	{
		pickers.GET("/:pickerId/tasks", pickerTasksHandler(svc, logger))
		pickers.GET("/:pickerId/performance", pickerPerformanceHandler(svc, logger))
	}

	zones := api.Group("/zones")
	{
		zones.GET("/performance", allZonesPerformanceHandler(svc, logger))
		zones.GET("/:zoneId/performance", zonePerformanceHandler(svc, logger))
	}

	return router
}
