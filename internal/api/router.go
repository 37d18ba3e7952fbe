package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/htm-project/temporal-api/internal/handlers"
)

// Router wires the temporal memory handlers into a gin engine
type Router struct {
	temporalHandler *handlers.TemporalMemoryHandler
	healthHandler   *handlers.HealthMetricsHandler
}

// NewRouter creates a new router
func NewRouter(temporalHandler *handlers.TemporalMemoryHandler, healthHandler *handlers.HealthMetricsHandler) *Router {
	return &Router{
		temporalHandler: temporalHandler,
		healthHandler:   healthHandler,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(gin.Recovery())
	engine.Use(requestLogger())

	// Health and metrics routes (no API versioning)
	engine.GET("/health", r.healthHandler.HealthCheck)
	engine.GET("/metrics", r.healthHandler.Metrics)

	// API v1 routes
	apiV1 := engine.Group("/api/v1")
	tm := apiV1.Group("/temporal-memory")
	{
		tm.POST("/compute", r.temporalHandler.Compute)
		tm.GET("/state", r.temporalHandler.GetState)
		tm.GET("/config", r.temporalHandler.GetConfig)
		tm.POST("/reset", r.temporalHandler.Reset)
		tm.GET("/metrics", r.temporalHandler.GetMetrics)
		tm.POST("/snapshot/save", r.temporalHandler.SaveSnapshot)
		tm.POST("/snapshot/load", r.temporalHandler.LoadSnapshot)
	}

	engine.GET("/", r.handleRoot)
}

// handleRoot provides basic API information
func (r *Router) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "HTM Temporal Memory API",
		"version": "v1",
		"endpoints": []string{
			"POST /api/v1/temporal-memory/compute",
			"GET /api/v1/temporal-memory/state",
			"GET /api/v1/temporal-memory/config",
			"POST /api/v1/temporal-memory/reset",
			"GET /api/v1/temporal-memory/metrics",
			"POST /api/v1/temporal-memory/snapshot/save",
			"POST /api/v1/temporal-memory/snapshot/load",
			"GET /health",
			"GET /metrics",
		},
	})
}

// requestLogger logs each request with method, path, status, and latency
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s -> %d (%s)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
