package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/htm-project/temporal-api/internal/ports"
)

var startTime = time.Now()

// HealthMetricsHandler serves the unversioned /health and /metrics endpoints
type HealthMetricsHandler struct {
	service ports.TemporalMemoryService
	version string
}

// NewHealthMetricsHandler creates a new health/metrics handler
func NewHealthMetricsHandler(service ports.TemporalMemoryService, version string) *HealthMetricsHandler {
	return &HealthMetricsHandler{
		service: service,
		version: version,
	}
}

// HealthCheck handles GET /health requests
func (h *HealthMetricsHandler) HealthCheck(c *gin.Context) {
	healthy := true
	serviceHealth := map[string]interface{}{
		"temporal_memory_service": h.service != nil,
		"uptime_seconds":          time.Since(startTime).Seconds(),
	}

	if h.service != nil {
		if err := h.service.HealthCheck(c.Request.Context()); err != nil {
			healthy = false
			serviceHealth["temporal_memory_error"] = err.Error()
		}
		serviceHealth["instance_id"] = h.service.GetInstanceID()
	} else {
		healthy = false
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":  status,
		"version": h.version,
		"service": serviceHealth,
		"system":  h.systemInfo(),
	})
}

// Metrics handles GET /metrics requests
func (h *HealthMetricsHandler) Metrics(c *gin.Context) {
	metrics, err := h.service.GetMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to collect metrics",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"temporal_memory": metrics,
		"system":          h.systemInfo(),
	})
}

// systemInfo returns basic runtime information
func (h *HealthMetricsHandler) systemInfo() map[string]interface{} {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"go_version":     runtime.Version(),
		"num_goroutines": runtime.NumGoroutine(),
		"alloc_bytes":    memStats.Alloc,
		"num_gc":         memStats.NumGC,
	}
}
