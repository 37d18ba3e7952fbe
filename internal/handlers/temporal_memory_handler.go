package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/ports"
)

// TemporalMemoryHandler handles HTTP requests for temporal memory operations
type TemporalMemoryHandler struct {
	service ports.TemporalMemoryService
}

// NewTemporalMemoryHandler creates a new temporal memory HTTP handler
func NewTemporalMemoryHandler(service ports.TemporalMemoryService) *TemporalMemoryHandler {
	return &TemporalMemoryHandler{service: service}
}

// ComputeRequest is the request body for POST /temporal-memory/compute
type ComputeRequest struct {
	ActiveColumns []int                  `json:"active_columns" binding:"required"`
	Learn         *bool                  `json:"learn"`
	StepID        string                 `json:"step_id"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// SnapshotRequest is the request body for snapshot save/load
type SnapshotRequest struct {
	Name string `json:"name" binding:"required"`
}

// Compute handles POST /api/v1/temporal-memory/compute requests
func (h *TemporalMemoryHandler) Compute(c *gin.Context) {
	var request ComputeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	learn := true
	if request.Learn != nil {
		learn = *request.Learn
	}

	input := &htm.ComputeInput{
		ActiveColumns: request.ActiveColumns,
		Learn:         learn,
		StepID:        request.StepID,
		Metadata:      request.Metadata,
	}

	result, err := h.service.Compute(c.Request.Context(), input)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Compute step failed",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetState handles GET /api/v1/temporal-memory/state requests
func (h *TemporalMemoryHandler) GetState(c *gin.Context) {
	state, err := h.service.GetState(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get state",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, state)
}

// GetConfig handles GET /api/v1/temporal-memory/config requests
func (h *TemporalMemoryHandler) GetConfig(c *gin.Context) {
	config, err := h.service.GetConfiguration(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get configuration",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, config)
}

// Reset handles POST /api/v1/temporal-memory/reset requests
func (h *TemporalMemoryHandler) Reset(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reset",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// GetMetrics handles GET /api/v1/temporal-memory/metrics requests
func (h *TemporalMemoryHandler) GetMetrics(c *gin.Context) {
	metrics, err := h.service.GetMetrics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get metrics",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, metrics)
}

// SaveSnapshot handles POST /api/v1/temporal-memory/snapshot/save requests
func (h *TemporalMemoryHandler) SaveSnapshot(c *gin.Context) {
	var request SnapshotRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	path, err := h.service.SaveSnapshot(c.Request.Context(), request.Name)
	if err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to save snapshot",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "saved",
		"path":        path,
		"instance_id": h.service.GetInstanceID(),
	})
}

// LoadSnapshot handles POST /api/v1/temporal-memory/snapshot/load requests
func (h *TemporalMemoryHandler) LoadSnapshot(c *gin.Context) {
	var request SnapshotRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	if err := h.service.LoadSnapshot(c.Request.Context(), request.Name); err != nil {
		c.JSON(statusForError(err), gin.H{
			"error":   "Failed to load snapshot",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "loaded"})
}

// statusForError maps domain error types to HTTP status codes
func statusForError(err error) int {
	switch htm.ErrorTypeOf(err) {
	case htm.TemporalErrorInvalidColumn, htm.TemporalErrorInvalidCell, htm.TemporalErrorConfiguration:
		return http.StatusBadRequest
	case htm.TemporalErrorCapacityExceeded:
		return http.StatusConflict
	case htm.TemporalErrorPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
