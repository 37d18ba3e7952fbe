package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/services"
)

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := htm.DefaultTemporalMemoryConfig()
	cfg.ColumnDimensions = []int{64}
	cfg.CellsPerColumn = 4
	cfg.ActivationThreshold = 2
	cfg.MinThreshold = 1

	service, err := services.NewTemporalMemoryService(cfg, services.TemporalServiceOptions{
		SnapshotDir: t.TempDir(),
	})
	require.NoError(t, err)

	handler := NewTemporalMemoryHandler(service)
	health := NewHealthMetricsHandler(service, "test")

	router := gin.New()
	router.POST("/compute", handler.Compute)
	router.GET("/state", handler.GetState)
	router.GET("/config", handler.GetConfig)
	router.POST("/reset", handler.Reset)
	router.GET("/tm-metrics", handler.GetMetrics)
	router.POST("/snapshot/save", handler.SaveSnapshot)
	router.POST("/snapshot/load", handler.LoadSnapshot)
	router.GET("/health", health.HealthCheck)
	router.GET("/metrics", health.Metrics)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestComputeEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{
		"active_columns": []int{1, 5, 9},
		"step_id":        "s1",
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var result htm.ComputeResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, "s1", result.StepID)
	assert.Len(t, result.ActiveCells, 12)
	assert.Len(t, result.WinnerCells, 3)
	assert.True(t, result.LearningApplied, "learning defaults to enabled")
}

func TestComputeEndpointRejectsBadInput(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("missing_body", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("column_out_of_range", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{
			"active_columns": []int{99},
		})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("unsorted_columns", func(t *testing.T) {
		recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{
			"active_columns": []int{9, 1},
		})
		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}

func TestStateConfigAndResetEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{
		"active_columns": []int{3},
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var state htm.ComputeResult
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &state))
	assert.Equal(t, []int{12, 13, 14, 15}, state.ActiveCells)

	recorder = doJSON(t, router, http.MethodGet, "/config", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var cfg htm.TemporalMemoryConfig
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &cfg))
	assert.Equal(t, []int{64}, cfg.ColumnDimensions)

	recorder = doJSON(t, router, http.MethodPost, "/reset", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/state", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &state))
	assert.Empty(t, state.ActiveCells)
}

func TestSnapshotEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/compute", gin.H{"active_columns": []int{7}})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/snapshot/save", gin.H{"name": "checkpoint"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/snapshot/load", gin.H{"name": "checkpoint"})
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/snapshot/load", gin.H{"name": "missing"})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/snapshot/save", gin.H{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	router := setupTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"status":"healthy"`)

	recorder = doJSON(t, router, http.MethodPost, "/compute", gin.H{"active_columns": []int{2}})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"total_steps":1`)
}
