package htm

import (
	"fmt"
)

// ComputeInput represents one feedforward time step for the temporal memory
type ComputeInput struct {
	ActiveColumns []int                  `json:"active_columns" validate:"required"`
	Learn         bool                   `json:"learn"`
	StepID        string                 `json:"step_id,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// Validate validates the compute input against the layer's column space
func (in *ComputeInput) Validate(numColumns int) error {
	for i, col := range in.ActiveColumns {
		if col < 0 || col >= numColumns {
			return NewInvalidColumnError(col, numColumns)
		}
		if i > 0 && col <= in.ActiveColumns[i-1] {
			return NewTemporalError(TemporalErrorProcessing,
				fmt.Sprintf("active columns must be sorted and unique (position %d)", i))
		}
	}
	return nil
}

// ComputeResult represents the layer state produced by one compute step
type ComputeResult struct {
	StepID          string  `json:"step_id,omitempty"`
	ActiveCells     []int   `json:"active_cells"`
	WinnerCells     []int   `json:"winner_cells"`
	PredictiveCells []int   `json:"predictive_cells"`
	AnomalyScore    float64 `json:"anomaly_score"`
	ComputeTimeUs   int64   `json:"compute_time_us"`
	LearningApplied bool    `json:"learning_applied"`
}

// TemporalMemoryMetrics represents running performance and behavioral metrics
// of a temporal memory service instance
type TemporalMemoryMetrics struct {
	TotalSteps           int64                       `json:"total_steps"`
	LearningSteps        int64                       `json:"learning_steps"`
	AverageComputeTimeUs int64                       `json:"average_compute_time_us"`
	AverageAnomalyScore  float64                     `json:"average_anomaly_score"`
	AnomalyScoreStdDev   float64                     `json:"anomaly_score_std_dev"`
	TotalSegments        int                         `json:"total_segments"`
	TotalSynapses        int                         `json:"total_synapses"`
	ErrorCounts          map[TemporalErrorType]int64 `json:"error_counts"`
}

// NewTemporalMemoryMetrics creates a new metrics instance
func NewTemporalMemoryMetrics() *TemporalMemoryMetrics {
	return &TemporalMemoryMetrics{
		ErrorCounts: make(map[TemporalErrorType]int64),
	}
}

// RecordStep records a successful compute step
func (m *TemporalMemoryMetrics) RecordStep(computeTimeUs int64, learn bool) {
	m.TotalSteps++
	if m.TotalSteps == 1 {
		m.AverageComputeTimeUs = computeTimeUs
	} else {
		m.AverageComputeTimeUs += (computeTimeUs - m.AverageComputeTimeUs) / m.TotalSteps
	}
	if learn {
		m.LearningSteps++
	}
}

// RecordError records an error occurrence by type
func (m *TemporalMemoryMetrics) RecordError(errorType TemporalErrorType) {
	if m.ErrorCounts == nil {
		m.ErrorCounts = make(map[TemporalErrorType]int64)
	}
	m.ErrorCounts[errorType]++
}
