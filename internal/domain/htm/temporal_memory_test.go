package htm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTemporalMemoryConfig(t *testing.T) {
	cfg := DefaultTemporalMemoryConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2048, cfg.NumColumns())
	assert.Equal(t, 2048*32, cfg.NumCells())
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TemporalMemoryConfig)
		field  string
	}{
		{"empty_dimensions", func(c *TemporalMemoryConfig) { c.ColumnDimensions = nil }, "column_dimensions"},
		{"zero_dimension", func(c *TemporalMemoryConfig) { c.ColumnDimensions = []int{2048, 0} }, "column_dimensions"},
		{"zero_cells_per_column", func(c *TemporalMemoryConfig) { c.CellsPerColumn = 0 }, "cells_per_column"},
		{"negative_activation_threshold", func(c *TemporalMemoryConfig) { c.ActivationThreshold = -1 }, "activation_threshold"},
		{"negative_min_threshold", func(c *TemporalMemoryConfig) { c.MinThreshold = -1 }, "min_threshold"},
		{"initial_permanence_above_one", func(c *TemporalMemoryConfig) { c.InitialPermanence = 1.5 }, "initial_permanence"},
		{"negative_connected_permanence", func(c *TemporalMemoryConfig) { c.ConnectedPermanence = -0.1 }, "connected_permanence"},
		{"increment_above_one", func(c *TemporalMemoryConfig) { c.PermanenceIncrement = 1.1 }, "permanence_increment"},
		{"negative_decrement", func(c *TemporalMemoryConfig) { c.PermanenceDecrement = -0.1 }, "permanence_decrement"},
		{"negative_predicted_decrement", func(c *TemporalMemoryConfig) { c.PredictedSegmentDecrement = -0.01 }, "predicted_segment_decrement"},
		{"negative_max_new_synapses", func(c *TemporalMemoryConfig) { c.MaxNewSynapseCount = -1 }, "max_new_synapse_count"},
		{"zero_max_segments", func(c *TemporalMemoryConfig) { c.MaxSegmentsPerCell = 0 }, "max_segments_per_cell"},
		{"zero_max_synapses", func(c *TemporalMemoryConfig) { c.MaxSynapsesPerSegment = 0 }, "max_synapses_per_segment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTemporalMemoryConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var terr *TemporalError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, TemporalErrorConfiguration, terr.ErrorType)
			assert.Equal(t, tt.field, terr.ConfigField)
		})
	}
}

func TestConfigMultiDimensionalColumns(t *testing.T) {
	cfg := DefaultTemporalMemoryConfig()
	cfg.ColumnDimensions = []int{64, 32}

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 2048, cfg.NumColumns())
}

func TestConfigClone(t *testing.T) {
	cfg := DefaultTemporalMemoryConfig()
	clone := cfg.Clone()

	clone.ColumnDimensions[0] = 1
	clone.CellsPerColumn = 1

	assert.Equal(t, 2048, cfg.ColumnDimensions[0])
	assert.Equal(t, 32, cfg.CellsPerColumn)
}

func TestConfigEqual(t *testing.T) {
	a := DefaultTemporalMemoryConfig()
	b := DefaultTemporalMemoryConfig()
	assert.True(t, a.Equal(b))

	// Float fields compare within Epsilon.
	b.InitialPermanence += Epsilon / 2
	assert.True(t, a.Equal(b))

	b.InitialPermanence += 0.01
	assert.False(t, a.Equal(b))

	c := DefaultTemporalMemoryConfig()
	c.CellsPerColumn = 16
	assert.False(t, a.Equal(c))
}

func TestComputeInputValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		input := &ComputeInput{ActiveColumns: []int{1, 5, 9}}
		assert.NoError(t, input.Validate(10))
	})

	t.Run("out_of_range", func(t *testing.T) {
		input := &ComputeInput{ActiveColumns: []int{1, 10}}
		err := input.Validate(10)
		require.Error(t, err)
		assert.Equal(t, TemporalErrorInvalidColumn, ErrorTypeOf(err))
	})

	t.Run("unsorted", func(t *testing.T) {
		input := &ComputeInput{ActiveColumns: []int{5, 1}}
		assert.Error(t, input.Validate(10))
	})

	t.Run("duplicates", func(t *testing.T) {
		input := &ComputeInput{ActiveColumns: []int{1, 1}}
		assert.Error(t, input.Validate(10))
	})

	t.Run("empty", func(t *testing.T) {
		input := &ComputeInput{}
		assert.NoError(t, input.Validate(10))
	})
}

func TestTemporalErrorHelpers(t *testing.T) {
	err := NewInvalidColumnError(12, 10)
	assert.Equal(t, TemporalErrorInvalidColumn, ErrorTypeOf(err))
	assert.Contains(t, err.Error(), "12")

	capErr := NewCapacityExceededError("segment cap reached")
	assert.True(t, IsCapacityExceeded(capErr))
	assert.False(t, IsCapacityExceeded(err))
	assert.Equal(t, TemporalErrorType(""), ErrorTypeOf(nil))

	fieldErr := NewTemporalErrorWithField(TemporalErrorConfiguration, "bad", "seed")
	assert.Contains(t, fieldErr.Error(), "seed")
}

func TestMetricsRecording(t *testing.T) {
	m := NewTemporalMemoryMetrics()

	m.RecordStep(100, true)
	m.RecordStep(200, false)

	assert.Equal(t, int64(2), m.TotalSteps)
	assert.Equal(t, int64(1), m.LearningSteps)
	assert.Equal(t, int64(150), m.AverageComputeTimeUs)

	m.RecordError(TemporalErrorInvalidColumn)
	m.RecordError(TemporalErrorInvalidColumn)
	assert.Equal(t, int64(2), m.ErrorCounts[TemporalErrorInvalidColumn])
}
