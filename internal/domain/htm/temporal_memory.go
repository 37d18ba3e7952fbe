package htm

import (
	"fmt"
)

// Epsilon is the float tolerance used across the temporal memory: permanences
// below it are pruned, and configuration scalars within it compare equal.
const Epsilon = 0.000001

// TemporalMemoryConfig represents configuration parameters for the temporal
// memory layer. All fields are fixed at construction.
type TemporalMemoryConfig struct {
	// Column space
	ColumnDimensions []int `json:"column_dimensions" yaml:"column_dimensions" validate:"required,min=1,dive,gt=0"`
	CellsPerColumn   int   `json:"cells_per_column" yaml:"cells_per_column" validate:"required,gt=0"`

	// Segment activation
	ActivationThreshold int `json:"activation_threshold" yaml:"activation_threshold" validate:"gte=0"`
	MinThreshold        int `json:"min_threshold" yaml:"min_threshold" validate:"gte=0"`

	// Synapse permanences
	InitialPermanence   float64 `json:"initial_permanence" yaml:"initial_permanence" validate:"gte=0,lte=1"`
	ConnectedPermanence float64 `json:"connected_permanence" yaml:"connected_permanence" validate:"gte=0,lte=1"`

	// Learning steps
	PermanenceIncrement       float64 `json:"permanence_increment" yaml:"permanence_increment" validate:"gte=0,lte=1"`
	PermanenceDecrement       float64 `json:"permanence_decrement" yaml:"permanence_decrement" validate:"gte=0,lte=1"`
	PredictedSegmentDecrement float64 `json:"predicted_segment_decrement" yaml:"predicted_segment_decrement" validate:"gte=0"`

	// Growth and capacity caps
	MaxNewSynapseCount    int `json:"max_new_synapse_count" yaml:"max_new_synapse_count" validate:"gte=0"`
	MaxSegmentsPerCell    int `json:"max_segments_per_cell" yaml:"max_segments_per_cell" validate:"gt=0"`
	MaxSynapsesPerSegment int `json:"max_synapses_per_segment" yaml:"max_synapses_per_segment" validate:"gt=0"`

	// Deterministic rng seed
	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultTemporalMemoryConfig returns the standard HTM temporal memory
// parameters.
func DefaultTemporalMemoryConfig() *TemporalMemoryConfig {
	return &TemporalMemoryConfig{
		ColumnDimensions:          []int{2048},
		CellsPerColumn:            32,
		ActivationThreshold:       13,
		MinThreshold:              10,
		InitialPermanence:         0.21,
		ConnectedPermanence:       0.50,
		PermanenceIncrement:       0.10,
		PermanenceDecrement:       0.10,
		PredictedSegmentDecrement: 0.0,
		MaxNewSynapseCount:        20,
		MaxSegmentsPerCell:        255,
		MaxSynapsesPerSegment:     255,
		Seed:                      42,
	}
}

// NumColumns returns the total number of columns (product of the column
// dimensions).
func (c *TemporalMemoryConfig) NumColumns() int {
	n := 1
	for _, d := range c.ColumnDimensions {
		n *= d
	}
	return n
}

// NumCells returns the total number of cells in the layer.
func (c *TemporalMemoryConfig) NumCells() int {
	return c.NumColumns() * c.CellsPerColumn
}

// Validate validates the temporal memory configuration
func (c *TemporalMemoryConfig) Validate() error {
	if len(c.ColumnDimensions) == 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"column dimensions must not be empty", "column_dimensions")
	}

	for _, d := range c.ColumnDimensions {
		if d <= 0 {
			return NewTemporalErrorWithField(TemporalErrorConfiguration,
				fmt.Sprintf("column dimension %d must be positive", d), "column_dimensions")
		}
	}

	if c.CellsPerColumn <= 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"cells per column must be positive", "cells_per_column")
	}

	if c.ActivationThreshold < 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"activation threshold cannot be negative", "activation_threshold")
	}

	if c.MinThreshold < 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"min threshold cannot be negative", "min_threshold")
	}

	if c.InitialPermanence < 0 || c.InitialPermanence > 1 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"initial permanence must be between 0 and 1", "initial_permanence")
	}

	if c.ConnectedPermanence < 0 || c.ConnectedPermanence > 1 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"connected permanence must be between 0 and 1", "connected_permanence")
	}

	if c.PermanenceIncrement < 0 || c.PermanenceIncrement > 1 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"permanence increment must be between 0 and 1", "permanence_increment")
	}

	if c.PermanenceDecrement < 0 || c.PermanenceDecrement > 1 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"permanence decrement must be between 0 and 1", "permanence_decrement")
	}

	if c.PredictedSegmentDecrement < 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"predicted segment decrement cannot be negative", "predicted_segment_decrement")
	}

	if c.MaxNewSynapseCount < 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"max new synapse count cannot be negative", "max_new_synapse_count")
	}

	if c.MaxSegmentsPerCell <= 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"max segments per cell must be positive", "max_segments_per_cell")
	}

	if c.MaxSynapsesPerSegment <= 0 {
		return NewTemporalErrorWithField(TemporalErrorConfiguration,
			"max synapses per segment must be positive", "max_synapses_per_segment")
	}

	return nil
}

// Clone returns a deep copy of the configuration
func (c *TemporalMemoryConfig) Clone() *TemporalMemoryConfig {
	out := *c
	out.ColumnDimensions = make([]int, len(c.ColumnDimensions))
	copy(out.ColumnDimensions, c.ColumnDimensions)
	return &out
}

// Equal reports functional equality between two configurations. Integer
// fields compare exactly; float fields compare within Epsilon.
func (c *TemporalMemoryConfig) Equal(other *TemporalMemoryConfig) bool {
	if len(c.ColumnDimensions) != len(other.ColumnDimensions) {
		return false
	}
	for i, d := range c.ColumnDimensions {
		if d != other.ColumnDimensions[i] {
			return false
		}
	}

	if c.CellsPerColumn != other.CellsPerColumn ||
		c.ActivationThreshold != other.ActivationThreshold ||
		c.MinThreshold != other.MinThreshold ||
		c.MaxNewSynapseCount != other.MaxNewSynapseCount ||
		c.MaxSegmentsPerCell != other.MaxSegmentsPerCell ||
		c.MaxSynapsesPerSegment != other.MaxSynapsesPerSegment ||
		c.Seed != other.Seed {
		return false
	}

	return floatEqual(c.InitialPermanence, other.InitialPermanence) &&
		floatEqual(c.ConnectedPermanence, other.ConnectedPermanence) &&
		floatEqual(c.PermanenceIncrement, other.PermanenceIncrement) &&
		floatEqual(c.PermanenceDecrement, other.PermanenceDecrement) &&
		floatEqual(c.PredictedSegmentDecrement, other.PredictedSegmentDecrement)
}

func floatEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= Epsilon
}
