package ports

import (
	"context"

	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// TemporalMemoryService defines the interface for temporal memory operations
type TemporalMemoryService interface {
	// Compute feeds one time step of active columns through the layer
	Compute(ctx context.Context, input *htm.ComputeInput) (*htm.ComputeResult, error)

	// Reset indicates the start of a new sequence
	Reset(ctx context.Context) error

	// GetState returns the current layer state (active/winner/predictive cells)
	GetState(ctx context.Context) (*htm.ComputeResult, error)

	// GetConfiguration returns the layer configuration
	GetConfiguration(ctx context.Context) (*htm.TemporalMemoryConfig, error)

	// GetMetrics returns running service metrics
	GetMetrics(ctx context.Context) (*htm.TemporalMemoryMetrics, error)

	// SaveSnapshot persists the full layer state to a named snapshot
	SaveSnapshot(ctx context.Context, name string) (string, error)

	// LoadSnapshot restores the full layer state from a named snapshot
	LoadSnapshot(ctx context.Context, name string) error

	// GetInstanceID returns the unique identifier for this layer instance
	GetInstanceID() string

	// HealthCheck performs a health check on the service
	HealthCheck(ctx context.Context) error
}

// TemporalMemoryEngine defines the core per-step computation the service
// drives. Implemented by the cortical temporal memory layer.
type TemporalMemoryEngine interface {
	// Compute advances the layer by one time step
	Compute(activeColumns []int, learn bool) error

	// Reset clears the sequence state
	Reset()

	// ActiveCells returns the sorted active cell indices
	ActiveCells() []int

	// WinnerCells returns the sorted winner cell indices
	WinnerCells() []int

	// PredictiveCells returns the sorted predictive cell indices
	PredictiveCells() []int

	// NumberOfColumns returns the size of the column space
	NumberOfColumns() int
}
