package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/ports"
)

func testServiceConfig() *htm.TemporalMemoryConfig {
	cfg := htm.DefaultTemporalMemoryConfig()
	cfg.ColumnDimensions = []int{64}
	cfg.CellsPerColumn = 4
	cfg.ActivationThreshold = 2
	cfg.MinThreshold = 1
	cfg.MaxNewSynapseCount = 8
	return cfg
}

func newTestService(t *testing.T) ports.TemporalMemoryService {
	t.Helper()
	service, err := NewTemporalMemoryService(testServiceConfig(), TemporalServiceOptions{
		SnapshotDir:       t.TempDir(),
		CompressSnapshots: true,
		AnomalyWindowSize: 10,
	})
	require.NoError(t, err)
	return service
}

func TestServiceCompute(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	result, err := service.Compute(ctx, &htm.ComputeInput{
		ActiveColumns: []int{3, 9, 17},
		Learn:         true,
		StepID:        "step-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "step-1", result.StepID)
	assert.Len(t, result.ActiveCells, 12) // three bursting columns of four cells
	assert.Len(t, result.WinnerCells, 3)
	assert.True(t, result.LearningApplied)

	// Nothing was predicted on the very first step.
	assert.Equal(t, 1.0, result.AnomalyScore)
}

func TestServiceComputeValidation(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Compute(ctx, &htm.ComputeInput{ActiveColumns: []int{64}})
	require.Error(t, err)
	assert.Equal(t, htm.TemporalErrorInvalidColumn, htm.ErrorTypeOf(err))

	_, err = service.Compute(ctx, &htm.ComputeInput{ActiveColumns: []int{9, 3}})
	assert.Error(t, err)
}

func TestServiceAnomalyDropsOnLearnedSequence(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	sequence := [][]int{{1, 2}, {10, 11}, {20, 21}, {30, 31}}

	var lastScores []float64
	for epoch := 0; epoch < 10; epoch++ {
		require.NoError(t, service.Reset(ctx))
		for _, columns := range sequence {
			result, err := service.Compute(ctx, &htm.ComputeInput{ActiveColumns: columns, Learn: true})
			require.NoError(t, err)
			if epoch == 9 {
				lastScores = append(lastScores, result.AnomalyScore)
			}
		}
	}

	// After training, every transition within the sequence is predicted. The
	// first step of the sequence follows a reset, so only steps 2..n count.
	for i, score := range lastScores[1:] {
		assert.Equal(t, 0.0, score, "transition %d should be fully predicted", i+1)
	}
}

func TestServiceStateAndMetrics(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	_, err := service.Compute(ctx, &htm.ComputeInput{ActiveColumns: []int{5}, Learn: true})
	require.NoError(t, err)

	state, err := service.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{20, 21, 22, 23}, state.ActiveCells)

	metrics, err := service.GetMetrics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), metrics.TotalSteps)
	assert.Equal(t, int64(1), metrics.LearningSteps)
	assert.InDelta(t, 1.0, metrics.AverageAnomalyScore, 1e-9)

	cfg, err := service.GetConfiguration(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{64}, cfg.ColumnDimensions)

	assert.NotEmpty(t, service.GetInstanceID())
	assert.NoError(t, service.HealthCheck(ctx))
}

func TestServiceSnapshotRoundTrip(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, columns := range [][]int{{1, 2}, {10, 11}, {1, 2}, {10, 11}} {
		_, err := service.Compute(ctx, &htm.ComputeInput{ActiveColumns: columns, Learn: true})
		require.NoError(t, err)
	}

	path, err := service.SaveSnapshot(ctx, "checkpoint")
	require.NoError(t, err)
	assert.Contains(t, path, "checkpoint.tmsnap")

	stateBefore, err := service.GetState(ctx)
	require.NoError(t, err)

	// Diverge, then restore.
	_, err = service.Compute(ctx, &htm.ComputeInput{ActiveColumns: []int{40, 41}, Learn: true})
	require.NoError(t, err)

	require.NoError(t, service.LoadSnapshot(ctx, "checkpoint"))

	stateAfter, err := service.GetState(ctx)
	require.NoError(t, err)
	assert.Equal(t, stateBefore.ActiveCells, stateAfter.ActiveCells)
	assert.Equal(t, stateBefore.WinnerCells, stateAfter.WinnerCells)
	assert.Equal(t, stateBefore.PredictiveCells, stateAfter.PredictiveCells)
}

func TestServiceSnapshotNameValidation(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		_, err := service.SaveSnapshot(ctx, name)
		require.Error(t, err, "name %q", name)
		assert.Equal(t, htm.TemporalErrorPersistence, htm.ErrorTypeOf(err))
	}

	err := service.LoadSnapshot(ctx, "does-not-exist")
	require.Error(t, err)
	assert.Equal(t, htm.TemporalErrorPersistence, htm.ErrorTypeOf(err))
}

func TestAnomalyWindow(t *testing.T) {
	w := newAnomalyWindow(3)

	assert.Equal(t, 0.0, w.Mean())
	assert.Equal(t, 0.0, w.StdDev())

	w.Add(1.0)
	assert.Equal(t, 1.0, w.Mean())

	w.Add(0.0)
	w.Add(0.5)
	assert.InDelta(t, 0.5, w.Mean(), 1e-9)

	// A fourth score evicts the oldest (1.0).
	w.Add(0.1)
	assert.InDelta(t, 0.2, w.Mean(), 1e-9)
	assert.Greater(t, w.StdDev(), 0.0)
}
