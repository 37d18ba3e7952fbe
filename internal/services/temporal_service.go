package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/htm-project/temporal-api/internal/cortical/sdr"
	"github.com/htm-project/temporal-api/internal/cortical/temporal"
	"github.com/htm-project/temporal-api/internal/domain/htm"
	"github.com/htm-project/temporal-api/internal/infrastructure/validation"
	"github.com/htm-project/temporal-api/internal/persistence"
	"github.com/htm-project/temporal-api/internal/ports"
)

// temporalMemoryService implements the TemporalMemoryService interface. The
// layer itself is single-threaded; the service serializes all access behind a
// mutex.
type temporalMemoryService struct {
	mu sync.Mutex

	engine      *temporal.TemporalMemory
	store       *persistence.Store
	snapshotDir string

	instanceID string
	createdAt  time.Time
	lastStepAt time.Time

	metrics *htm.TemporalMemoryMetrics
	anomaly *anomalyWindow
}

// TemporalServiceOptions configures a temporal memory service.
type TemporalServiceOptions struct {
	SnapshotDir       string
	CompressSnapshots bool
	AnomalyWindowSize int
}

// NewTemporalMemoryService creates a service around a fresh layer built from
// config. A nil config uses the standard HTM defaults.
func NewTemporalMemoryService(config *htm.TemporalMemoryConfig, opts TemporalServiceOptions) (ports.TemporalMemoryService, error) {
	if config != nil {
		if errs := validation.New().Validate(config); errs != nil {
			return nil, htm.NewTemporalError(htm.TemporalErrorConfiguration, errs.Error())
		}
	}

	engine, err := temporal.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal memory: %w", err)
	}

	snapshotDir := opts.SnapshotDir
	if snapshotDir == "" {
		snapshotDir = "snapshots"
	}

	return &temporalMemoryService{
		engine:      engine,
		store:       persistence.NewStore(opts.CompressSnapshots),
		snapshotDir: snapshotDir,
		instanceID:  uuid.NewString(),
		createdAt:   time.Now(),
		metrics:     htm.NewTemporalMemoryMetrics(),
		anomaly:     newAnomalyWindow(opts.AnomalyWindowSize),
	}, nil
}

// Compute feeds one time step through the layer
func (s *temporalMemoryService) Compute(ctx context.Context, input *htm.ComputeInput) (*htm.ComputeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := input.Validate(s.engine.NumberOfColumns()); err != nil {
		s.metrics.RecordError(htm.ErrorTypeOf(err))
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// The anomaly score compares this step's active columns against the
	// columns the previous step predicted.
	predictedColumns := s.predictedColumns()

	start := time.Now()
	if err := s.engine.Compute(input.ActiveColumns, input.Learn); err != nil {
		s.metrics.RecordError(htm.ErrorTypeOf(err))
		return nil, fmt.Errorf("compute step failed: %w", err)
	}
	elapsed := time.Since(start).Microseconds()

	score := anomalyScore(predictedColumns, input.ActiveColumns)
	s.anomaly.Add(score)
	s.metrics.RecordStep(elapsed, input.Learn)
	s.lastStepAt = time.Now()

	return &htm.ComputeResult{
		StepID:          input.StepID,
		ActiveCells:     s.engine.ActiveCells(),
		WinnerCells:     s.engine.WinnerCells(),
		PredictiveCells: s.engine.PredictiveCells(),
		AnomalyScore:    score,
		ComputeTimeUs:   elapsed,
		LearningApplied: input.Learn,
	}, nil
}

// Reset indicates the start of a new sequence
func (s *temporalMemoryService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Reset()
	return nil
}

// GetState returns the current layer state without advancing it
func (s *temporalMemoryService) GetState(ctx context.Context) (*htm.ComputeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &htm.ComputeResult{
		ActiveCells:     s.engine.ActiveCells(),
		WinnerCells:     s.engine.WinnerCells(),
		PredictiveCells: s.engine.PredictiveCells(),
	}, nil
}

// GetConfiguration returns the layer configuration
func (s *temporalMemoryService) GetConfiguration(ctx context.Context) (*htm.TemporalMemoryConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.engine.Config(), nil
}

// GetMetrics returns running service metrics
func (s *temporalMemoryService) GetMetrics(ctx context.Context) (*htm.TemporalMemoryMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := *s.metrics
	out.AverageAnomalyScore = s.anomaly.Mean()
	out.AnomalyScoreStdDev = s.anomaly.StdDev()
	out.TotalSegments = s.engine.Connections().NumSegments()
	out.TotalSynapses = s.engine.Connections().NumSynapses()

	out.ErrorCounts = make(map[htm.TemporalErrorType]int64, len(s.metrics.ErrorCounts))
	for k, v := range s.metrics.ErrorCounts {
		out.ErrorCounts[k] = v
	}
	return &out, nil
}

// SaveSnapshot persists the full layer state and returns the snapshot path
func (s *temporalMemoryService) SaveSnapshot(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.snapshotPath(name)
	if err != nil {
		return "", err
	}

	envelope := &persistence.Envelope{
		InstanceID: s.instanceID,
		Layer:      s.engine.TakeSnapshot(),
	}
	if err := s.store.Save(path, envelope); err != nil {
		s.metrics.RecordError(htm.TemporalErrorPersistence)
		return "", err
	}
	return path, nil
}

// LoadSnapshot replaces the layer with the state from a named snapshot
func (s *temporalMemoryService) LoadSnapshot(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.snapshotPath(name)
	if err != nil {
		return err
	}

	envelope, err := s.store.Load(path)
	if err != nil {
		s.metrics.RecordError(htm.TemporalErrorPersistence)
		return err
	}

	engine, err := temporal.FromSnapshot(envelope.Layer)
	if err != nil {
		s.metrics.RecordError(htm.ErrorTypeOf(err))
		return err
	}

	s.engine = engine
	return nil
}

// GetInstanceID returns the unique identifier for this layer instance
func (s *temporalMemoryService) GetInstanceID() string {
	return s.instanceID
}

// HealthCheck performs a health check on the service
func (s *temporalMemoryService) HealthCheck(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine == nil {
		return htm.NewTemporalError(htm.TemporalErrorProcessing, "temporal memory engine not initialized")
	}
	return nil
}

// predictedColumns maps the current predictive cells to their columns,
// sorted and deduplicated.
func (s *temporalMemoryService) predictedColumns() []int {
	cellsPerColumn := s.engine.CellsPerColumn()

	var columns []int
	for _, cell := range s.engine.PredictiveCells() {
		column := cell / cellsPerColumn
		if n := len(columns); n == 0 || columns[n-1] != column {
			columns = append(columns, column)
		}
	}
	return columns
}

// snapshotPath validates a snapshot name and resolves it inside the snapshot
// directory.
func (s *temporalMemoryService) snapshotPath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return "", htm.NewTemporalError(htm.TemporalErrorPersistence,
			fmt.Sprintf("invalid snapshot name %q", name))
	}
	return filepath.Join(s.snapshotDir, name+".tmsnap"), nil
}

// anomalyScore is the fraction of active columns the previous step failed to
// predict. Zero when no columns are active.
func anomalyScore(predictedColumns, activeColumns []int) float64 {
	if len(activeColumns) == 0 {
		return 0
	}
	overlap := sdr.Indices(predictedColumns).Overlap(sdr.Indices(activeColumns))
	return 1.0 - float64(overlap)/float64(len(activeColumns))
}
