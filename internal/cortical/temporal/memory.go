// Package temporal implements the HTM temporal memory: an online,
// unsupervised sequence learner that consumes sparse active columns and
// maintains the layer's active, winner, and predictive cell state by
// adjusting synapse permanences on dendritic segments.
//
// A layer is single-threaded and synchronous: one Compute call advances one
// time step. Given identical construction parameters (including the seed) and
// an identical input stream, two layers produce identical state after every
// step.
package temporal

import (
	"sort"

	"github.com/htm-project/temporal-api/internal/cortical/connections"
	"github.com/htm-project/temporal-api/internal/cortical/sdr"
	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// TemporalMemory is one temporal memory layer.
type TemporalMemory struct {
	config     *htm.TemporalMemoryConfig
	numColumns int
	numCells   int

	conn *connections.Connections
	rng  *Rand

	// Current-step state. Both cell sets are maintained in ascending order:
	// the merge walk emits columns in ascending order and every policy
	// appends cells in ascending order within a column.
	activeCells sdr.Indices
	winnerCells sdr.Indices

	// Derived state feeding the next step, in canonical
	// (column, cell, segment) order.
	activeSegments   []connections.Segment
	matchingSegments []connections.Segment
}

// New creates a temporal memory layer from a validated configuration.
func New(config *htm.TemporalMemoryConfig) (*TemporalMemory, error) {
	if config == nil {
		config = htm.DefaultTemporalMemoryConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := config.Clone()
	conn, err := connections.New(cfg.NumCells(), cfg.MaxSegmentsPerCell, cfg.MaxSynapsesPerSegment)
	if err != nil {
		return nil, err
	}

	return &TemporalMemory{
		config:     cfg,
		numColumns: cfg.NumColumns(),
		numCells:   cfg.NumCells(),
		conn:       conn,
		rng:        NewRand(cfg.Seed),
	}, nil
}

// Compute feeds one input record through the layer, performing inference and,
// when learn is set, learning. Active columns must be sorted, unique, and in
// range; they are sorted defensively.
//
// Compute only fails when a capacity cap is exhausted; the partial state of a
// failed step is undefined.
func (tm *TemporalMemory) Compute(activeColumns []int, learn bool) error {
	prevActiveCells := tm.activeCells
	prevWinnerCells := tm.winnerCells

	columns := make([]int, len(activeColumns))
	copy(columns, activeColumns)
	sort.Ints(columns)

	tm.activeCells = nil
	tm.winnerCells = nil

	walker := newExcitedColumnsWalker(columns, tm.activeSegments, tm.matchingSegments,
		tm.config.CellsPerColumn, tm.conn)

	for {
		excited, ok := walker.next()
		if !ok {
			break
		}

		if excited.isActiveColumn {
			if excited.activeBegin != excited.activeEnd {
				tm.activatePredictedColumn(excited, learn, prevActiveCells)
			} else if err := tm.burstColumn(excited, learn, prevActiveCells, prevWinnerCells); err != nil {
				return err
			}
		} else if learn {
			tm.punishPredictedColumn(excited, prevActiveCells)
		}
	}

	tm.activeSegments, tm.matchingSegments = tm.conn.ComputeActivity(tm.activeCells,
		tm.config.ConnectedPermanence, tm.config.ActivationThreshold, 0.0, tm.config.MinThreshold)

	return nil
}

// Reset indicates the start of a new sequence, clearing the active cells,
// winner cells, and active segments of the layer.
func (tm *TemporalMemory) Reset() {
	tm.activeCells = nil
	tm.winnerCells = nil
	tm.activeSegments = nil
}

// activatePredictedColumn activates the cells that correctly predicted this
// column: the owners of its active segments, each emitted once. Segments of
// the same cell are contiguous within the range, so deduplicating against the
// previous owner suffices.
func (tm *TemporalMemory) activatePredictedColumn(excited excitedColumn, learn bool, prevActiveCells sdr.Indices) {
	cell := -1
	for i := excited.activeBegin; i < excited.activeEnd; i++ {
		segment := tm.activeSegments[i]
		if owner := tm.conn.CellForSegment(segment); owner != cell {
			cell = owner
			tm.activeCells = append(tm.activeCells, cell)
			tm.winnerCells = append(tm.winnerCells, cell)
		}

		if learn {
			tm.adaptSegment(prevActiveCells, tm.config.PermanenceIncrement,
				tm.config.PermanenceDecrement, segment)
		}
	}
}

// burstColumn activates every cell of a surprised column and selects one
// winner for learning: the owner of the best matching segment when one
// exists, otherwise the least-used cell of the column.
func (tm *TemporalMemory) burstColumn(excited excitedColumn, learn bool,
	prevActiveCells, prevWinnerCells sdr.Indices) error {

	start := excited.column * tm.config.CellsPerColumn
	for cell := start; cell < start+tm.config.CellsPerColumn; cell++ {
		tm.activeCells = append(tm.activeCells, cell)
	}

	var winner int
	if excited.matchingBegin != excited.matchingEnd {
		bestSegment, overlap := tm.bestMatchingSegment(excited, prevActiveCells)
		winner = tm.conn.CellForSegment(bestSegment)

		if learn {
			tm.adaptSegment(prevActiveCells, tm.config.PermanenceIncrement,
				tm.config.PermanenceDecrement, bestSegment)

			if nGrow := tm.config.MaxNewSynapseCount - overlap; nGrow > 0 {
				if err := tm.growSynapses(nGrow, prevWinnerCells, bestSegment); err != nil {
					return err
				}
			}
		}
	} else {
		winner = tm.leastUsedCell(excited.column)

		if learn {
			nGrow := tm.config.MaxNewSynapseCount
			if len(prevWinnerCells) < nGrow {
				nGrow = len(prevWinnerCells)
			}
			if nGrow > 0 {
				segment, err := tm.conn.CreateSegment(winner)
				if err != nil {
					return err
				}
				if err := tm.growSynapses(nGrow, prevWinnerCells, segment); err != nil {
					return err
				}
			}
		}
	}

	tm.winnerCells = append(tm.winnerCells, winner)
	return nil
}

// punishPredictedColumn decrements the active synapses of segments that
// predicted a column which did not become active. No-op when the configured
// decrement is zero.
func (tm *TemporalMemory) punishPredictedColumn(excited excitedColumn, prevActiveCells sdr.Indices) {
	if tm.config.PredictedSegmentDecrement <= 0.0 {
		return
	}
	for i := excited.matchingBegin; i < excited.matchingEnd; i++ {
		tm.adaptSegment(prevActiveCells, -tm.config.PredictedSegmentDecrement, 0.0,
			tm.matchingSegments[i])
	}
}

// ActiveCells returns the indices of the active cells, sorted.
func (tm *TemporalMemory) ActiveCells() []int {
	return tm.activeCells.Clone()
}

// WinnerCells returns the indices of the winner cells, sorted.
func (tm *TemporalMemory) WinnerCells() []int {
	return tm.winnerCells.Clone()
}

// PredictiveCells returns the owners of the active segments, deduplicated and
// sorted. Active segments are in (column, cell, segment) order, so owners
// arrive sorted and duplicates are consecutive.
func (tm *TemporalMemory) PredictiveCells() []int {
	var cells []int
	for _, segment := range tm.activeSegments {
		cell := tm.conn.CellForSegment(segment)
		if n := len(cells); n == 0 || cells[n-1] != cell {
			cells = append(cells, cell)
		}
	}
	return cells
}

// ActiveSegments returns the derived active segment sequence.
func (tm *TemporalMemory) ActiveSegments() []connections.Segment {
	out := make([]connections.Segment, len(tm.activeSegments))
	copy(out, tm.activeSegments)
	return out
}

// MatchingSegments returns the derived matching segment sequence.
func (tm *TemporalMemory) MatchingSegments() []connections.Segment {
	out := make([]connections.Segment, len(tm.matchingSegments))
	copy(out, tm.matchingSegments)
	return out
}

// Connections exposes the underlying substrate for inspection.
func (tm *TemporalMemory) Connections() *connections.Connections {
	return tm.conn
}

// Config returns a copy of the layer configuration.
func (tm *TemporalMemory) Config() *htm.TemporalMemoryConfig {
	return tm.config.Clone()
}

// NumberOfColumns returns the number of columns in the layer.
func (tm *TemporalMemory) NumberOfColumns() int {
	return tm.numColumns
}

// NumberOfCells returns the number of cells in the layer.
func (tm *TemporalMemory) NumberOfCells() int {
	return tm.numCells
}

// CellsPerColumn returns the number of cells per column.
func (tm *TemporalMemory) CellsPerColumn() int {
	return tm.config.CellsPerColumn
}

// ColumnForCell returns the column a cell belongs to.
func (tm *TemporalMemory) ColumnForCell(cell int) (int, error) {
	if cell < 0 || cell >= tm.numCells {
		return 0, htm.NewInvalidCellError(cell, tm.numCells)
	}
	return cell / tm.config.CellsPerColumn, nil
}

// CellsForColumn returns the cell indices belonging to a column, ascending.
func (tm *TemporalMemory) CellsForColumn(column int) ([]int, error) {
	if column < 0 || column >= tm.numColumns {
		return nil, htm.NewInvalidColumnError(column, tm.numColumns)
	}
	start := column * tm.config.CellsPerColumn
	cells := make([]int, tm.config.CellsPerColumn)
	for i := range cells {
		cells[i] = start + i
	}
	return cells, nil
}

// MapCellsToColumns groups cells by the column they belong to.
func (tm *TemporalMemory) MapCellsToColumns(cells []int) (map[int][]int, error) {
	mapping := make(map[int][]int)
	for _, cell := range cells {
		column, err := tm.ColumnForCell(cell)
		if err != nil {
			return nil, err
		}
		mapping[column] = append(mapping[column], cell)
	}
	for _, group := range mapping {
		sort.Ints(group)
	}
	return mapping, nil
}

// Equal reports functional equality between two layers: equal configuration
// (floats within Epsilon), equal substrates, and equal state collections.
func (tm *TemporalMemory) Equal(other *TemporalMemory) bool {
	if !tm.config.Equal(other.config) {
		return false
	}
	if !tm.conn.Equal(other.conn) {
		return false
	}
	if !intsEqual(tm.activeCells, other.activeCells) ||
		!intsEqual(tm.winnerCells, other.winnerCells) {
		return false
	}
	return segmentsEqual(tm.activeSegments, other.activeSegments) &&
		segmentsEqual(tm.matchingSegments, other.matchingSegments)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func segmentsEqual(a, b []connections.Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
