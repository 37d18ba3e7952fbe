package temporal

import (
	"math"

	"github.com/htm-project/temporal-api/internal/cortical/connections"
)

// excitedColumn is one record of the column-merge walk: a column that is
// active, has active segments, has matching segments, or any combination.
// The segment ranges index into the walker's activeSegments and
// matchingSegments sequences, half-open [begin, end).
type excitedColumn struct {
	column         int
	isActiveColumn bool
	activeBegin    int
	activeEnd      int
	matchingBegin  int
	matchingEnd    int
}

// excitedColumnsWalker merges three column-sorted inputs — active columns,
// active segments, matching segments — in a single lockstep pass. Each call
// to next emits the smallest column present in any input and advances past
// every segment and active-column entry belonging to it, so every entry is
// visited exactly once and emitted columns are non-decreasing.
type excitedColumnsWalker struct {
	activeColumns    []int
	activeSegments   []connections.Segment
	matchingSegments []connections.Segment
	cellsPerColumn   int
	conn             *connections.Connections

	columnsProcessed  int
	activeProcessed   int
	matchingProcessed int
}

func newExcitedColumnsWalker(activeColumns []int, activeSegments, matchingSegments []connections.Segment,
	cellsPerColumn int, conn *connections.Connections) *excitedColumnsWalker {
	return &excitedColumnsWalker{
		activeColumns:    activeColumns,
		activeSegments:   activeSegments,
		matchingSegments: matchingSegments,
		cellsPerColumn:   cellsPerColumn,
		conn:             conn,
	}
}

// next emits the record for the smallest unprocessed column. The second
// return is false when all three inputs are exhausted.
func (w *excitedColumnsWalker) next() (excitedColumn, bool) {
	if w.columnsProcessed >= len(w.activeColumns) &&
		w.activeProcessed >= len(w.activeSegments) &&
		w.matchingProcessed >= len(w.matchingSegments) {
		return excitedColumn{}, false
	}

	column := math.MaxInt
	if w.activeProcessed < len(w.activeSegments) {
		if c := w.conn.ColumnForSegment(w.activeSegments[w.activeProcessed], w.cellsPerColumn); c < column {
			column = c
		}
	}
	if w.matchingProcessed < len(w.matchingSegments) {
		if c := w.conn.ColumnForSegment(w.matchingSegments[w.matchingProcessed], w.cellsPerColumn); c < column {
			column = c
		}
	}

	isActiveColumn := false
	if w.columnsProcessed < len(w.activeColumns) && w.activeColumns[w.columnsProcessed] <= column {
		column = w.activeColumns[w.columnsProcessed]
		isActiveColumn = true
		w.columnsProcessed++
	}

	record := excitedColumn{
		column:         column,
		isActiveColumn: isActiveColumn,
		activeBegin:    w.activeProcessed,
		matchingBegin:  w.matchingProcessed,
	}

	for w.activeProcessed < len(w.activeSegments) &&
		w.conn.ColumnForSegment(w.activeSegments[w.activeProcessed], w.cellsPerColumn) == column {
		w.activeProcessed++
	}
	record.activeEnd = w.activeProcessed

	for w.matchingProcessed < len(w.matchingSegments) &&
		w.conn.ColumnForSegment(w.matchingSegments[w.matchingProcessed], w.cellsPerColumn) == column {
		w.matchingProcessed++
	}
	record.matchingEnd = w.matchingProcessed

	return record, true
}
