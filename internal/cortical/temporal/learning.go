package temporal

import (
	"sort"

	"github.com/htm-project/temporal-api/internal/cortical/connections"
	"github.com/htm-project/temporal-api/internal/cortical/sdr"
	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// adaptSegment strengthens the segment's synapses toward previously active
// cells by increment and weakens the rest by decrement, clamping to [0, 1].
// A synapse whose permanence falls below Epsilon is destroyed. The punishment
// path passes a negative increment with a zero decrement.
func (tm *TemporalMemory) adaptSegment(prevActiveCells sdr.Indices,
	increment, decrement float64, segment connections.Segment) {

	// Snapshot the synapse list; DestroySynapse mutates it mid-iteration.
	synapses := append([]connections.Synapse(nil), tm.conn.SynapsesForSegment(segment)...)

	for _, synapse := range synapses {
		data := tm.conn.DataForSynapse(synapse)

		permanence := data.Permanence
		if prevActiveCells.Contains(data.PresynapticCell) {
			permanence += increment
		} else {
			permanence -= decrement
		}

		if permanence > 1.0 {
			permanence = 1.0
		}
		if permanence < 0.0 {
			permanence = 0.0
		}

		if permanence < htm.Epsilon {
			tm.conn.DestroySynapse(synapse)
		} else {
			tm.conn.UpdateSynapsePermanence(synapse, permanence)
		}
	}
}

// growSynapses grows up to nDesired synapses onto the segment, sampling
// without replacement from the previous winner cells that are not already
// presynaptic to it. Sampling is the Fisher-Yates index-swap procedure over
// the sorted candidate list; the draw order is part of the observable
// contract, since it fixes which candidates are chosen when there are more
// than nDesired and the order in which the new synapses are created.
func (tm *TemporalMemory) growSynapses(nDesired int, prevWinnerCells sdr.Indices,
	segment connections.Segment) error {

	existing := make(map[int]bool)
	for _, synapse := range tm.conn.SynapsesForSegment(segment) {
		existing[tm.conn.DataForSynapse(synapse).PresynapticCell] = true
	}

	// prevWinnerCells is sorted; filtering preserves that.
	candidates := make([]int, 0, len(prevWinnerCells))
	for _, cell := range prevWinnerCells {
		if !existing[cell] {
			candidates = append(candidates, cell)
		}
	}

	length := len(candidates)
	nActual := nDesired
	if length < nActual {
		nActual = length
	}

	for i := 0; i < nActual; i++ {
		pick := int(tm.rng.Uint32Below(uint32(length)))
		if _, err := tm.conn.CreateSynapse(segment, candidates[pick], tm.config.InitialPermanence); err != nil {
			return err
		}
		candidates[pick] = candidates[length-1]
		length--
	}

	return nil
}

// bestMatchingSegment returns the matching segment in the excited column's
// range with the most synapses onto the previously active cells, together
// with that count. Ties keep the latest segment in the range: the comparison
// is >=, and that bias is load-bearing for reproducibility.
func (tm *TemporalMemory) bestMatchingSegment(excited excitedColumn,
	prevActiveCells sdr.Indices) (connections.Segment, int) {

	maxSynapses := 0
	var bestSegment connections.Segment
	bestNumActive := 0

	for i := excited.matchingBegin; i < excited.matchingEnd; i++ {
		segment := tm.matchingSegments[i]

		numActive := 0
		for _, synapse := range tm.conn.SynapsesForSegment(segment) {
			if prevActiveCells.Contains(tm.conn.DataForSynapse(synapse).PresynapticCell) {
				numActive++
			}
		}

		if numActive >= maxSynapses {
			maxSynapses = numActive
			bestSegment = segment
			bestNumActive = numActive
		}
	}

	return bestSegment, bestNumActive
}

// leastUsedCell returns the cell of the column owning the fewest segments,
// breaking ties uniformly at random from the layer's rng. Cells are scanned
// in ascending order and the tie set is sorted before drawing; the sort is a
// no-op here but pins the order for determinism across implementations.
func (tm *TemporalMemory) leastUsedCell(column int) int {
	start := column * tm.config.CellsPerColumn

	minSegments := -1
	var ties []int
	for cell := start; cell < start+tm.config.CellsPerColumn; cell++ {
		numSegments := tm.conn.NumSegmentsForCell(cell)

		if minSegments < 0 || numSegments < minSegments {
			minSegments = numSegments
			ties = ties[:0]
		}
		if numSegments == minSegments {
			ties = append(ties, cell)
		}
	}

	sort.Ints(ties)
	return ties[tm.rng.Uint32Below(uint32(len(ties)))]
}
