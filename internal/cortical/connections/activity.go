package connections

import (
	"sort"
)

// ComputeActivity computes, for the given active presynaptic cells, the
// segments that are active (enough connected synapses to pass
// activationThreshold) and matching (enough synapses above the learning floor
// to pass minThreshold).
//
// A synapse counts toward the connected total when its permanence is at least
// connectedPermanence, and toward the matching total when its permanence is
// strictly above learningPermanence (the temporal memory passes 0.0, so any
// nonzero permanence counts).
//
// Both returned sequences are sorted by (owning cell, segment handle), which
// is the canonical (column, cell, segment) order: cell index determines the
// column, and within a cell ascending handles are creation order. A segment
// may appear in both sequences. The results reflect the substrate exactly as
// of this call.
func (c *Connections) ComputeActivity(activeCells []int, connectedPermanence float64,
	activationThreshold int, learningPermanence float64, minThreshold int) (active, matching []Segment) {

	numConnected := make([]int32, len(c.segments))
	numMatching := make([]int32, len(c.segments))

	for _, cell := range activeCells {
		for _, synapse := range c.synapsesByPresynaptic[int32(cell)] {
			data := &c.synapses[synapse]
			if data.permanence > learningPermanence {
				numMatching[data.segment]++
			}
			if data.permanence >= connectedPermanence {
				numConnected[data.segment]++
			}
		}
	}

	// Only segments excited by at least one synapse are candidates, so a
	// degenerate zero threshold never marks untouched segments.
	for i := range c.segments {
		if numConnected[i] > 0 && numConnected[i] >= int32(activationThreshold) {
			active = append(active, Segment(i))
		}
		if numMatching[i] > 0 && numMatching[i] >= int32(minThreshold) {
			matching = append(matching, Segment(i))
		}
	}

	c.sortByCell(active)
	c.sortByCell(matching)
	return active, matching
}

// sortByCell orders segment handles by (owning cell, handle). Ties on cell
// cannot occur between distinct handles, so the order is total.
func (c *Connections) sortByCell(segments []Segment) {
	sort.Slice(segments, func(i, j int) bool {
		a, b := segments[i], segments[j]
		cellA, cellB := c.segments[a].cell, c.segments[b].cell
		if cellA != cellB {
			return cellA < cellB
		}
		return a < b
	})
}
