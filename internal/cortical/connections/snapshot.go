package connections

import (
	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// SegmentState is the serialized form of one segment.
type SegmentState struct {
	Cell     int32   `msgpack:"cell" json:"cell"`
	Synapses []int32 `msgpack:"synapses" json:"synapses"`
}

// SynapseState is the serialized form of one synapse pool entry.
type SynapseState struct {
	Segment         int32   `msgpack:"segment" json:"segment"`
	PresynapticCell int32   `msgpack:"presynaptic_cell" json:"presynaptic_cell"`
	Permanence      float64 `msgpack:"permanence" json:"permanence"`
	Destroyed       bool    `msgpack:"destroyed,omitempty" json:"destroyed,omitempty"`
}

// Snapshot is the full serialized state of the substrate. It preserves the
// raw pools, so segment and synapse handles survive a round trip unchanged —
// required because the layer's derived sequences store handles.
type Snapshot struct {
	NumCells              int            `msgpack:"num_cells" json:"num_cells"`
	MaxSegmentsPerCell    int            `msgpack:"max_segments_per_cell" json:"max_segments_per_cell"`
	MaxSynapsesPerSegment int            `msgpack:"max_synapses_per_segment" json:"max_synapses_per_segment"`
	Segments              []SegmentState `msgpack:"segments" json:"segments"`
	Synapses              []SynapseState `msgpack:"synapses" json:"synapses"`
	FreeSynapses          []int32        `msgpack:"free_synapses" json:"free_synapses"`
}

// TakeSnapshot captures the substrate state for serialization.
func (c *Connections) TakeSnapshot() *Snapshot {
	snap := &Snapshot{
		NumCells:              c.numCells,
		MaxSegmentsPerCell:    c.maxSegmentsPerCell,
		MaxSynapsesPerSegment: c.maxSynapsesPerSegment,
		Segments:              make([]SegmentState, len(c.segments)),
		Synapses:              make([]SynapseState, len(c.synapses)),
		FreeSynapses:          make([]int32, len(c.freeSynapses)),
	}

	for i, seg := range c.segments {
		synapses := make([]int32, len(seg.synapses))
		for j, s := range seg.synapses {
			synapses[j] = int32(s)
		}
		snap.Segments[i] = SegmentState{Cell: seg.cell, Synapses: synapses}
	}

	for i, syn := range c.synapses {
		snap.Synapses[i] = SynapseState{
			Segment:         int32(syn.segment),
			PresynapticCell: syn.presynapticCell,
			Permanence:      syn.permanence,
			Destroyed:       syn.destroyed,
		}
	}

	for i, s := range c.freeSynapses {
		snap.FreeSynapses[i] = int32(s)
	}

	return snap
}

// FromSnapshot rebuilds a substrate from a snapshot, restoring handle
// numbering exactly and reconstructing the presynaptic reverse index.
func FromSnapshot(snap *Snapshot) (*Connections, error) {
	c, err := New(snap.NumCells, snap.MaxSegmentsPerCell, snap.MaxSynapsesPerSegment)
	if err != nil {
		return nil, err
	}

	c.segments = make([]segmentData, len(snap.Segments))
	for i, seg := range snap.Segments {
		if int(seg.Cell) < 0 || int(seg.Cell) >= snap.NumCells {
			return nil, htm.NewInvalidCellError(int(seg.Cell), snap.NumCells)
		}
		synapses := make([]Synapse, len(seg.Synapses))
		for j, s := range seg.Synapses {
			synapses[j] = Synapse(s)
		}
		c.segments[i] = segmentData{cell: seg.Cell, synapses: synapses}
		c.cells[seg.Cell] = append(c.cells[seg.Cell], Segment(i))
	}

	c.synapses = make([]synapseData, len(snap.Synapses))
	for i, syn := range snap.Synapses {
		c.synapses[i] = synapseData{
			segment:         Segment(syn.Segment),
			presynapticCell: syn.PresynapticCell,
			permanence:      syn.Permanence,
			destroyed:       syn.Destroyed,
		}
	}

	c.freeSynapses = make([]Synapse, len(snap.FreeSynapses))
	for i, s := range snap.FreeSynapses {
		c.freeSynapses[i] = Synapse(s)
	}

	// The reverse index is rebuilt in segment order, which can differ from the
	// order CreateSynapse calls appended it in; only membership of the index is
	// ever used, so the order does not affect any result.
	for i := range c.segments {
		for _, synapse := range c.segments[i].synapses {
			presyn := c.synapses[synapse].presynapticCell
			c.synapsesByPresynaptic[presyn] = append(c.synapsesByPresynaptic[presyn], synapse)
			c.numSynapses++
		}
	}

	return c, nil
}

// Equal reports functional equality: the same segments per cell in the same
// order, the same synapses per segment in the same order, with presynaptic
// cells equal and permanences within Epsilon. Handle numbering is not
// compared.
func (c *Connections) Equal(other *Connections) bool {
	if c.numCells != other.numCells {
		return false
	}

	for cell := 0; cell < c.numCells; cell++ {
		segsA := c.cells[cell]
		segsB := other.cells[cell]
		if len(segsA) != len(segsB) {
			return false
		}

		for i := range segsA {
			synsA := c.segments[segsA[i]].synapses
			synsB := other.segments[segsB[i]].synapses
			if len(synsA) != len(synsB) {
				return false
			}

			for j := range synsA {
				a := c.synapses[synsA[j]]
				b := other.synapses[synsB[j]]
				if a.presynapticCell != b.presynapticCell {
					return false
				}
				diff := a.permanence - b.permanence
				if diff < 0 {
					diff = -diff
				}
				if diff > htm.Epsilon {
					return false
				}
			}
		}
	}

	return true
}
