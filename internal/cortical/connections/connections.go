// Package connections implements the sparse synaptic substrate underlying the
// temporal memory: cells own dendritic segments, segments own synapses, and
// synapses carry a permanence toward a presynaptic cell.
//
// Segments and synapses are identified by dense integer handles into pooled
// arrays. Segment handles are allocated monotonically and never reused, so
// within one cell the creation order of segments is the ascending handle
// order. Synapse handles are recycled through a free list when synapses are
// destroyed; their ordering carries no meaning beyond identity.
package connections

import (
	"fmt"

	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// Segment is an opaque stable handle identifying one dendritic segment.
type Segment int32

// Synapse is an opaque stable handle identifying one synapse.
type Synapse int32

// SynapseData is the read view of a synapse.
type SynapseData struct {
	PresynapticCell int
	Permanence      float64
}

type segmentData struct {
	cell     int32
	synapses []Synapse // creation order
}

type synapseData struct {
	segment         Segment
	presynapticCell int32
	permanence      float64
	destroyed       bool
}

// Connections stores all segments and synapses of one temporal memory layer.
// It is not safe for concurrent use.
type Connections struct {
	numCells              int
	maxSegmentsPerCell    int
	maxSynapsesPerSegment int

	cells    [][]Segment // per-cell segment handles, creation order
	segments []segmentData
	synapses []synapseData

	freeSynapses []Synapse

	// Reverse index from presynaptic cell to the synapses it feeds. Kept
	// incrementally so ComputeActivity touches only synapses of active cells.
	synapsesByPresynaptic map[int32][]Synapse

	numSynapses int
}

// New creates an empty substrate for numCells cells with the given capacity
// caps. Exceeding a cap later surfaces as a capacity_exceeded error; there is
// no eviction.
func New(numCells, maxSegmentsPerCell, maxSynapsesPerSegment int) (*Connections, error) {
	if numCells <= 0 {
		return nil, htm.NewTemporalError(htm.TemporalErrorConfiguration,
			"number of cells must be positive")
	}
	if maxSegmentsPerCell <= 0 {
		return nil, htm.NewTemporalError(htm.TemporalErrorConfiguration,
			"max segments per cell must be positive")
	}
	if maxSynapsesPerSegment <= 0 {
		return nil, htm.NewTemporalError(htm.TemporalErrorConfiguration,
			"max synapses per segment must be positive")
	}

	return &Connections{
		numCells:              numCells,
		maxSegmentsPerCell:    maxSegmentsPerCell,
		maxSynapsesPerSegment: maxSynapsesPerSegment,
		cells:                 make([][]Segment, numCells),
		synapsesByPresynaptic: make(map[int32][]Synapse),
	}, nil
}

// NumCells returns the size of the cell space.
func (c *Connections) NumCells() int {
	return c.numCells
}

// NumSegments returns the total number of segments.
func (c *Connections) NumSegments() int {
	return len(c.segments)
}

// NumSynapses returns the number of live synapses.
func (c *Connections) NumSynapses() int {
	return c.numSynapses
}

// CreateSegment appends a new segment to the cell's segment list and returns
// its handle. Fails with capacity_exceeded when the cell already owns
// maxSegmentsPerCell segments; segments are never reused.
func (c *Connections) CreateSegment(cell int) (Segment, error) {
	if err := c.validateCell(cell); err != nil {
		return -1, err
	}
	if len(c.cells[cell]) >= c.maxSegmentsPerCell {
		return -1, htm.NewCapacityExceededError(
			fmt.Sprintf("cell %d already owns %d segments", cell, c.maxSegmentsPerCell))
	}

	segment := Segment(len(c.segments))
	c.segments = append(c.segments, segmentData{cell: int32(cell)})
	c.cells[cell] = append(c.cells[cell], segment)
	return segment, nil
}

// CreateSynapse adds a synapse from presynapticCell onto segment at the given
// permanence and returns its handle. The caller guarantees no synapse with the
// same presynaptic cell already exists on the segment. Fails with
// capacity_exceeded when the segment already holds maxSynapsesPerSegment
// synapses.
func (c *Connections) CreateSynapse(segment Segment, presynapticCell int, permanence float64) (Synapse, error) {
	if err := c.validateCell(presynapticCell); err != nil {
		return -1, err
	}
	seg := &c.segments[segment]
	if len(seg.synapses) >= c.maxSynapsesPerSegment {
		return -1, htm.NewCapacityExceededError(
			fmt.Sprintf("segment %d already holds %d synapses", segment, c.maxSynapsesPerSegment))
	}

	var synapse Synapse
	if n := len(c.freeSynapses); n > 0 {
		synapse = c.freeSynapses[n-1]
		c.freeSynapses = c.freeSynapses[:n-1]
	} else {
		synapse = Synapse(len(c.synapses))
		c.synapses = append(c.synapses, synapseData{})
	}

	c.synapses[synapse] = synapseData{
		segment:         segment,
		presynapticCell: int32(presynapticCell),
		permanence:      clampPermanence(permanence),
	}
	seg.synapses = append(seg.synapses, synapse)
	c.synapsesByPresynaptic[int32(presynapticCell)] =
		append(c.synapsesByPresynaptic[int32(presynapticCell)], synapse)
	c.numSynapses++
	return synapse, nil
}

// DestroySynapse removes the synapse from its segment. Handles to other
// synapses on the same segment remain valid; the destroyed handle is recycled
// for future synapses.
func (c *Connections) DestroySynapse(synapse Synapse) {
	data := &c.synapses[synapse]
	if data.destroyed {
		return
	}

	seg := &c.segments[data.segment]
	seg.synapses = removeSynapse(seg.synapses, synapse)

	presyn := data.presynapticCell
	c.synapsesByPresynaptic[presyn] = removeSynapse(c.synapsesByPresynaptic[presyn], synapse)
	if len(c.synapsesByPresynaptic[presyn]) == 0 {
		delete(c.synapsesByPresynaptic, presyn)
	}

	data.destroyed = true
	c.freeSynapses = append(c.freeSynapses, synapse)
	c.numSynapses--
}

// UpdateSynapsePermanence stores a new permanence for the synapse, clamped to
// [0, 1].
func (c *Connections) UpdateSynapsePermanence(synapse Synapse, permanence float64) {
	c.synapses[synapse].permanence = clampPermanence(permanence)
}

// SynapsesForSegment returns the segment's synapse handles in creation order.
// The returned slice is the substrate's own; callers that mutate the segment
// while iterating must copy it first.
func (c *Connections) SynapsesForSegment(segment Segment) []Synapse {
	return c.segments[segment].synapses
}

// SegmentsForCell returns the cell's segment handles in creation order.
func (c *Connections) SegmentsForCell(cell int) []Segment {
	return c.cells[cell]
}

// NumSegmentsForCell returns how many segments the cell owns.
func (c *Connections) NumSegmentsForCell(cell int) int {
	return len(c.cells[cell])
}

// CellForSegment returns the cell owning the segment.
func (c *Connections) CellForSegment(segment Segment) int {
	return int(c.segments[segment].cell)
}

// ColumnForSegment returns the column of the cell owning the segment.
func (c *Connections) ColumnForSegment(segment Segment, cellsPerColumn int) int {
	return int(c.segments[segment].cell) / cellsPerColumn
}

// DataForSynapse returns the presynaptic cell and permanence of the synapse.
func (c *Connections) DataForSynapse(synapse Synapse) SynapseData {
	data := c.synapses[synapse]
	return SynapseData{
		PresynapticCell: int(data.presynapticCell),
		Permanence:      data.permanence,
	}
}

func (c *Connections) validateCell(cell int) error {
	if cell < 0 || cell >= c.numCells {
		return htm.NewInvalidCellError(cell, c.numCells)
	}
	return nil
}

func clampPermanence(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// removeSynapse deletes one handle from a synapse list, preserving the order
// of the remaining entries.
func removeSynapse(list []Synapse, synapse Synapse) []Synapse {
	for i, s := range list {
		if s == synapse {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
