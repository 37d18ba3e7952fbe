package temporal

import (
	"github.com/htm-project/temporal-api/internal/cortical/connections"
	"github.com/htm-project/temporal-api/internal/cortical/sdr"
	"github.com/htm-project/temporal-api/internal/domain/htm"
)

// LayerSnapshot is the full serialized state of a temporal memory layer:
// configuration, substrate, rng state, and the four state collections. A
// layer restored from its snapshot is functionally equal to the original.
type LayerSnapshot struct {
	Config           *htm.TemporalMemoryConfig `msgpack:"config" json:"config"`
	Connections      *connections.Snapshot     `msgpack:"connections" json:"connections"`
	Rng              RandState                 `msgpack:"rng" json:"rng"`
	ActiveCells      []int                     `msgpack:"active_cells" json:"active_cells"`
	WinnerCells      []int                     `msgpack:"winner_cells" json:"winner_cells"`
	ActiveSegments   []int32                   `msgpack:"active_segments" json:"active_segments"`
	MatchingSegments []int32                   `msgpack:"matching_segments" json:"matching_segments"`
}

// TakeSnapshot captures the layer state for serialization.
func (tm *TemporalMemory) TakeSnapshot() *LayerSnapshot {
	return &LayerSnapshot{
		Config:           tm.config.Clone(),
		Connections:      tm.conn.TakeSnapshot(),
		Rng:              tm.rng.State(),
		ActiveCells:      tm.activeCells.Clone(),
		WinnerCells:      tm.winnerCells.Clone(),
		ActiveSegments:   segmentsToInt32(tm.activeSegments),
		MatchingSegments: segmentsToInt32(tm.matchingSegments),
	}
}

// FromSnapshot rebuilds a layer from a snapshot.
func FromSnapshot(snap *LayerSnapshot) (*TemporalMemory, error) {
	if snap == nil || snap.Config == nil || snap.Connections == nil {
		return nil, htm.NewTemporalError(htm.TemporalErrorPersistence, "snapshot is incomplete")
	}
	if err := snap.Config.Validate(); err != nil {
		return nil, err
	}

	conn, err := connections.FromSnapshot(snap.Connections)
	if err != nil {
		return nil, err
	}

	cfg := snap.Config.Clone()
	return &TemporalMemory{
		config:           cfg,
		numColumns:       cfg.NumColumns(),
		numCells:         cfg.NumCells(),
		conn:             conn,
		rng:              RestoreRand(snap.Rng),
		activeCells:      sdr.Indices(append([]int(nil), snap.ActiveCells...)),
		winnerCells:      sdr.Indices(append([]int(nil), snap.WinnerCells...)),
		activeSegments:   segmentsFromInt32(snap.ActiveSegments),
		matchingSegments: segmentsFromInt32(snap.MatchingSegments),
	}, nil
}

func segmentsToInt32(segments []connections.Segment) []int32 {
	out := make([]int32, len(segments))
	for i, s := range segments {
		out[i] = int32(s)
	}
	return out
}

func segmentsFromInt32(values []int32) []connections.Segment {
	if len(values) == 0 {
		return nil
	}
	out := make([]connections.Segment, len(values))
	for i, v := range values {
		out[i] = connections.Segment(v)
	}
	return out
}
