package services

import (
	"gonum.org/v1/gonum/stat"
)

// anomalyWindow keeps the last N anomaly scores and summarizes them. A score
// near 0 means the stream is well predicted; sustained scores near 1 mean the
// layer is seeing novel sequences.
type anomalyWindow struct {
	scores []float64
	size   int
	next   int
	full   bool
}

func newAnomalyWindow(size int) *anomalyWindow {
	if size <= 0 {
		size = 100
	}
	return &anomalyWindow{
		scores: make([]float64, size),
		size:   size,
	}
}

// Add records one anomaly score, evicting the oldest when the window is full.
func (w *anomalyWindow) Add(score float64) {
	w.scores[w.next] = score
	w.next++
	if w.next == w.size {
		w.next = 0
		w.full = true
	}
}

func (w *anomalyWindow) values() []float64 {
	if w.full {
		return w.scores
	}
	return w.scores[:w.next]
}

// Mean returns the mean anomaly score over the window.
func (w *anomalyWindow) Mean() float64 {
	values := w.values()
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// StdDev returns the standard deviation of anomaly scores over the window.
// Zero until at least two scores were recorded.
func (w *anomalyWindow) StdDev() float64 {
	values := w.values()
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}
