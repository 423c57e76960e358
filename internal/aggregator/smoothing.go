package aggregator

import "math"

// DefaultWindowSize is the number of recent samples averaged per signal
const DefaultWindowSize = 5

// SmoothingWindow is a fixed-capacity moving-average buffer for one signal.
// Pushing into a full window evicts the oldest sample.
// Not safe for concurrent use.
type SmoothingWindow struct {
	buf   []float64
	head  int // index of the oldest sample
	count int
}

// NewSmoothingWindow creates an empty window. Capacities below 1 fall back to
// DefaultWindowSize.
func NewSmoothingWindow(capacity int) *SmoothingWindow {
	if capacity < 1 {
		capacity = DefaultWindowSize
	}
	return &SmoothingWindow{buf: make([]float64, capacity)}
}

// Push appends a sample and returns the mean of the current contents
func (w *SmoothingWindow) Push(sample float64) float64 {
	if w.count == len(w.buf) {
		w.buf[w.head] = sample
		w.head = (w.head + 1) % len(w.buf)
	} else {
		w.buf[(w.head+w.count)%len(w.buf)] = sample
		w.count++
	}
	return w.Mean()
}

// Mean returns the arithmetic mean of the current contents, 0 when empty.
// It is summed from the held samples each call so an evicted outlier leaves
// no trace.
func (w *SmoothingWindow) Mean() float64 {
	if w.count == 0 {
		return 0
	}
	n := float64(w.count)
	var sum float64
	for i := 0; i < w.count; i++ {
		sum += w.buf[(w.head+i)%len(w.buf)]
	}
	if !math.IsInf(sum, 0) {
		return sum / n
	}

	// Finite samples near MaxFloat64 can overflow the sum
	var mean float64
	for i := 0; i < w.count; i++ {
		mean += w.buf[(w.head+i)%len(w.buf)] / n
	}
	return mean
}

// Len returns the number of samples held
func (w *SmoothingWindow) Len() int {
	return w.count
}

// Cap returns the window capacity
func (w *SmoothingWindow) Cap() int {
	return len(w.buf)
}

// Values returns the samples oldest first
func (w *SmoothingWindow) Values() []float64 {
	out := make([]float64, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}
