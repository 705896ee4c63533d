// Package ring_buffer keeps a fixed-size rolling window of recent
// amplitude observations for the ambient-noise calibrator.
package ring_buffer

type Window struct {
	values []float64
	head   int
	filled int
}

func New(size int) *Window {
	if size <= 0 {
		size = 1
	}

	return &Window{
		values: make([]float64, size),
	}
}

// Add records one observation, evicting the oldest once the window is full.
func (w *Window) Add(v float64) {
	w.values[w.head] = v
	w.head = (w.head + 1) % len(w.values)

	if w.filled < len(w.values) {
		w.filled++
	}
}

// Values returns the held observations oldest first. A window that has not
// wrapped yet returns only what was actually observed.
func (w *Window) Values() []float64 {
	out := make([]float64, 0, w.filled)

	if w.filled < len(w.values) {
		return append(out, w.values[:w.filled]...)
	}

	for i := 0; i < len(w.values); i++ {
		out = append(out, w.values[(w.head+i)%len(w.values)])
	}

	return out
}

// Full reports whether the window has wrapped at least once.
func (w *Window) Full() bool {
	return w.filled == len(w.values)
}

// Len returns the number of observations currently held.
func (w *Window) Len() int {
	return w.filled
}

// Clear drops all observations.
func (w *Window) Clear() {
	w.head = 0
	w.filled = 0
}
