package market

// Window is an ordered, read-only view over published bars. It shares
// memory with the underlying series.
type Window struct {
	bars []Bar
}

func (w Window) Len() int { return len(w.bars) }

// At returns the i-th bar, 0 being the oldest.
func (w Window) At(i int) Bar { return w.bars[i] }

// Last returns the newest bar in the window.
func (w Window) Last() (Bar, bool) {
	if len(w.bars) == 0 {
		return Bar{}, false
	}
	return w.bars[len(w.bars)-1], true
}

// Each calls fn for every bar from oldest to newest until fn returns false.
func (w Window) Each(fn func(i int, b Bar) bool) {
	for i, b := range w.bars {
		if !fn(i, b) {
			return
		}
	}
}

// Closes copies the closing prices out of the window.
func (w Window) Closes() []float64 {
	out := make([]float64, len(w.bars))
	for i, b := range w.bars {
		out[i] = b.Close
	}
	return out
}
