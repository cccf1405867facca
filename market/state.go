package market

import (
	"fmt"
	"sort"
	"time"
)

// State keeps a monotonic cursor into each symbol's bar series and
// publishes the current bar for every symbol at each timestamp.
//
// When a symbol has no bar at the advanced timestamp the previously
// published bar stays current. Gaps are carried forward, they are not
// errors.
type State struct {
	symbols []string
	series  map[string][]Bar
	cursor  map[string]int
	stale   map[string]bool
}

// NewState validates every series and returns a State with all cursors
// at the start.
func NewState(series map[string][]Bar) (*State, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("market: no series")
	}

	s := &State{
		series: make(map[string][]Bar, len(series)),
		cursor: make(map[string]int, len(series)),
		stale:  make(map[string]bool, len(series)),
	}
	for sym, bars := range series {
		if err := ValidateSeries(sym, bars); err != nil {
			return nil, err
		}
		s.series[sym] = bars
		s.cursor[sym] = 0
		s.symbols = append(s.symbols, sym)
	}
	sort.Strings(s.symbols)
	return s, nil
}

// Symbols returns the tracked symbols in sorted order.
func (s *State) Symbols() []string {
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

func (s *State) Has(symbol string) bool {
	_, ok := s.series[symbol]
	return ok
}

// Advance publishes symbol's bar at ts if the bar under the cursor has that
// timestamp. It reports whether a new bar was published.
func (s *State) Advance(symbol string, ts time.Time) bool {
	bars, ok := s.series[symbol]
	if !ok {
		return false
	}
	i := s.cursor[symbol]
	// Catch up over bars the timeline never visited. They are older than
	// ts, so publishing them cannot leak future data.
	for i < len(bars) && bars[i].Time.Before(ts) {
		i++
	}
	if i < len(bars) && bars[i].Time.Equal(ts) {
		s.cursor[symbol] = i + 1
		s.stale[symbol] = false
		return true
	}
	s.cursor[symbol] = i
	s.stale[symbol] = i > 0
	return false
}

// AdvanceAll advances every tracked symbol to ts in sorted symbol order.
func (s *State) AdvanceAll(ts time.Time) {
	for _, sym := range s.symbols {
		s.Advance(sym, ts)
	}
}

// Current returns the most recently published bar for symbol.
func (s *State) Current(symbol string) (Bar, bool) {
	i := s.cursor[symbol]
	if i == 0 {
		return Bar{}, false
	}
	return s.series[symbol][i-1], true
}

// Stale reports whether symbol's current bar was carried forward from an
// earlier timestamp on the last advance.
func (s *State) Stale(symbol string) bool {
	return s.stale[symbol]
}

// CurrentBars returns the published bar of every symbol that has one.
func (s *State) CurrentBars() map[string]Bar {
	out := make(map[string]Bar, len(s.symbols))
	for _, sym := range s.symbols {
		if b, ok := s.Current(sym); ok {
			out[sym] = b
		}
	}
	return out
}

// Closes returns the close of every symbol's published bar.
func (s *State) Closes() map[string]float64 {
	out := make(map[string]float64, len(s.symbols))
	for _, sym := range s.symbols {
		if b, ok := s.Current(sym); ok {
			out[sym] = b.Close
		}
	}
	return out
}

// Bars returns a read-only view of the last n published bars for symbol,
// oldest first. Fewer than n bars are returned early in the series.
func (s *State) Bars(symbol string, n int) Window {
	i := s.cursor[symbol]
	if n <= 0 || i == 0 {
		return Window{}
	}
	lo := i - n
	if lo < 0 {
		lo = 0
	}
	return Window{bars: s.series[symbol][lo:i:i]}
}

// Reset rewinds every cursor so the state can be replayed.
func (s *State) Reset() {
	for _, sym := range s.symbols {
		s.cursor[sym] = 0
		s.stale[sym] = false
	}
}
