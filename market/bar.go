package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Bar represents one OHLCV snapshot for an instrument.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

var ErrBadBar = errors.New("malformed bar")

// Validate checks that all prices are finite and positive, that the
// high/low range contains open and close and that volume is not negative.
func (b Bar) Validate() error {
	if b.Time.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrBadBar)
	}
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value at %s", ErrBadBar, b.Time.Format(time.RFC3339))
		}
	}
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return fmt.Errorf("%w: non-positive price at %s", ErrBadBar, b.Time.Format(time.RFC3339))
	}
	if b.Low > b.High {
		return fmt.Errorf("%w: low %.6f above high %.6f at %s", ErrBadBar, b.Low, b.High, b.Time.Format(time.RFC3339))
	}
	if b.Open < b.Low || b.Open > b.High || b.Close < b.Low || b.Close > b.High {
		return fmt.Errorf("%w: open/close outside [low, high] at %s", ErrBadBar, b.Time.Format(time.RFC3339))
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume at %s", ErrBadBar, b.Time.Format(time.RFC3339))
	}
	return nil
}

// Contains reports whether price lies inside the bar's traded range.
func (b Bar) Contains(price float64) bool {
	return b.Low <= price && price <= b.High
}

// ValidateSeries checks every bar and requires strictly increasing timestamps.
func ValidateSeries(symbol string, bars []Bar) error {
	if symbol == "" {
		return fmt.Errorf("market: empty symbol")
	}
	if len(bars) == 0 {
		return fmt.Errorf("market: %s: no bars", symbol)
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("market: %s: bar %d: %w", symbol, i, err)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return fmt.Errorf("market: %s: bar %d: timestamps not strictly increasing (%s after %s)",
				symbol, i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// FilterRange returns the bars whose time lies in [from, to]. Zero bounds
// are open. The result shares the input's backing array.
func FilterRange(bars []Bar, from, to time.Time) []Bar {
	lo, hi := 0, len(bars)
	if !from.IsZero() {
		for lo < hi && bars[lo].Time.Before(from) {
			lo++
		}
	}
	if !to.IsZero() {
		for hi > lo && bars[hi-1].Time.After(to) {
			hi--
		}
	}
	return bars[lo:hi]
}
