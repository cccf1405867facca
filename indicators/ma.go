package indicators

import (
	"errors"
	"fmt"
)

var ErrNotEnoughData = errors.New("indicators: not enough data")

func checkPeriod(period, have, need int) error {
	if period <= 0 {
		return fmt.Errorf("indicators: period must be positive, got %d", period)
	}
	if have < need {
		return fmt.Errorf("%w: need %d, got %d", ErrNotEnoughData, need, have)
	}
	return nil
}

// SMA is the mean of the last period values.
func SMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(period, len(values), period); err != nil {
		return 0, err
	}

	sum := 0.0
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return sum / float64(period), nil
}

// EMA seeds with the SMA of the first period values and smooths the rest
// with multiplier 2/(period+1).
func EMA(values []float64, period int) (float64, error) {
	if err := checkPeriod(period, len(values), period); err != nil {
		return 0, err
	}

	multiplier := 2.0 / float64(period+1)

	sma := 0.0
	for _, v := range values[:period] {
		sma += v
	}
	ema := sma / float64(period)

	for _, v := range values[period:] {
		ema = (v-ema)*multiplier + ema
	}
	return ema, nil
}

// Momentum is the fractional change of the last value against the value
// lookback steps earlier.
func Momentum(values []float64, lookback int) (float64, error) {
	if err := checkPeriod(lookback, len(values), lookback+1); err != nil {
		return 0, err
	}

	last := values[len(values)-1]
	old := values[len(values)-1-lookback]
	if old == 0 {
		return 0, fmt.Errorf("indicators: momentum base price is zero")
	}
	return (last - old) / old, nil
}
