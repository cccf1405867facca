package indicators

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleMAStreaming(t *testing.T) {
	t.Parallel()
	bars := createTestBars()

	t.Run("basic functionality", func(t *testing.T) {
		ma := NewMA(3)
		assert.Equal(t, "MA(3)", ma.Name())
		assert.Equal(t, 3, ma.Warmup())
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())

		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.False(t, ma.Ready())

		ma.Update(bars[2])
		require.True(t, ma.Ready())
		assert.InDelta(t, (102.0+105.0+106.0)/3.0, ma.Value(), 1e-9)

		ma.Update(bars[3])
		assert.InDelta(t, (105.0+106.0+108.0)/3.0, ma.Value(), 1e-9)
	})

	t.Run("reset", func(t *testing.T) {
		ma := NewMA(2)
		ma.Update(bars[0])
		ma.Update(bars[1])
		assert.True(t, ma.Ready())

		ma.Reset()
		assert.False(t, ma.Ready())
		assert.Equal(t, 0.0, ma.Value())
	})

	t.Run("matches batch calculation", func(t *testing.T) {
		ma := NewMA(3)
		for _, b := range bars {
			ma.Update(b)
		}
		want, err := SMA(closesOf(bars), 3)
		require.NoError(t, err)
		assert.InDelta(t, want, ma.Value(), 1e-9)
	})
}

func TestExponentialMAStreaming(t *testing.T) {
	t.Parallel()
	bars := createTestBars()

	t.Run("basic functionality", func(t *testing.T) {
		ema := NewEMA(3)
		assert.Equal(t, "EMA(3)", ema.Name())
		assert.False(t, ema.Ready())

		ema.Update(bars[0])
		ema.Update(bars[1])
		assert.False(t, ema.Ready())

		ema.Update(bars[2])
		require.True(t, ema.Ready())
		seed := (102.0 + 105.0 + 106.0) / 3.0
		assert.InDelta(t, seed, ema.Value(), 1e-9)

		ema.Update(bars[3])
		// multiplier = 2/(3+1)
		assert.InDelta(t, (108.0-seed)*0.5+seed, ema.Value(), 1e-9)
	})

	t.Run("reset", func(t *testing.T) {
		ema := NewEMA(2)
		ema.Update(bars[0])
		ema.Update(bars[1])
		ema.Reset()
		assert.False(t, ema.Ready())
		assert.Equal(t, 0.0, ema.Value())
	})

	t.Run("matches batch calculation", func(t *testing.T) {
		ema := NewEMA(5)
		for _, b := range bars {
			ema.Update(b)
		}
		want, err := EMA(closesOf(bars), 5)
		require.NoError(t, err)
		assert.InDelta(t, want, ema.Value(), 1e-9)
	})
}

func TestATRStreaming(t *testing.T) {
	t.Parallel()

	atr := NewATR(2)
	assert.Equal(t, "ATR(2)", atr.Name())
	assert.Equal(t, 3, atr.Warmup())

	atr.Update(market.Bar{High: 10, Low: 8, Close: 9})
	atr.Update(market.Bar{High: 11, Low: 9, Close: 10})
	assert.False(t, atr.Ready())

	atr.Update(market.Bar{High: 14, Low: 10, Close: 13})
	require.True(t, atr.Ready())
	// TRs 2 and 4
	assert.InDelta(t, 3.0, atr.Value(), 1e-9)

	atr.Update(market.Bar{High: 14, Low: 13, Close: 13.5})
	// (3*1 + 1)/2
	assert.InDelta(t, 2.0, atr.Value(), 1e-9)

	atr.Reset()
	assert.False(t, atr.Ready())
}

func TestADXTrendingSeries(t *testing.T) {
	t.Parallel()

	adx := NewADX(3)
	var (
		val   float64
		ready bool
		n     int
	)
	for i := 0; i < 20; i++ {
		px := 100 + float64(i)*2
		val, ready = adx.Update(market.Bar{Open: px, High: px + 1, Low: px - 1, Close: px + 0.5})
		if !ready {
			n++
		}
	}

	require.True(t, ready)
	assert.Equal(t, 2*3, n, "ready on bar 2*Period+1")
	// A steady uptrend has no minus DM, so DX and ADX are 100.
	assert.InDelta(t, 100.0, val, 1e-9)
	assert.Equal(t, val, adx.Value())

	adx.Reset()
	assert.False(t, adx.Ready())
	assert.Equal(t, 3, adx.Period)
}
