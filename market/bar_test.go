package market

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2022, 1, d, 0, 0, 0, 0, time.UTC)
}

func bar(d int, o, h, l, c float64) Bar {
	return Bar{Time: day(d), Open: o, High: h, Low: l, Close: c, Volume: 1000}
}

func TestBarValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{"valid", bar(1, 100, 110, 95, 105), false},
		{"missing time", Bar{Open: 1, High: 1, Low: 1, Close: 1}, true},
		{"zero price", bar(1, 0, 110, 95, 105), true},
		{"low above high", bar(1, 100, 90, 95, 92), true},
		{"close outside range", bar(1, 100, 110, 95, 120), true},
		{"nan", bar(1, math.NaN(), 110, 95, 105), true},
		{"negative volume", Bar{Time: day(1), Open: 1, High: 1, Low: 1, Close: 1, Volume: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadBar)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSeriesRequiresIncreasingTime(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSeries("AAPL", []Bar{bar(1, 1, 1, 1, 1), bar(2, 1, 1, 1, 1)}))

	err := ValidateSeries("AAPL", []Bar{bar(2, 1, 1, 1, 1), bar(2, 1, 1, 1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strictly increasing")

	assert.Error(t, ValidateSeries("AAPL", nil))
	assert.Error(t, ValidateSeries("", []Bar{bar(1, 1, 1, 1, 1)}))
}

func TestFilterRange(t *testing.T) {
	t.Parallel()

	bars := []Bar{bar(1, 1, 1, 1, 1), bar(2, 1, 1, 1, 1), bar(3, 1, 1, 1, 1), bar(4, 1, 1, 1, 1)}

	got := FilterRange(bars, day(2), day(3))
	require.Len(t, got, 2)
	assert.Equal(t, day(2), got[0].Time)
	assert.Equal(t, day(3), got[1].Time)

	assert.Len(t, FilterRange(bars, time.Time{}, time.Time{}), 4)
	assert.Len(t, FilterRange(bars, day(5), time.Time{}), 0)
}

func TestBarContains(t *testing.T) {
	t.Parallel()

	b := bar(1, 104, 108, 102, 106)
	assert.True(t, b.Contains(105))
	assert.True(t, b.Contains(102))
	assert.True(t, b.Contains(108))
	assert.False(t, b.Contains(120))
	assert.False(t, b.Contains(101.99))
}
