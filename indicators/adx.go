package indicators

import (
	"math"

	"github.com/rustyeddy/backtester/market"
)

// ADX implements Wilder's Average Directional Index (trend strength).
//
//	adx := indicators.NewADX(14)
//	val, ok := adx.Update(bar)
//	if ok && val >= 20 { ... }
type ADX struct {
	Period int

	prev     market.Bar
	havePrev bool

	// Wilder-smoothed values after warmup
	tr  float64
	pdm float64
	mdm float64

	adx   float64
	dxSum float64

	// bars processed, including the seed
	count int
	ready bool
}

func NewADX(period int) *ADX {
	return &ADX{Period: period}
}

func (a *ADX) Value() float64 { return a.adx }
func (a *ADX) Ready() bool    { return a.ready }

func (a *ADX) Reset() {
	*a = ADX{Period: a.Period}
}

// Update consumes the next bar and returns (adx, ready).
//
// The first bar only seeds the previous bar. The next Period bars seed the
// smoothed true range and directional movement, and the Period DX values
// after that seed the ADX itself: 2*Period+1 bars in total.
func (a *ADX) Update(b market.Bar) (float64, bool) {
	if a.Period <= 0 {
		return 0, false
	}
	if !a.havePrev {
		a.prev = b
		a.havePrev = true
		a.count = 1
		return 0, false
	}

	upMove := b.High - a.prev.High
	downMove := a.prev.Low - b.Low

	var pdm, mdm float64
	if upMove > downMove && upMove > 0 {
		pdm = upMove
	}
	if downMove > upMove && downMove > 0 {
		mdm = downMove
	}

	tr := trueRange(b, a.prev)
	a.prev = b
	a.count++

	p := float64(a.Period)
	if a.count <= a.Period+1 {
		a.tr += tr
		a.pdm += pdm
		a.mdm += mdm
		if a.count == a.Period+1 {
			a.tr /= p
			a.pdm /= p
			a.mdm /= p
		}
		return 0, false
	}

	a.tr = (a.tr*(p-1) + tr) / p
	a.pdm = (a.pdm*(p-1) + pdm) / p
	a.mdm = (a.mdm*(p-1) + mdm) / p

	var dx float64
	if a.tr > 0 {
		pdi := 100 * a.pdm / a.tr
		mdi := 100 * a.mdm / a.tr
		if den := pdi + mdi; den > 0 {
			dx = 100 * math.Abs(pdi-mdi) / den
		}
	}

	if !a.ready {
		a.dxSum += dx
		if a.count == 2*a.Period+1 {
			a.adx = a.dxSum / p
			a.ready = true
			return a.adx, true
		}
		return 0, false
	}

	a.adx = (a.adx*(p-1) + dx) / p
	return a.adx, true
}
