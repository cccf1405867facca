package risk

import "math"

// Inputs describes a stop-based sizing request.
type Inputs struct {
	Equity     float64
	RiskPct    float64 // 0.01
	EntryPrice float64
	StopPrice  float64
}

type Result struct {
	Shares       float64
	StopDistance float64
	RiskAmount   float64
}

// Calculate sizes a position so that hitting the stop loses RiskPct of
// equity. Shares are whole; a zero stop distance sizes nothing.
func Calculate(in Inputs) Result {
	dist := math.Abs(in.EntryPrice - in.StopPrice)
	amt := in.Equity * in.RiskPct

	res := Result{StopDistance: dist, RiskAmount: amt}
	if dist > 0 && amt > 0 {
		res.Shares = math.Floor(amt / dist)
	}
	return res
}

// SharesForCash is the whole number of shares fraction of cash buys at
// price.
func SharesForCash(cash, fraction, price float64) float64 {
	if cash <= 0 || fraction <= 0 || price <= 0 {
		return 0
	}
	return math.Floor(cash * fraction / price)
}

// CapQuantity trims an order of qty units so the resulting position in
// the symbol is worth at most maxFraction of equity at price. Orders that
// reduce exposure pass through unchanged; a non-positive maxFraction
// disables the cap. The result is 0 when the position is already at or
// above the limit.
func CapQuantity(qty, price, held, equity, maxFraction float64) float64 {
	if maxFraction <= 0 || price <= 0 || qty == 0 {
		return qty
	}
	target := held + qty
	if math.Abs(target) <= math.Abs(held) {
		return qty
	}

	limit := math.Floor(maxFraction * math.Max(equity, 0) / price)
	if math.Abs(target) <= limit {
		return qty
	}
	capped := math.Copysign(limit, target) - held
	if capped == 0 || math.Signbit(capped) != math.Signbit(qty) {
		return 0
	}
	return capped
}
