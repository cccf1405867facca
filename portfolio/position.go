package portfolio

import (
	"fmt"
	"math"
	"strings"
)

// qtyEpsilon treats float residue left by offsetting fills as flat.
const qtyEpsilon = 1e-9

// Position is a net holding in one symbol. AvgCost is only meaningful while
// Qty is non-zero; the zero value is the flat position.
type Position struct {
	Qty     float64
	AvgCost float64
}

func (p Position) IsFlat() bool { return isZero(p.Qty) }

// Value is the position's market value at price.
func (p Position) Value(price float64) float64 {
	return p.Qty * price
}

// UnrealizedPL is the open profit or loss at price.
func (p Position) UnrealizedPL(price float64) float64 {
	return p.Qty * (price - p.AvgCost)
}

func isZero(q float64) bool {
	return math.Abs(q) < qtyEpsilon
}

func sign(q float64) int {
	switch {
	case q > 0:
		return 1
	case q < 0:
		return -1
	}
	return 0
}

// AvgCostRule decides how a fill changes a position's average cost.
type AvgCostRule int8

const (
	// AvgCostDirectional blends only when a fill adds to the current
	// direction, keeps the cost on reductions and resets it to the fill
	// price when the position flips sign.
	AvgCostDirectional AvgCostRule = iota

	// AvgCostBuyBlend blends on every buy that leaves a non-zero position
	// and keeps the cost on every sell, including sells that flip long to
	// short.
	AvgCostBuyBlend
)

func (r AvgCostRule) String() string {
	switch r {
	case AvgCostDirectional:
		return "directional"
	case AvgCostBuyBlend:
		return "buy-blend"
	default:
		return fmt.Sprintf("avgcost(%d)", int8(r))
	}
}

func ParseAvgCostRule(s string) (AvgCostRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "directional":
		return AvgCostDirectional, nil
	case "buy-blend", "buyblend", "legacy":
		return AvgCostBuyBlend, nil
	default:
		return AvgCostDirectional, fmt.Errorf("portfolio: unknown avg cost rule %q (want directional or buy-blend)", s)
	}
}

// apply returns the position after a fill of qty at price together with
// the profit realized on any quantity the fill closed.
func (r AvgCostRule) apply(p Position, qty, price float64) (Position, float64) {
	newQty := p.Qty + qty
	if isZero(newQty) {
		newQty = 0
	}

	// Realized P/L is measured against the cost of the closed quantity.
	var realized float64
	if !p.IsFlat() && sign(qty) != sign(p.Qty) {
		closed := math.Min(math.Abs(qty), math.Abs(p.Qty))
		realized = float64(sign(p.Qty)) * closed * (price - p.AvgCost)
	}

	if newQty == 0 {
		return Position{}, realized
	}
	if p.IsFlat() {
		return Position{Qty: newQty, AvgCost: price}, realized
	}

	switch r {
	case AvgCostBuyBlend:
		if qty > 0 {
			return Position{Qty: newQty, AvgCost: (p.AvgCost*p.Qty + price*qty) / newQty}, realized
		}
		return Position{Qty: newQty, AvgCost: p.AvgCost}, realized

	default:
		switch {
		case sign(qty) == sign(p.Qty):
			return Position{Qty: newQty, AvgCost: (p.AvgCost*p.Qty + price*qty) / newQty}, realized
		case sign(newQty) == sign(p.Qty):
			return Position{Qty: newQty, AvgCost: p.AvgCost}, realized
		default:
			return Position{Qty: newQty, AvgCost: price}, realized
		}
	}
}
