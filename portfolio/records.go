package portfolio

import "time"

// Side is the direction of a recorded trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeRecord is the immutable audit entry appended for every fill.
// Quantity is unsigned; Side carries the direction.
type TradeRecord struct {
	Time        time.Time
	Symbol      string
	Side        Side
	Quantity    float64
	Price       float64
	Notional    float64
	CashBefore  float64
	CashAfter   float64
	RealizedPL  float64
	PositionQty float64
}

// SignedQty returns the quantity with buys positive and sells negative.
func (t TradeRecord) SignedQty() float64 {
	if t.Side == Sell {
		return -t.Quantity
	}
	return t.Quantity
}

// EquityPoint is the portfolio value at the end of one step.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}

// PnLPoint is one step's change in equity, absolute and in percent of the
// previous step's equity.
type PnLPoint struct {
	Time time.Time
	PnL  float64
	Pct  float64
}
