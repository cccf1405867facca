package risk

// Policy holds the limits applied to new orders. Zero disables a limit.
type Policy struct {
	// Exposure
	MaxPositionPct float64 // 0.20 of equity in a single symbol
	MinTradeValue  float64 // 100 in account currency

	// Circuit breaker: no new exposure once equity is this far below its peak.
	MaxDrawdownPct float64 // 0.25

	// Stop-based checks, used when an intent carries a stop.
	MaxRiskPct float64 // 0.01
	MinRR      float64 // 1.5
}

// DefaultPolicy mirrors the limits the CLI ships with.
func DefaultPolicy() Policy {
	return Policy{
		MaxPositionPct: 0.20,
		MinTradeValue:  100,
		MaxDrawdownPct: 0.25,
	}
}

type TradeIntent struct {
	Symbol string
	Qty    float64

	Entry      float64
	Stop       float64
	TakeProfit float64
}

type AccountSnapshot struct {
	Equity      float64
	Cash        float64
	Drawdown    float64 // fraction below peak equity
	PositionQty float64 // current holding in the intent's symbol
}
