package risk

import (
	"fmt"
	"math"
)

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRisk    float64
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Has reports whether the decision carries a violation with code.
func (d Decision) Has(code string) bool {
	for _, v := range d.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (d Decision) String() string {
	if d.Allowed {
		return "allowed"
	}
	s := ""
	for i, v := range d.Violations {
		if i > 0 {
			s += "; "
		}
		s += v.Code + ": " + v.Msg
	}
	return s
}

// increasesExposure reports whether qty moves the holding further from flat.
func increasesExposure(held, qty float64) bool {
	return math.Abs(held+qty) > math.Abs(held)
}

// Evaluate checks intent against p. Orders that only reduce exposure are
// never blocked by the exposure or drawdown limits.
func Evaluate(p Policy, intent TradeIntent, acct AccountSnapshot) Decision {
	d := Decision{Allowed: true}

	if intent.Qty == 0 {
		d.add("NO_UNITS", "units must be non-zero")
		return d
	}
	if intent.Entry <= 0 {
		d.add("NO_ENTRY", "entry price must be positive")
		return d
	}

	value := math.Abs(intent.Qty) * intent.Entry
	if p.MinTradeValue > 0 && value < p.MinTradeValue {
		d.add("TRADE_TOO_SMALL",
			fmt.Sprintf("trade value %.2f below minimum %.2f", value, p.MinTradeValue))
	}

	if increasesExposure(acct.PositionQty, intent.Qty) {
		if p.MaxDrawdownPct > 0 && acct.Drawdown >= p.MaxDrawdownPct {
			d.add("DRAWDOWN_LIMIT",
				fmt.Sprintf("drawdown %.2f%% at or beyond max %.2f%%",
					100*acct.Drawdown, 100*p.MaxDrawdownPct))
		}
		posValue := math.Abs(acct.PositionQty+intent.Qty) * intent.Entry
		if p.MaxPositionPct > 0 && posValue > p.MaxPositionPct*acct.Equity {
			d.add("POSITION_TOO_LARGE",
				fmt.Sprintf("position %.2f exceeds %.2f%% of equity %.2f",
					posValue, 100*p.MaxPositionPct, acct.Equity))
		}
	}

	if intent.Stop > 0 {
		d.PlannedRisk = PlannedRisk(intent.Qty, intent.Entry, intent.Stop)
		d.PlannedRiskPct = RiskPct(d.PlannedRisk, acct.Equity)
		if p.MaxRiskPct > 0 && d.PlannedRiskPct > p.MaxRiskPct {
			d.add("RISK_TOO_HIGH",
				fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%",
					100*d.PlannedRiskPct, 100*p.MaxRiskPct))
		}
		if intent.TakeProfit > 0 {
			d.PlannedRR = RR(intent.Entry, intent.Stop, intent.TakeProfit)
			if p.MinRR > 0 && d.PlannedRR < p.MinRR {
				d.add("RR_TOO_LOW",
					fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
			}
		}
	}

	return d
}
