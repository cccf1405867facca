// Package portfolio is the simulation's accounting ledger: cash, positions,
// the trade log and the per-step equity history.
package portfolio

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var ErrNonPositiveCash = errors.New("portfolio: initial cash must be positive")

// Portfolio owns cash, positions and the append-only trade and equity logs
// for one run. It is not safe for concurrent use; a new run needs a new
// Portfolio.
type Portfolio struct {
	initial   float64
	cash      float64
	fees      float64
	peak      float64
	rule      AvgCostRule
	positions map[string]Position
	marks     map[string]float64

	trades []TradeRecord
	equity []EquityPoint
	pnl    []PnLPoint
}

type Option func(*Portfolio)

// WithAvgCostRule selects how fills update average cost.
func WithAvgCostRule(r AvgCostRule) Option {
	return func(p *Portfolio) { p.rule = r }
}

func New(cash float64, opts ...Option) (*Portfolio, error) {
	if !(cash > 0) || math.IsInf(cash, 0) {
		return nil, fmt.Errorf("%w: %v", ErrNonPositiveCash, cash)
	}
	p := &Portfolio{
		initial:   cash,
		cash:      cash,
		peak:      cash,
		rule:      AvgCostDirectional,
		positions: make(map[string]Position),
		marks:     make(map[string]float64),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rule != AvgCostDirectional && p.rule != AvgCostBuyBlend {
		return nil, fmt.Errorf("portfolio: unknown avg cost rule %s", p.rule)
	}
	return p, nil
}

// ApplyFill books a fill of qty units of symbol at price, executed at ts.
// Cash moves by exactly -(qty*price); fees are charged separately through
// DeductFees.
func (p *Portfolio) ApplyFill(ts time.Time, symbol string, qty, price float64) TradeRecord {
	before := p.cash
	p.cash -= qty * price

	pos, realized := p.rule.apply(p.positions[symbol], qty, price)
	if pos.IsFlat() {
		delete(p.positions, symbol)
	} else {
		p.positions[symbol] = pos
	}

	side := Buy
	if qty < 0 {
		side = Sell
	}
	rec := TradeRecord{
		Time:        ts,
		Symbol:      symbol,
		Side:        side,
		Quantity:    math.Abs(qty),
		Price:       price,
		Notional:    math.Abs(qty * price),
		CashBefore:  before,
		CashAfter:   p.cash,
		RealizedPL:  realized,
		PositionQty: pos.Qty,
	}
	p.trades = append(p.trades, rec)
	return rec
}

// DeductFees charges a step's aggregate fees against cash.
func (p *Portfolio) DeductFees(fees float64) {
	if fees == 0 {
		return
	}
	p.cash -= fees
	p.fees += fees
}

// MarkToMarket values every held position, appends the step's EquityPoint
// and P&L and returns the equity. A held symbol missing from prices is
// valued at its last mark, or at average cost if it was never marked.
func (p *Portfolio) MarkToMarket(ts time.Time, prices map[string]float64) float64 {
	equity := p.cash
	for _, sym := range p.symbols() {
		pos := p.positions[sym]
		px, ok := prices[sym]
		if ok {
			p.marks[sym] = px
		} else if px, ok = p.marks[sym]; !ok {
			px = pos.AvgCost
		}
		equity += pos.Value(px)
	}
	for sym, px := range prices {
		if _, held := p.positions[sym]; !held {
			p.marks[sym] = px
		}
	}

	var pnl, pct float64
	if n := len(p.equity); n > 0 {
		prev := p.equity[n-1].Equity
		pnl = equity - prev
		if prev > 0 {
			pct = pnl / prev * 100
		}
	}

	if equity > p.peak {
		p.peak = equity
	}
	p.equity = append(p.equity, EquityPoint{Time: ts, Equity: equity})
	p.pnl = append(p.pnl, PnLPoint{Time: ts, PnL: pnl, Pct: pct})
	return equity
}

// symbols returns held symbols in sorted order so equity sums are
// reproducible.
func (p *Portfolio) symbols() []string {
	out := make([]string, 0, len(p.positions))
	for sym := range p.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (p *Portfolio) Cash() float64        { return p.cash }
func (p *Portfolio) InitialCash() float64 { return p.initial }
func (p *Portfolio) TotalFees() float64   { return p.fees }
func (p *Portfolio) Rule() AvgCostRule    { return p.rule }

// Position returns the holding in symbol, or the flat position.
func (p *Portfolio) Position(symbol string) Position {
	return p.positions[symbol]
}

// Positions returns a copy of all non-flat positions.
func (p *Portfolio) Positions() map[string]Position {
	out := make(map[string]Position, len(p.positions))
	for sym, pos := range p.positions {
		out[sym] = pos
	}
	return out
}

// Symbols lists held symbols in sorted order.
func (p *Portfolio) Symbols() []string {
	return p.symbols()
}

// LastMark returns the most recent mark price seen for symbol.
func (p *Portfolio) LastMark(symbol string) (float64, bool) {
	px, ok := p.marks[symbol]
	return px, ok
}

// Equity returns the most recently marked equity, or the initial cash
// before the first mark.
func (p *Portfolio) Equity() float64 {
	if n := len(p.equity); n > 0 {
		return p.equity[n-1].Equity
	}
	return p.initial
}

// PeakEquity is the highest marked equity so far, starting from the
// initial cash.
func (p *Portfolio) PeakEquity() float64 { return p.peak }

// Drawdown is the fractional decline of the latest equity from its peak.
func (p *Portfolio) Drawdown() float64 {
	if p.peak <= 0 {
		return 0
	}
	return (p.peak - p.Equity()) / p.peak
}

func (p *Portfolio) TradeHistory() []TradeRecord {
	out := make([]TradeRecord, len(p.trades))
	copy(out, p.trades)
	return out
}

func (p *Portfolio) EquityHistory() []EquityPoint {
	out := make([]EquityPoint, len(p.equity))
	copy(out, p.equity)
	return out
}

func (p *Portfolio) DailyPnL() []PnLPoint {
	out := make([]PnLPoint, len(p.pnl))
	copy(out, p.pnl)
	return out
}
