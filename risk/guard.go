package risk

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/execution"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

var ErrRejected = errors.New("risk: order rejected")

// Guard returns a ContextFactory whose orders are screened against p
// before they reach the engine. Buys that would breach MaxPositionPct are
// trimmed to the limit; orders failing any other check are rejected with
// ErrRejected.
func Guard(p Policy, log *zap.Logger) backtest.ContextFactory {
	if log == nil {
		log = zap.NewNop()
	}
	return func(st *market.State, pf *portfolio.Portfolio, submit backtest.Submitter, now func() time.Time) backtest.Context {
		g := &guard{policy: p, state: st, pf: pf, next: submit, now: now, log: log}
		return backtest.NewContext(st, pf, g.submit, now)
	}
}

type guard struct {
	policy Policy
	state  *market.State
	pf     *portfolio.Portfolio
	next   backtest.Submitter
	now    func() time.Time
	log    *zap.Logger
}

func (g *guard) submit(o execution.Order) error {
	bar, ok := g.state.Current(o.Symbol)
	if !ok {
		// Let the engine report the unknown symbol or missing bar.
		return g.next(o)
	}

	entry := bar.Close
	if o.Kind == execution.Limit && o.LimitPrice > 0 {
		entry = o.LimitPrice
	}
	held := g.pf.Position(o.Symbol).Qty
	equity := g.pf.Equity()

	if qty := CapQuantity(o.Qty, entry, held, equity, g.policy.MaxPositionPct); qty != o.Qty {
		if qty == 0 {
			return fmt.Errorf("%w: %s already at max position size", ErrRejected, o.Symbol)
		}
		g.log.Debug("order capped",
			zap.Time("time", g.now()),
			zap.String("symbol", o.Symbol),
			zap.Float64("requested", o.Qty),
			zap.Float64("qty", qty),
		)
		o.Qty = qty
	}

	d := Evaluate(g.policy, TradeIntent{Symbol: o.Symbol, Qty: o.Qty, Entry: entry}, AccountSnapshot{
		Equity:      equity,
		Cash:        g.pf.Cash(),
		Drawdown:    g.pf.Drawdown(),
		PositionQty: held,
	})
	if !d.Allowed {
		return fmt.Errorf("%w: %s %s", ErrRejected, o.Symbol, d)
	}
	return g.next(o)
}
