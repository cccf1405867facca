// Package journal persists finished backtests: the run summary, its trade
// log and its equity history.
package journal

import (
	"context"
	"time"

	"github.com/rustyeddy/backtester/portfolio"
)

// EquityRow is one step of a run's equity history with its P&L.
type EquityRow struct {
	Time   time.Time
	Equity float64
	PnL    float64
	PnLPct float64
}

// EquityRows zips an equity history with the matching P&L points. Missing
// P&L points are left zero.
func EquityRows(eq []portfolio.EquityPoint, pnl []portfolio.PnLPoint) []EquityRow {
	out := make([]EquityRow, len(eq))
	for i, pt := range eq {
		out[i] = EquityRow{Time: pt.Time, Equity: pt.Equity}
		if i < len(pnl) {
			out[i].PnL = pnl[i].PnL
			out[i].PnLPct = pnl[i].Pct
		}
	}
	return out
}

// Entry is a complete run ready to be recorded.
type Entry struct {
	Run    BacktestRun
	Trades []portfolio.TradeRecord
	Equity []EquityRow
}

type Journal interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}
