package journal

import (
	"time"

	"github.com/rustyeddy/backtester/portfolio"
)

func day(d int) time.Time {
	return time.Date(2022, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleEntry(runID string, created time.Time) Entry {
	trades := []portfolio.TradeRecord{
		{Time: day(1), Symbol: "AAPL", Side: portfolio.Buy, Quantity: 95, Price: 100, Notional: 9500, CashBefore: 10000, CashAfter: 500, PositionQty: 95},
		{Time: day(3), Symbol: "AAPL", Side: portfolio.Sell, Quantity: 95, Price: 90, Notional: 8550, CashBefore: 500, CashAfter: 9050, RealizedPL: -950},
	}
	eq := []portfolio.EquityPoint{{Time: day(1), Equity: 10000}, {Time: day(2), Equity: 10950}, {Time: day(3), Equity: 9050}}
	pnl := []portfolio.PnLPoint{{Time: day(1)}, {Time: day(2), PnL: 950, Pct: 9.5}, {Time: day(3), PnL: -1900, Pct: -17.35}}

	return Entry{
		Run: BacktestRun{
			RunID:        runID,
			Created:      created,
			Dataset:      "data/AAPL.csv",
			Strategy:     "buy-and-hold",
			Symbols:      []string{"AAPL"},
			Config:       []byte(`{"cash-fraction":0.95}`),
			Start:        day(1),
			End:          day(3),
			Steps:        3,
			Trades:       2,
			Losses:       1,
			StartBalance: 10000,
			EndBalance:   9050,
			NetPL:        -950,
			ReturnPct:    -9.5,
			MaxDDPct:     17.35,
			Notes:        []string{"first", "second"},
		},
		Trades: trades,
		Equity: EquityRows(eq, pnl),
	}
}
