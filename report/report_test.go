package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/portfolio"
)

func day(d int) time.Time {
	return time.Date(2022, 1, d, 0, 0, 0, 0, time.UTC)
}

func mark(pf *portfolio.Portfolio, d int, px float64) {
	pf.MarkToMarket(day(d), map[string]float64{"AAPL": px})
}

// roundTrip buys 95 at 100, sells 45 at 90 and the last 50 at 120.
func roundTrip(t *testing.T) backtest.Result {
	t.Helper()

	pf, err := portfolio.New(10_000)
	require.NoError(t, err)

	pf.ApplyFill(day(1), "AAPL", 95, 100)
	mark(pf, 1, 100)
	mark(pf, 2, 110)
	pf.ApplyFill(day(3), "AAPL", -45, 90)
	mark(pf, 3, 90)
	pf.ApplyFill(day(4), "AAPL", -50, 120)
	mark(pf, 4, 120)

	return backtest.Result{
		RunID:     "RUN1",
		Strategy:  "test",
		Symbols:   []string{"AAPL"},
		Start:     day(1),
		End:       day(4),
		Steps:     4,
		Portfolio: pf,
		Equity:    pf.EquityHistory(),
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	s := Summarize(roundTrip(t))

	assert.Equal(t, "10000.00", money(s.InitialEquity))
	assert.Equal(t, "10550.00", money(s.FinalEquity))
	assert.Equal(t, "550.00", money(s.TotalReturn))
	assert.InDelta(t, 5.5, s.ReturnPct, 1e-9)
	assert.InDelta(t, 1900.0/10950.0*100, s.MaxDrawdown, 1e-9)

	assert.Equal(t, 3, s.Trades)
	assert.Equal(t, 1, s.Buys)
	assert.Equal(t, 2, s.Sells)
	assert.Equal(t, 1, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.InDelta(t, 50.0, s.WinRate, 1e-9)
	assert.Equal(t, "1000.00", money(s.GrossProfit))
	assert.Equal(t, "450.00", money(s.GrossLoss))
	assert.InDelta(t, 1000.0/450.0, s.ProfitFactor, 1e-9)
	assert.Equal(t, "550.00", money(s.RealizedPL))

	assert.Equal(t, 2, s.PositiveDays)
	assert.Equal(t, 1, s.NegativeDays)
	assert.Equal(t, day(4), s.BestDay.Time)
	assert.Equal(t, day(3), s.WorstDay.Time)
	assert.Empty(t, s.Holdings)
}

func TestSummarizeHoldings(t *testing.T) {
	t.Parallel()

	pf, err := portfolio.New(1_000)
	require.NoError(t, err)
	pf.ApplyFill(day(1), "AAPL", 5, 100)
	mark(pf, 1, 110)

	s := Summarize(backtest.Result{Portfolio: pf})
	require.Len(t, s.Holdings, 1)
	h := s.Holdings[0]
	assert.Equal(t, "AAPL", h.Symbol)
	assert.Equal(t, 110.0, h.Mark)
	assert.Equal(t, 550.0, h.Value)
	assert.Equal(t, 50.0, h.UnrealizedPL)
	assert.Zero(t, s.ProfitFactor)
}

func TestProfitFactorWithoutLosses(t *testing.T) {
	t.Parallel()

	pf, err := portfolio.New(1_000)
	require.NoError(t, err)
	pf.ApplyFill(day(1), "AAPL", 5, 100)
	pf.ApplyFill(day(2), "AAPL", -5, 110)

	s := Summarize(backtest.Result{Portfolio: pf})
	assert.True(t, math.IsInf(s.ProfitFactor, 1))
	assert.Zero(t, s.Run(day(5), "", nil).ProfitFactor)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	curve := func(vals ...float64) []portfolio.EquityPoint {
		out := make([]portfolio.EquityPoint, len(vals))
		for i, v := range vals {
			out[i] = portfolio.EquityPoint{Time: day(i + 1), Equity: v}
		}
		return out
	}

	tests := []struct {
		name string
		eq   []portfolio.EquityPoint
		want float64
	}{
		{"empty", nil, 0},
		{"rising", curve(100, 110, 120), 0},
		{"single dip", curve(100, 80, 120), 20},
		{"later deeper", curve(100, 50, 200, 80), 60},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, MaxDrawdown(tt.eq), 1e-9)
		})
	}
}

func TestRankedAndBest(t *testing.T) {
	t.Parallel()

	rows := []Summary{
		{Strategy: "a", ReturnPct: 5, MaxDrawdown: 10},
		{Strategy: "b", ReturnPct: 12, MaxDrawdown: 30},
		{Strategy: "c", ReturnPct: -2, MaxDrawdown: 4},
	}

	ranked := Ranked(rows)
	assert.Equal(t, "b", ranked[0].Strategy)
	assert.Equal(t, "c", ranked[2].Strategy)
	assert.Equal(t, "a", rows[0].Strategy, "input untouched")

	best, safest, ok := Best(rows)
	require.True(t, ok)
	assert.Equal(t, "b", best.Strategy)
	assert.Equal(t, "c", safest.Strategy)

	_, _, ok = Best(nil)
	assert.False(t, ok)
}

func TestEntry(t *testing.T) {
	t.Parallel()

	res := roundTrip(t)
	s := Summarize(res)
	e := Entry(s, res, day(9), "data/AAPL.csv", []byte(`{}`))

	assert.Equal(t, "RUN1", e.Run.RunID)
	assert.Equal(t, day(9), e.Run.Created)
	assert.Equal(t, "data/AAPL.csv", e.Run.Dataset)
	assert.Equal(t, 10550.0, e.Run.EndBalance)
	assert.Equal(t, 550.0, e.Run.NetPL)
	assert.Equal(t, 4, e.Run.Steps)
	assert.Len(t, e.Trades, 3)
	require.Len(t, e.Equity, 4)
	assert.Equal(t, 1500.0, e.Equity[3].PnL)
}

func TestPrintSummary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintSummary(&buf, Summarize(roundTrip(t)))
	out := buf.String()

	assert.Contains(t, out, "Run ID:        RUN1")
	assert.Contains(t, out, "Period:        2022-01-01 .. 2022-01-04 (4 bars)")
	assert.Contains(t, out, "End Equity:    10550.00")
	assert.Contains(t, out, "Return:        5.50%")
	assert.Contains(t, out, "Win Rate:      50.00%")
	assert.Contains(t, out, "Profit Factor: 2.22")
	assert.Contains(t, out, "Best Day:      2022-01-04 1500.00")
	assert.NotContains(t, out, "Open Positions")
}

func TestPrintTrades(t *testing.T) {
	t.Parallel()

	trades := roundTrip(t).Portfolio.TradeHistory()

	var buf bytes.Buffer
	PrintTrades(&buf, trades, 0)
	assert.Contains(t, buf.String(), "BUY")
	assert.Contains(t, buf.String(), "9500.00")

	buf.Reset()
	PrintTrades(&buf, trades, 1)
	assert.Contains(t, buf.String(), "(showing last 1 of 3 trades)")
	assert.NotContains(t, buf.String(), "BUY")
}

func TestPrintComparison(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	PrintComparison(&buf, []Summary{
		{Strategy: "slow", ReturnPct: 1, MaxDrawdown: 2},
		{Strategy: "fast", ReturnPct: 9, MaxDrawdown: 8},
	})
	out := buf.String()

	assert.Contains(t, out, "Strategy Comparison")
	assert.Contains(t, out, "Best performer:  fast (9.00%)")
	assert.Contains(t, out, "Lowest drawdown: slow (2.00%)")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("fast")), bytes.Index(buf.Bytes(), []byte("slow")))
}
