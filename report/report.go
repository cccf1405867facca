// Package report turns a finished run into performance statistics and
// prints them.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/portfolio"
)

// Holding is an open position valued at its last mark.
type Holding struct {
	Symbol       string
	Qty          float64
	AvgCost      float64
	Mark         float64
	Value        float64
	UnrealizedPL float64
}

// Summary is the performance report of one run.
type Summary struct {
	RunID    string
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time
	Steps    int
	Rejected int

	InitialEquity decimal.Decimal
	FinalEquity   decimal.Decimal
	FinalCash     decimal.Decimal
	TotalReturn   decimal.Decimal
	ReturnPct     float64
	MaxDrawdown   float64 // percent, peak to trough
	TotalFees     decimal.Decimal

	Trades       int
	Buys         int
	Sells        int
	Wins         int // trades that realized a gain
	Losses       int // trades that realized a loss
	WinRate      float64
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal // positive
	ProfitFactor float64
	RealizedPL   decimal.Decimal

	PositiveDays int
	NegativeDays int
	BestDay      portfolio.PnLPoint
	WorstDay     portfolio.PnLPoint

	Holdings []Holding
}

// Summarize computes the report for a finished run.
func Summarize(res backtest.Result) Summary {
	pf := res.Portfolio
	s := Summary{
		RunID:    res.RunID,
		Strategy: res.Strategy,
		Symbols:  res.Symbols,
		Start:    res.Start,
		End:      res.End,
		Steps:    res.Steps,
		Rejected: res.Rejected,
	}
	if pf == nil {
		return s
	}

	s.InitialEquity = decimal.NewFromFloat(pf.InitialCash())
	s.FinalEquity = decimal.NewFromFloat(pf.Equity())
	s.FinalCash = decimal.NewFromFloat(pf.Cash())
	s.TotalFees = decimal.NewFromFloat(pf.TotalFees())
	s.TotalReturn = s.FinalEquity.Sub(s.InitialEquity)
	if !s.InitialEquity.IsZero() {
		s.ReturnPct = s.TotalReturn.Div(s.InitialEquity).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}

	eq := res.Equity
	if eq == nil {
		eq = pf.EquityHistory()
	}
	s.MaxDrawdown = MaxDrawdown(eq)

	tradeStats(&s, pf.TradeHistory())
	dayStats(&s, pf.DailyPnL())
	s.Holdings = holdings(pf)
	return s
}

func tradeStats(s *Summary, trades []portfolio.TradeRecord) {
	s.Trades = len(trades)
	for _, t := range trades {
		if t.Side == portfolio.Buy {
			s.Buys++
		} else {
			s.Sells++
		}

		pl := decimal.NewFromFloat(t.RealizedPL)
		s.RealizedPL = s.RealizedPL.Add(pl)
		switch pl.Sign() {
		case 1:
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(pl)
		case -1:
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(pl.Neg())
		}
	}

	if closed := s.Wins + s.Losses; closed > 0 {
		s.WinRate = 100 * float64(s.Wins) / float64(closed)
	}
	if s.GrossLoss.IsPositive() {
		s.ProfitFactor = s.GrossProfit.Div(s.GrossLoss).InexactFloat64()
	} else if s.GrossProfit.IsPositive() {
		s.ProfitFactor = math.Inf(1)
	}
}

// dayStats skips the first point, whose P&L is zero by construction.
func dayStats(s *Summary, pnl []portfolio.PnLPoint) {
	for i, p := range pnl {
		if i == 0 {
			continue
		}
		switch {
		case p.PnL > 0:
			s.PositiveDays++
		case p.PnL < 0:
			s.NegativeDays++
		}
		if i == 1 || p.PnL > s.BestDay.PnL {
			s.BestDay = p
		}
		if i == 1 || p.PnL < s.WorstDay.PnL {
			s.WorstDay = p
		}
	}
}

func holdings(pf *portfolio.Portfolio) []Holding {
	syms := pf.Symbols()
	out := make([]Holding, 0, len(syms))
	for _, sym := range syms {
		pos := pf.Position(sym)
		mark, ok := pf.LastMark(sym)
		if !ok {
			mark = pos.AvgCost
		}
		out = append(out, Holding{
			Symbol:       sym,
			Qty:          pos.Qty,
			AvgCost:      pos.AvgCost,
			Mark:         mark,
			Value:        pos.Value(mark),
			UnrealizedPL: pos.UnrealizedPL(mark),
		})
	}
	return out
}

// MaxDrawdown is the largest peak-to-trough decline of the equity curve,
// in percent of the peak.
func MaxDrawdown(eq []portfolio.EquityPoint) float64 {
	var peak, worst float64
	for i, pt := range eq {
		if i == 0 || pt.Equity > peak {
			peak = pt.Equity
		}
		if peak > 0 {
			if dd := (peak - pt.Equity) / peak * 100; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// Ranked orders summaries by return, best first. Ties keep input order.
func Ranked(rows []Summary) []Summary {
	out := append([]Summary(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReturnPct > out[j].ReturnPct })
	return out
}

// Best returns the highest-return and the lowest-drawdown summaries.
func Best(rows []Summary) (best, safest Summary, ok bool) {
	if len(rows) == 0 {
		return Summary{}, Summary{}, false
	}
	best, safest = rows[0], rows[0]
	for _, r := range rows[1:] {
		if r.ReturnPct > best.ReturnPct {
			best = r
		}
		if r.MaxDrawdown < safest.MaxDrawdown {
			safest = r
		}
	}
	return best, safest, true
}

// Run converts a summary into the journal's run record.
func (s Summary) Run(created time.Time, dataset string, config []byte) journal.BacktestRun {
	pf := s.ProfitFactor
	if math.IsInf(pf, 0) {
		pf = 0
	}
	return journal.BacktestRun{
		RunID:        s.RunID,
		Created:      created,
		Dataset:      dataset,
		Strategy:     s.Strategy,
		Symbols:      s.Symbols,
		Config:       config,
		Start:        s.Start,
		End:          s.End,
		Steps:        s.Steps,
		Trades:       s.Trades,
		Wins:         s.Wins,
		Losses:       s.Losses,
		StartBalance: s.InitialEquity.InexactFloat64(),
		EndBalance:   s.FinalEquity.InexactFloat64(),
		NetPL:        s.TotalReturn.InexactFloat64(),
		ReturnPct:    s.ReturnPct,
		WinRate:      s.WinRate,
		ProfitFactor: pf,
		MaxDDPct:     s.MaxDrawdown,
		TotalFees:    s.TotalFees.InexactFloat64(),
	}
}

// Entry bundles the summary with the run's logs for a journal.
func Entry(s Summary, res backtest.Result, created time.Time, dataset string, config []byte) journal.Entry {
	e := journal.Entry{Run: s.Run(created, dataset, config)}
	if res.Portfolio != nil {
		e.Trades = res.Portfolio.TradeHistory()
		e.Equity = journal.EquityRows(res.Portfolio.EquityHistory(), res.Portfolio.DailyPnL())
	}
	return e
}
