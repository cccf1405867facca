package report

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/backtester/portfolio"
)

const rule = "=================================================="

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func moneyF(x float64) string { return decimal.NewFromFloat(x).StringFixed(2) }

func factor(x float64) string {
	if math.IsInf(x, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.2f", x)
}

func PrintSummary(w io.Writer, s Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, rule)

	if s.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", s.RunID)
	}
	fmt.Fprintf(w, "Strategy:      %s\n", s.Strategy)
	fmt.Fprintf(w, "Symbols:       %s\n", strings.Join(s.Symbols, ", "))
	fmt.Fprintf(w, "Period:        %s .. %s (%d bars)\n",
		s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly), s.Steps)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %s\n", money(s.InitialEquity))
	fmt.Fprintf(w, "End Equity:    %s\n", money(s.FinalEquity))
	fmt.Fprintf(w, "Net P/L:       %s\n", money(s.TotalReturn))
	fmt.Fprintf(w, "Return:        %.2f%%\n", s.ReturnPct)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", s.MaxDrawdown)
	fmt.Fprintf(w, "Final Cash:    %s\n", money(s.FinalCash))
	fmt.Fprintf(w, "Fees:          %s\n", money(s.TotalFees))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d (%d buys, %d sells)\n", s.Trades, s.Buys, s.Sells)
	fmt.Fprintf(w, "Wins:          %d\n", s.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", s.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", s.WinRate)
	fmt.Fprintf(w, "Realized P/L:  %s\n", money(s.RealizedPL))
	if s.ProfitFactor != 0 {
		fmt.Fprintf(w, "Profit Factor: %s\n", factor(s.ProfitFactor))
	}
	if s.Rejected > 0 {
		fmt.Fprintf(w, "Rejected:      %d orders\n", s.Rejected)
	}

	if s.Steps > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Daily P&L")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Positive Days: %d\n", s.PositiveDays)
		fmt.Fprintf(w, "Negative Days: %d\n", s.NegativeDays)
		fmt.Fprintf(w, "Best Day:      %s %s (%.2f%%)\n",
			s.BestDay.Time.Format(time.DateOnly), moneyF(s.BestDay.PnL), s.BestDay.Pct)
		fmt.Fprintf(w, "Worst Day:     %s %s (%.2f%%)\n",
			s.WorstDay.Time.Format(time.DateOnly), moneyF(s.WorstDay.PnL), s.WorstDay.Pct)
	}

	if len(s.Holdings) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Open Positions")
		fmt.Fprintln(w, "--------------------------------------------------")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "Symbol\tQty\tAvg Cost\tMark\tValue\tUnrealized\t")
		for _, h := range s.Holdings {
			fmt.Fprintf(tw, "%s\t%g\t%s\t%s\t%s\t%s\t\n",
				h.Symbol, h.Qty, moneyF(h.AvgCost), moneyF(h.Mark), moneyF(h.Value), moneyF(h.UnrealizedPL))
		}
		tw.Flush()
	}

	fmt.Fprintln(w)
}

// PrintTrades lists the trade log. A positive limit prints only the last
// limit trades.
func PrintTrades(w io.Writer, trades []portfolio.TradeRecord, limit int) {
	if limit > 0 && len(trades) > limit {
		fmt.Fprintf(w, "(showing last %d of %d trades)\n", limit, len(trades))
		trades = trades[len(trades)-limit:]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Time\tSide\tSymbol\tQty\tPrice\tNotional\tCash\tRealized\t")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\t%s\t%s\t%s\t\n",
			t.Time.Format(time.DateOnly), t.Side, t.Symbol, t.Quantity,
			moneyF(t.Price), moneyF(t.Notional), moneyF(t.CashAfter), moneyF(t.RealizedPL))
	}
	tw.Flush()
}

// PrintComparison prints one row per run, best return first, followed by
// the best performer and the lowest drawdown.
func PrintComparison(w io.Writer, rows []Summary) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, " Strategy Comparison")
	fmt.Fprintln(w, rule)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Strategy\tFinal Equity\tReturn %\tMax DD %\tTrades\tWin %\tFees\t")
	for _, r := range Ranked(rows) {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%d\t%.1f\t%s\t\n",
			r.Strategy, money(r.FinalEquity), r.ReturnPct, r.MaxDrawdown, r.Trades, r.WinRate, money(r.TotalFees))
	}
	tw.Flush()

	best, safest, ok := Best(rows)
	if !ok {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Best performer:  %s (%.2f%%)\n", best.Strategy, best.ReturnPct)
	fmt.Fprintf(w, "Lowest drawdown: %s (%.2f%%)\n", safest.Strategy, safest.MaxDrawdown)
}
