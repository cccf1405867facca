package journal

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	runsHeader   = []string{"run_id", "created", "strategy", "symbols", "start", "end", "steps", "trades", "wins", "losses", "start_balance", "end_balance", "net_pl", "return_pct", "win_rate", "max_dd_pct", "total_fees"}
	tradesHeader = []string{"run_id", "time", "symbol", "side", "quantity", "price", "notional", "cash_before", "cash_after", "realized_pl", "position_qty"}
	equityHeader = []string{"run_id", "time", "equity", "pnl", "pnl_pct"}
)

// CSVJournal appends runs to runs.csv, trades.csv and equity.csv in a
// directory. Files are created with a header row on first use.
type CSVJournal struct {
	dir string
}

func NewCSV(dir string) (*CSVJournal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &CSVJournal{dir: dir}, nil
}

func (j *CSVJournal) Dir() string { return j.dir }

func (j *CSVJournal) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r := e.Run
	if r.RunID == "" {
		return fmt.Errorf("journal: run id is required")
	}

	if err := j.append("runs.csv", runsHeader, [][]string{{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		r.Strategy,
		strings.Join(r.Symbols, " "),
		r.Start.UTC().Format(time.RFC3339),
		r.End.UTC().Format(time.RFC3339),
		strconv.Itoa(r.Steps),
		strconv.Itoa(r.Trades),
		strconv.Itoa(r.Wins),
		strconv.Itoa(r.Losses),
		f(r.StartBalance),
		f(r.EndBalance),
		f(r.NetPL),
		f(r.ReturnPct),
		f(r.WinRate),
		f(r.MaxDDPct),
		f(r.TotalFees),
	}}); err != nil {
		return err
	}

	trades := make([][]string, len(e.Trades))
	for i, t := range e.Trades {
		trades[i] = []string{
			r.RunID,
			t.Time.UTC().Format(time.RFC3339),
			t.Symbol,
			string(t.Side),
			f(t.Quantity),
			f(t.Price),
			f(t.Notional),
			f(t.CashBefore),
			f(t.CashAfter),
			f(t.RealizedPL),
			f(t.PositionQty),
		}
	}
	if err := j.append("trades.csv", tradesHeader, trades); err != nil {
		return err
	}

	equity := make([][]string, len(e.Equity))
	for i, row := range e.Equity {
		equity[i] = []string{
			r.RunID,
			row.Time.UTC().Format(time.RFC3339),
			f(row.Equity),
			f(row.PnL),
			f(row.PnLPct),
		}
	}
	return j.append("equity.csv", equityHeader, equity)
}

func (j *CSVJournal) append(name string, header []string, rows [][]string) (err error) {
	path := filepath.Join(j.dir, name)
	fresh := false
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		fresh = true
	}

	fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := fh.Close(); err == nil {
			err = cerr
		}
	}()

	return writeCSV(fh, fresh, header, rows)
}

func writeCSV(w io.Writer, withHeader bool, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if withHeader {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("journal: write csv: %w", err)
	}
	return nil
}

func (j *CSVJournal) Close() error { return nil }

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

var (
	_ Journal = (*SQLiteJournal)(nil)
	_ Journal = (*CSVJournal)(nil)
)
