package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database at path and applies Schema.
func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Record writes the run, its trades and its equity in one transaction.
func (j *SQLiteJournal) Record(ctx context.Context, e Entry) (err error) {
	if e.Run.RunID == "" {
		return fmt.Errorf("journal: run id is required")
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r := e.Run
	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(run_id, created, strategy, symbols, dataset, config, start_time, end_time,
		 steps, trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
		 win_rate, profit_factor, max_dd_pct, total_fees, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Strategy, strings.Join(r.Symbols, ","), r.Dataset, r.Config,
		r.Start.UTC(), r.End.UTC(), r.Steps, r.Trades, r.Wins, r.Losses,
		r.StartBalance, r.EndBalance, r.NetPL, r.ReturnPct,
		r.WinRate, r.ProfitFactor, r.MaxDDPct, r.TotalFees, strings.Join(r.Notes, "\n"),
	)
	if err != nil {
		return fmt.Errorf("journal: insert run %s: %w", r.RunID, err)
	}

	ts, err := tx.PrepareContext(ctx, `
		INSERT INTO trades
		(run_id, seq, time, symbol, side, quantity, price, notional, cash_before, cash_after, realized_pl, position_qty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ts.Close()
	for i, t := range e.Trades {
		if _, err = ts.ExecContext(ctx,
			r.RunID, i, t.Time.UTC(), t.Symbol, string(t.Side), t.Quantity, t.Price,
			t.Notional, t.CashBefore, t.CashAfter, t.RealizedPL, t.PositionQty,
		); err != nil {
			return fmt.Errorf("journal: insert trade %d: %w", i, err)
		}
	}

	es, err := tx.PrepareContext(ctx, `
		INSERT INTO equity (run_id, seq, time, equity, pnl, pnl_pct)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer es.Close()
	for i, row := range e.Equity {
		if _, err = es.ExecContext(ctx, r.RunID, i, row.Time.UTC(), row.Equity, row.PnL, row.PnLPct); err != nil {
			return fmt.Errorf("journal: insert equity %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// DeleteRun removes a run and, through the foreign keys, its rows.
func (j *SQLiteJournal) DeleteRun(ctx context.Context, runID string) error {
	res, err := j.db.ExecContext(ctx, `DELETE FROM backtest_runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return nil
}

// ExportBacktestOrg loads a run and renders it as an Org block.
func (j *SQLiteJournal) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	run, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	s, err := run.FormatOrg()
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return s, nil
	}
	return s + "\n** Trades\n" + FormatTradesOrg(trades), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
