package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/portfolio"
)

var ErrRunNotFound = errors.New("journal: run not found")

const runColumns = `run_id, created, strategy, symbols, dataset, config, start_time, end_time,
	steps, trades, wins, losses, start_balance, end_balance, net_pl, return_pct,
	win_rate, profit_factor, max_dd_pct, total_fees, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var (
		r              BacktestRun
		symbols, notes string
	)
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &symbols, &r.Dataset, &r.Config, &r.Start, &r.End,
		&r.Steps, &r.Trades, &r.Wins, &r.Losses, &r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct,
		&r.WinRate, &r.ProfitFactor, &r.MaxDDPct, &r.TotalFees, &notes,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	if symbols != "" {
		r.Symbols = strings.Split(symbols, ",")
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// GetBacktestRun returns a single run by id.
func (j *SQLiteJournal) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
	}
	return r, err
}

// ListRuns returns runs newest first, at most limit of them when limit > 0.
func (j *SQLiteJournal) ListRuns(ctx context.Context, limit int) ([]BacktestRun, error) {
	q := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's trade log in execution order.
func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]portfolio.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, symbol, side, quantity, price, notional, cash_before, cash_after, realized_pl, position_qty
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portfolio.TradeRecord
	for rows.Next() {
		var (
			rec  portfolio.TradeRecord
			side string
		)
		if err := rows.Scan(
			&rec.Time,
			&rec.Symbol,
			&side,
			&rec.Quantity,
			&rec.Price,
			&rec.Notional,
			&rec.CashBefore,
			&rec.CashAfter,
			&rec.RealizedPL,
			&rec.PositionQty,
		); err != nil {
			return nil, err
		}
		rec.Side = portfolio.Side(side)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns a run's equity history in step order.
func (j *SQLiteJournal) ListEquityByRunID(ctx context.Context, runID string) ([]EquityRow, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, equity, pnl, pnl_pct
		FROM equity
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityRow
	for rows.Next() {
		var row EquityRow
		if err := rows.Scan(&row.Time, &row.Equity, &row.PnL, &row.PnLPct); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
