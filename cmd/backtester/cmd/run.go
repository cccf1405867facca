package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/report"
	"github.com/rustyeddy/backtester/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one strategy over historical bars",
	Long: `Run replays OHLCV bars from CSV files through a strategy and prints a
performance report.

Settings come from the --config file (or the defaults), then environment
variables, then flags.

Examples:
  backtester run -c backtest.yaml
  backtester run --data AAPL=data/AAPL_2022.csv -s macross --param fast=10 --param slow=30
  backtester run -c backtest.yaml --risk --db backtest.sqlite --org runs.org`,
	RunE: runBacktest,
}

var (
	runData        map[string]string
	runStrategy    string
	runSymbol      string
	runParams      map[string]string
	runCash        float64
	runFeeRate     float64
	runSlippageBPS float64
	runFill        string
	runFrom        string
	runTo          string
	runRisk        bool
	runDBPath      string
	runCSVDir      string
	runOrgPath     string
	runTrades      int
)

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name ("+joinNames()+")")
	runCmd.Flags().IntVar(&runTrades, "trades", 20, "print the last N trades (0 for none, -1 for all)")
}

// addRunFlags registers the flags shared by run and compare.
func addRunFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringToStringVar(&runData, "data", nil, "SYMBOL=path CSV files, replacing data in the config")
	f.StringVar(&runSymbol, "symbol", "", "symbol the strategy trades (default first data symbol)")
	f.StringToStringVarP(&runParams, "param", "p", nil, "strategy parameter key=value")
	f.Float64VarP(&runCash, "cash", "b", 0, "initial cash")
	f.Float64Var(&runFeeRate, "fee-rate", 0, "fee per fill as a fraction of notional")
	f.Float64Var(&runSlippageBPS, "slippage-bps", 0, "market order slippage in basis points")
	f.StringVar(&runFill, "fill", "", "market order fill price (open or close)")
	f.StringVar(&runFrom, "from", "", "first date to replay (YYYY-MM-DD)")
	f.StringVar(&runTo, "to", "", "last date to replay (YYYY-MM-DD)")
	f.BoolVar(&runRisk, "risk", false, "screen orders with the risk policy")
	f.StringVarP(&runDBPath, "db", "d", "", "journal runs to this SQLite DB")
	f.StringVar(&runCSVDir, "csv-dir", "", "journal runs as CSV files in this directory")
	f.StringVar(&runOrgPath, "org", "", "write the runs as Org notes to this file")
}

func joinNames() string {
	return strings.Join(strategies.Names(), ", ")
}

// applyRunFlags copies explicitly set flags over cfg.
func applyRunFlags(c *cobra.Command, cfg *config.Config) error {
	changed := c.Flags().Changed

	if changed("data") {
		cfg.Data.Symbols = cfg.Data.Symbols[:0]
		cfg.Data.Paths = make(map[string]string, len(runData))
		for sym, path := range runData {
			cfg.Data.Symbols = append(cfg.Data.Symbols, sym)
			cfg.Data.Paths[sym] = path
		}
		sort.Strings(cfg.Data.Symbols)
		if cfg.Strategy.Symbol != "" && cfg.Data.Paths[cfg.Strategy.Symbol] == "" {
			cfg.Strategy.Symbol = ""
		}
	}
	if changed("strategy") {
		cfg.Strategy.Name = runStrategy
	}
	if changed("symbol") {
		cfg.Strategy.Symbol = runSymbol
	}
	if changed("param") {
		if cfg.Strategy.Params == nil {
			cfg.Strategy.Params = make(map[string]float64, len(runParams))
		}
		for k, v := range runParams {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("--param %s: %w", k, err)
			}
			cfg.Strategy.Params[k] = f
		}
	}
	if changed("cash") {
		cfg.Account.Balance = runCash
	}
	if changed("fee-rate") {
		cfg.Execution.FeeRate = runFeeRate
	}
	if changed("slippage-bps") {
		cfg.Execution.SlippageBPS = runSlippageBPS
	}
	if changed("fill") {
		cfg.Execution.FillPrice = runFill
	}
	if changed("from") {
		cfg.Data.Start = runFrom
	}
	if changed("to") {
		cfg.Data.End = runTo
	}
	if changed("risk") {
		cfg.Risk.Enabled = runRisk
	}
	if changed("db") {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDBPath
	}
	if changed("csv-dir") {
		cfg.Journal.Type = "csv"
		cfg.Journal.Dir = runCSVDir
	}
	if changed("org") {
		cfg.Journal.OrgPath = runOrgPath
	}
	return nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}
	_, err = backtestRun(cmd.Context(), cmd.OutOrStdout(), cfg, runTrades)
	return err
}

// backtestRun runs cfg's strategy, prints the report and records the run.
func backtestRun(ctx context.Context, w io.Writer, cfg *config.Config, trades int) (report.Summary, error) {
	s, err := newSession(cfg, logger)
	if err != nil {
		return report.Summary{}, err
	}
	strats, err := s.build(cfg.Strategy.Name)
	if err != nil {
		return report.Summary{}, err
	}

	res, err := s.runner.Run(ctx, strats[0])
	if err != nil {
		return report.Summary{}, fmt.Errorf("run: %w", err)
	}
	sum := report.Summarize(res)

	report.PrintSummary(w, sum)
	if trades != 0 {
		limit := trades
		if limit < 0 {
			limit = 0
		}
		report.PrintTrades(w, res.Portfolio.TradeHistory(), limit)
	}

	if err := s.record(ctx, []report.Summary{sum}, []backtest.Result{res}); err != nil {
		return sum, err
	}
	return sum, nil
}
