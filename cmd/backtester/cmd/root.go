package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rustyeddy/backtester/config"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A bar-by-bar backtesting engine for trading strategies",
	Long: `Backtester replays daily OHLCV bars through a trading strategy and
reports how the strategy would have performed.

It provides tools for:
  - Running a strategy over one or more symbols loaded from CSV
  - Comparing strategies over the same data
  - Journaling runs, trades and equity curves to SQLite or CSV
  - Exporting runs as Org mode notes

Environment variables (also read from .env):
  BACKTEST_INITIAL_CASH, BACKTEST_FEE_RATE, BACKTEST_SLIPPAGE_BPS,
  BACKTEST_JOURNAL_DB`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnv(envFiles...); err != nil {
			return err
		}
		l, err := newLogger(verbose)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	cfgFile  string
	verbose  bool
	envFiles = []string{".env"}

	logger = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// newLogger logs warnings as JSON to stderr, or everything in the
// development format when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.Sampling = nil
	return cfg.Build()
}
