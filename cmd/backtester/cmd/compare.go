package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/report"
)

var compareCmd = &cobra.Command{
	Use:   "compare [strategy...]",
	Short: "Run several strategies over the same data",
	Long: `Compare runs each named strategy on its own portfolio over the same bars
and prints them side by side, best return first. Every strategy gets the
configured symbol and params; parameters a strategy does not use are
ignored.

Examples:
  backtester compare -c backtest.yaml buy-and-hold macross momentum
  backtester compare --data AAPL=data/AAPL_2022.csv --db runs.sqlite`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	addRunFlags(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return err
	}
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = []string{"buy-and-hold", "dynamic", "macross", "momentum"}
	}
	_, err = backtestCompare(cmd.Context(), cmd.OutOrStdout(), cfg, names)
	return err
}

func backtestCompare(ctx context.Context, w io.Writer, cfg *config.Config, names []string) ([]report.Summary, error) {
	s, err := newSession(cfg, logger)
	if err != nil {
		return nil, err
	}
	strats, err := s.build(names...)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "Comparing %s on %s\n\n", strings.Join(names, ", "), s.dataset)
	results, err := s.runner.Compare(ctx, strats...)
	if err != nil {
		return nil, fmt.Errorf("compare: %w", err)
	}

	sums := make([]report.Summary, len(results))
	for i, res := range results {
		sums[i] = report.Summarize(res)
	}
	report.PrintComparison(w, sums)

	if err := s.record(ctx, sums, results); err != nil {
		return sums, err
	}
	return sums, nil
}
