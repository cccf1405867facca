package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query journaled backtest runs",
	Long: `Query and export backtest runs stored in a SQLite journal.

Subcommands:
  list       - List recent runs
  show       - Show a run with its trades as Org text
  export-org - Write a run to an Org file
  delete     - Remove a run and its trades and equity

Examples:
  backtester journal list -d backtest.sqlite
  backtester journal show 01HV3Z...
  backtester journal export-org 01HV3Z... -o run.org`,
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runJournalList,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and its trades",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalExportCmd = &cobra.Command{
	Use:   "export-org <run-id>",
	Short: "Export a run as an Org file",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalExport,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

var (
	journalDBPath string
	journalLimit  int
	journalOutput string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalExportCmd)
	journalCmd.AddCommand(journalDeleteCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtest.sqlite", "path to SQLite journal DB (or "+config.EnvJournalDB+")")
	journalListCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
	journalExportCmd.Flags().StringVarP(&journalOutput, "output", "o", "", "output file (default <run-id>.org)")
}

func openSQLite(cmd *cobra.Command) (*journal.SQLiteJournal, error) {
	path := journalDBPath
	if !cmd.Flags().Changed("db") {
		if v, ok := os.LookupEnv(config.EnvJournalDB); ok && v != "" {
			path = v
		}
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalList(cmd *cobra.Command, args []string) error {
	j, err := openSQLite(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tCREATED\tSTRATEGY\tDATASET\tTRADES\tRETURN %\tMAX DD %")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%.2f\t%.2f\n",
			r.RunID, r.Created.Local().Format(time.DateTime), r.Strategy, r.Dataset, r.Trades, r.ReturnPct, r.MaxDDPct)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openSQLite(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := j.ExportBacktestOrg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), s)
	return nil
}

func runJournalExport(cmd *cobra.Command, args []string) error {
	j, err := openSQLite(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	s, err := j.ExportBacktestOrg(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := journalOutput
	if out == "" {
		out = args[0] + ".org"
	}
	if err := os.WriteFile(out, []byte(s), 0o644); err != nil {
		return fmt.Errorf("write org: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %s to %s\n", args[0], out)
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	j, err := openSQLite(cmd)
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
	return nil
}
