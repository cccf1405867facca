package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/journal"
)

const aaplCSV = `Date,Open,High,Low,Close,Volume
2022-01-03,100,105,95,100,1000
2022-01-04,110,115,105,110,1000
2022-01-05,90,95,85,90,1000
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "AAPL.csv")
	require.NoError(t, os.WriteFile(path, []byte(aaplCSV), 0o644))

	cfg := config.Default()
	cfg.Account.Balance = 10_000
	cfg.Data = config.DataConfig{
		Symbols: []string{"AAPL"},
		Paths:   map[string]string{"AAPL": path},
	}
	cfg.Execution = config.ExecutionConfig{FillPrice: "open"}
	cfg.Journal = config.JournalConfig{
		Type:    "sqlite",
		DBPath:  filepath.Join(dir, "bt.sqlite"),
		OrgPath: filepath.Join(dir, "runs.org"),
	}
	return cfg
}

func TestBacktestRunJournalsRun(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	sum, err := backtestRun(context.Background(), &out, cfg, -1)
	require.NoError(t, err)

	assert.Equal(t, "9050.00", sum.FinalEquity.StringFixed(2))
	assert.Equal(t, 1, sum.Trades)
	assert.Contains(t, out.String(), "buy-and-hold")

	j, err := journal.NewSQLite(cfg.Journal.DBPath)
	require.NoError(t, err)
	defer j.Close()

	run, err := j.GetBacktestRun(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL.csv", run.Dataset)
	assert.InDelta(t, 9050, run.EndBalance, 1e-9)
	assert.Contains(t, string(run.Config), "buy-and-hold")

	trades, err := j.ListTradesByRunID(context.Background(), sum.RunID)
	require.NoError(t, err)
	assert.Len(t, trades, 1)

	org, err := os.ReadFile(cfg.Journal.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), sum.RunID)
	assert.Contains(t, string(org), "** Trades")
}

func TestBacktestRunRejectsBadConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Strategy.Name = "nope"

	_, err := backtestRun(context.Background(), &bytes.Buffer{}, cfg, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestBacktestCompare(t *testing.T) {
	cfg := testConfig(t)
	cfg.Journal.Type = "csv"
	cfg.Journal.Dir = filepath.Join(t.TempDir(), "journal")
	var out bytes.Buffer

	sums, err := backtestCompare(context.Background(), &out, cfg, []string{"buy-and-hold", "noop"})
	require.NoError(t, err)
	require.Len(t, sums, 2)

	assert.Equal(t, "9050.00", sums[0].FinalEquity.StringFixed(2))
	assert.Equal(t, "10000.00", sums[1].FinalEquity.StringFixed(2))
	assert.Contains(t, out.String(), "Strategy Comparison")

	for _, name := range []string{"runs.csv", "trades.csv", "equity.csv"} {
		assert.FileExists(t, filepath.Join(cfg.Journal.Dir, name))
	}
	org, err := os.ReadFile(cfg.Journal.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(org), sums[0].RunID)
	assert.Contains(t, string(org), sums[1].RunID)
}

func TestDatasetName(t *testing.T) {
	cfg := config.Default()
	cfg.Data.Symbols = []string{"MSFT", "AAPL"}
	cfg.Data.Paths = map[string]string{"AAPL": "/x/aapl.csv", "MSFT": "/y/msft.csv"}
	assert.Equal(t, "aapl.csv,msft.csv", datasetName(cfg))
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bt.yaml")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "init", "-o", path})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Created default configuration")

	cfg, err := config.Parse(path)
	require.NoError(t, err)
	def := config.Default()
	assert.Equal(t, def.Account, cfg.Account)
	assert.Equal(t, def.Strategy, cfg.Strategy)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data/AAPL_2022.csv"), cfg.Data.Paths["AAPL"])
}
