package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/execution"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "BT-001", cfg.Account.ID)
	assert.Equal(t, "USD", cfg.Account.Currency)
	assert.Equal(t, 100_000.0, cfg.Account.Balance)
	assert.Equal(t, []string{"AAPL"}, cfg.Data.Symbols)
	assert.Equal(t, "buy-and-hold", cfg.Strategy.Name)
	assert.Equal(t, "none", cfg.Journal.Type)
	assert.False(t, cfg.Risk.Enabled)

	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "missing currency",
			modify:  func(c *Config) { c.Account.Currency = "" },
			wantErr: true,
			errMsg:  "account.currency is required",
		},
		{
			name:    "zero balance",
			modify:  func(c *Config) { c.Account.Balance = 0 },
			wantErr: true,
			errMsg:  "account.balance must be positive",
		},
		{
			name:    "no symbols",
			modify:  func(c *Config) { c.Data.Symbols = nil },
			wantErr: true,
			errMsg:  "data.symbols is required",
		},
		{
			name:    "symbol without file",
			modify:  func(c *Config) { c.Data.Symbols = append(c.Data.Symbols, "MSFT") },
			wantErr: true,
			errMsg:  "data.paths has no file for MSFT",
		},
		{
			name:    "bad start",
			modify:  func(c *Config) { c.Data.Start = "yesterday" },
			wantErr: true,
			errMsg:  "data.start",
		},
		{
			name: "end before start",
			modify: func(c *Config) {
				c.Data.Start = "2022-06-01"
				c.Data.End = "2022-01-01"
			},
			wantErr: true,
			errMsg:  "data.end is before data.start",
		},
		{
			name:    "negative slippage",
			modify:  func(c *Config) { c.Execution.SlippageBPS = -1 },
			wantErr: true,
			errMsg:  "execution.slippage_bps",
		},
		{
			name:    "fee rate too high",
			modify:  func(c *Config) { c.Execution.FeeRate = 1 },
			wantErr: true,
			errMsg:  "execution.fee_rate",
		},
		{
			name:    "bad fill price",
			modify:  func(c *Config) { c.Execution.FillPrice = "vwap" },
			wantErr: true,
			errMsg:  "execution.fill_price",
		},
		{
			name:    "bad avg cost rule",
			modify:  func(c *Config) { c.Portfolio.AvgCost = "fifo" },
			wantErr: true,
			errMsg:  "portfolio.avg_cost",
		},
		{
			name:    "missing strategy",
			modify:  func(c *Config) { c.Strategy.Name = "" },
			wantErr: true,
			errMsg:  "strategy.name is required",
		},
		{
			name:    "unknown strategy",
			modify:  func(c *Config) { c.Strategy.Name = "martingale" },
			wantErr: true,
			errMsg:  "unknown strategy: martingale",
		},
		{
			name:    "strategy symbol not loaded",
			modify:  func(c *Config) { c.Strategy.Symbol = "TSLA" },
			wantErr: true,
			errMsg:  "strategy.symbol TSLA",
		},
		{
			name: "csv journal without dir",
			modify: func(c *Config) {
				c.Journal.Type = "csv"
			},
			wantErr: true,
			errMsg:  "journal dir required",
		},
		{
			name: "sqlite journal without path",
			modify: func(c *Config) {
				c.Journal.Type = "sqlite"
			},
			wantErr: true,
			errMsg:  "journal db_path required",
		},
		{
			name:    "invalid journal type",
			modify:  func(c *Config) { c.Journal.Type = "postgres" },
			wantErr: true,
			errMsg:  "journal.type must be",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, ext := range []string{".yaml", ".json"} {
		t.Run(ext, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "backtest"+ext)

			cfg := Default()
			cfg.Data.Paths = map[string]string{"AAPL": "/data/AAPL.csv"}
			cfg.Strategy = StrategyConfig{
				Name:   "macross",
				Params: map[string]float64{"fast": 5, "slow": 20},
			}
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestParseResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bt.yaml")
	yml := `
account:
  currency: USD
  balance: 10000
data:
  symbols: [AAPL, MSFT]
  paths:
    AAPL: data/aapl.csv
    MSFT: /abs/msft.csv
strategy:
  name: momentum
  params:
    lookback: 10
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "data/aapl.csv"), cfg.Data.Paths["AAPL"])
	assert.Equal(t, "/abs/msft.csv", cfg.Data.Paths["MSFT"])
	// Params replace the defaults rather than merging with them.
	assert.Equal(t, map[string]float64{"lookback": 10}, cfg.Strategy.Params)
	assert.Equal(t, "AAPL", cfg.StrategySymbol())
	// Unset sections keep their defaults.
	assert.Equal(t, 5.0, cfg.Execution.SlippageBPS)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("account: [unclosed"), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("account:\n  balance: -5\n"), 0o644))
	_, err = LoadFromFile(invalid)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestDateRange(t *testing.T) {
	cfg := Default()
	cfg.Data.Start = "2022-01-03"
	cfg.Data.End = "2022-01-05"

	from, to, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2022, 1, 6, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), to)

	cfg.Data.Start, cfg.Data.End = "", "2022-01-05T12:00:00Z"
	from, to, err = cfg.DateRange()
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.Equal(t, time.Date(2022, 1, 5, 12, 0, 0, 0, time.UTC), to)
}

func TestOptions(t *testing.T) {
	cfg := Default()
	cfg.Execution = ExecutionConfig{SlippageBPS: 10, FeeRate: 0.001, FillPrice: "close"}

	opts, err := cfg.ExecutionOptions()
	require.NoError(t, err)
	m, err := execution.NewModel(opts...)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, m.Slippage(), 1e-12)
	assert.Equal(t, 0.001, m.FeeRate())
	assert.Equal(t, execution.FillAtClose, m.Reference())

	popts, err := cfg.PortfolioOptions()
	require.NoError(t, err)
	assert.Len(t, popts, 1)

	cfg.Risk.Enabled = true
	cfg.Risk.MinRR = 2
	p, enabled := cfg.RiskPolicy()
	assert.True(t, enabled)
	assert.Equal(t, 0.20, p.MaxPositionPct)
	assert.Equal(t, 2.0, p.MinRR)
}

func TestStrategyParamsIsCopy(t *testing.T) {
	cfg := Default()
	p := cfg.StrategyParams()
	p["cash_fraction"] = 0.1
	assert.Equal(t, 0.95, cfg.Strategy.Params["cash_fraction"])
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvInitialCash: "25000",
		EnvFeeRate:     "0.002",
		EnvJournalDB:   "/tmp/bt.sqlite",
		EnvSlippageBPS: " ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	applied, err := cfg.ApplyEnv(lookup)
	require.NoError(t, err)

	assert.Equal(t, []string{EnvFeeRate, EnvInitialCash, EnvJournalDB}, applied)
	assert.Equal(t, 25_000.0, cfg.Account.Balance)
	assert.Equal(t, 0.002, cfg.Execution.FeeRate)
	assert.Equal(t, 5.0, cfg.Execution.SlippageBPS)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
	assert.Equal(t, "/tmp/bt.sqlite", cfg.Journal.DBPath)

	env[EnvInitialCash] = "lots"
	_, err = Default().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvInitialCash)
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BACKTEST_TEST_ONLY_VAR=42\n"), 0o644))
	t.Setenv("BACKTEST_TEST_ONLY_VAR", "")
	os.Unsetenv("BACKTEST_TEST_ONLY_VAR")

	require.NoError(t, LoadEnv(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "42", os.Getenv("BACKTEST_TEST_ONLY_VAR"))

	// Nothing to load is not an error.
	assert.NoError(t, LoadEnv(filepath.Join(dir, "nope.env")))
}
