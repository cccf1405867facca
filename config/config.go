// Package config loads and validates backtest configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/execution"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
)

// Config represents a complete backtest configuration.
type Config struct {
	Account   AccountConfig   `json:"account" yaml:"account"`
	Data      DataConfig      `json:"data" yaml:"data"`
	Execution ExecutionConfig `json:"execution" yaml:"execution"`
	Portfolio PortfolioConfig `json:"portfolio" yaml:"portfolio"`
	Risk      RiskConfig      `json:"risk" yaml:"risk"`
	Strategy  StrategyConfig  `json:"strategy" yaml:"strategy"`
	Journal   JournalConfig   `json:"journal" yaml:"journal"`
}

type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"` // initial cash
}

// DataConfig names one CSV file per symbol and an optional inclusive date
// range.
type DataConfig struct {
	Symbols []string          `json:"symbols" yaml:"symbols"`
	Paths   map[string]string `json:"paths" yaml:"paths"`
	Start   string            `json:"start,omitempty" yaml:"start,omitempty"` // "2022-01-01"
	End     string            `json:"end,omitempty" yaml:"end,omitempty"`
}

type ExecutionConfig struct {
	SlippageBPS float64 `json:"slippage_bps" yaml:"slippage_bps"`
	FeeRate     float64 `json:"fee_rate" yaml:"fee_rate"`
	FillPrice   string  `json:"fill_price,omitempty" yaml:"fill_price,omitempty"` // "open" or "close"
}

type PortfolioConfig struct {
	AvgCost string `json:"avg_cost,omitempty" yaml:"avg_cost,omitempty"` // "directional" or "buy-blend"
}

type RiskConfig struct {
	Enabled        bool    `json:"enabled" yaml:"enabled"`
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
	MinTradeValue  float64 `json:"min_trade_value" yaml:"min_trade_value"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	MaxRiskPct     float64 `json:"max_risk_pct,omitempty" yaml:"max_risk_pct,omitempty"`
	MinRR          float64 `json:"min_rr,omitempty" yaml:"min_rr,omitempty"`
}

type StrategyConfig struct {
	Name   string             `json:"name" yaml:"name"`
	Symbol string             `json:"symbol,omitempty" yaml:"symbol,omitempty"` // defaults to the first data symbol
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`
}

type JournalConfig struct {
	Type    string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	Dir     string `json:"dir,omitempty" yaml:"dir,omitempty"`
	DBPath  string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrgPath string `json:"org_path,omitempty" yaml:"org_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file and validates it.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Parse reads path over Default without validating. Relative data paths
// are resolved against the file's directory.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Maps decode by merging, so start them empty.
	cfg := Default()
	cfg.Data.Paths = nil
	cfg.Strategy.Params = nil

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	base := filepath.Dir(path)
	for sym, p := range cfg.Data.Paths {
		if p != "" && !filepath.IsAbs(p) {
			cfg.Data.Paths[sym] = filepath.Join(base, p)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}

	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols is required")
	}
	for _, sym := range c.Data.Symbols {
		if c.Data.Paths[sym] == "" {
			return fmt.Errorf("data.paths has no file for %s", sym)
		}
	}
	from, to, err := c.DateRange()
	if err != nil {
		return err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return fmt.Errorf("data.end is before data.start")
	}

	if _, err := c.ExecutionOptions(); err != nil {
		return err
	}
	if _, err := c.PortfolioOptions(); err != nil {
		return err
	}

	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if strategies.GetStrategy(c.Strategy.Name) == nil {
		return fmt.Errorf("unknown strategy: %s", c.Strategy.Name)
	}
	if sym := c.Strategy.Symbol; sym != "" && c.Data.Paths[sym] == "" {
		return fmt.Errorf("strategy.symbol %s is not in data.symbols", sym)
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.Dir == "" {
			return fmt.Errorf("journal dir required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// DateRange parses data.start and data.end. A date-only end covers the
// whole day. Unset bounds are zero.
func (c *Config) DateRange() (from, to time.Time, err error) {
	if s := c.Data.Start; s != "" {
		if from, err = market.ParseTime(s); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.start: %w", err)
		}
	}
	if s := c.Data.End; s != "" {
		if to, err = market.ParseTime(s); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("data.end: %w", err)
		}
		if len(strings.TrimSpace(s)) == len(time.DateOnly) {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return from, to, nil
}

// DataPaths returns the configured files of data.symbols.
func (c *Config) DataPaths() map[string]string {
	out := make(map[string]string, len(c.Data.Symbols))
	for _, sym := range c.Data.Symbols {
		out[sym] = c.Data.Paths[sym]
	}
	return out
}

// StrategySymbol is strategy.symbol, or the first data symbol.
func (c *Config) StrategySymbol() string {
	if c.Strategy.Symbol != "" {
		return c.Strategy.Symbol
	}
	if len(c.Data.Symbols) > 0 {
		return c.Data.Symbols[0]
	}
	return ""
}

func (c *Config) ExecutionOptions() ([]execution.Option, error) {
	e := c.Execution
	if e.SlippageBPS < 0 || e.SlippageBPS >= 10_000 {
		return nil, fmt.Errorf("execution.slippage_bps must be in [0, 10000)")
	}
	if e.FeeRate < 0 || e.FeeRate >= 1 {
		return nil, fmt.Errorf("execution.fee_rate must be in [0, 1)")
	}
	ref, err := execution.ParseReference(e.FillPrice)
	if err != nil {
		return nil, fmt.Errorf("execution.fill_price: %w", err)
	}
	return []execution.Option{
		execution.WithSlippage(execution.BPS(e.SlippageBPS)),
		execution.WithFeeRate(e.FeeRate),
		execution.WithReference(ref),
	}, nil
}

func (c *Config) PortfolioOptions() ([]portfolio.Option, error) {
	rule, err := portfolio.ParseAvgCostRule(c.Portfolio.AvgCost)
	if err != nil {
		return nil, fmt.Errorf("portfolio.avg_cost: %w", err)
	}
	return []portfolio.Option{portfolio.WithAvgCostRule(rule)}, nil
}

// RiskPolicy returns the order guard policy, or false when it is disabled.
func (c *Config) RiskPolicy() (risk.Policy, bool) {
	r := c.Risk
	return risk.Policy{
		MaxPositionPct: r.MaxPositionPct,
		MinTradeValue:  r.MinTradeValue,
		MaxDrawdownPct: r.MaxDrawdownPct,
		MaxRiskPct:     r.MaxRiskPct,
		MinRR:          r.MinRR,
	}, r.Enabled
}

// StrategyParams returns a copy of strategy.params.
func (c *Config) StrategyParams() strategies.Params {
	out := make(strategies.Params, len(c.Strategy.Params))
	for k, v := range c.Strategy.Params {
		out[k] = v
	}
	return out
}

// Environment overrides applied by ApplyEnv.
const (
	EnvInitialCash = "BACKTEST_INITIAL_CASH"
	EnvFeeRate     = "BACKTEST_FEE_RATE"
	EnvSlippageBPS = "BACKTEST_SLIPPAGE_BPS"
	EnvJournalDB   = "BACKTEST_JOURNAL_DB"
)

// LoadEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadEnv(files ...string) error {
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ApplyEnv overrides fields from environment variables found by lookup,
// typically os.LookupEnv. It returns the names of the variables applied.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) ([]string, error) {
	var applied []string

	floats := map[string]*float64{
		EnvInitialCash: &c.Account.Balance,
		EnvFeeRate:     &c.Execution.FeeRate,
		EnvSlippageBPS: &c.Execution.SlippageBPS,
	}
	names := make([]string, 0, len(floats))
	for name := range floats {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := lookup(name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return applied, fmt.Errorf("%s: %w", name, err)
		}
		*floats[name] = f
		applied = append(applied, name)
	}

	if v, ok := lookup(EnvJournalDB); ok && v != "" {
		c.Journal.Type = "sqlite"
		c.Journal.DBPath = v
		applied = append(applied, EnvJournalDB)
	}
	return applied, nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			ID:       "BT-001",
			Currency: "USD",
			Balance:  100_000,
		},
		Data: DataConfig{
			Symbols: []string{"AAPL"},
			Paths:   map[string]string{"AAPL": "data/AAPL_2022.csv"},
			Start:   "2022-01-01",
			End:     "2022-12-31",
		},
		Execution: ExecutionConfig{
			SlippageBPS: 5,
			FeeRate:     0.0001,
			FillPrice:   "open",
		},
		Portfolio: PortfolioConfig{AvgCost: "directional"},
		Risk: RiskConfig{
			MaxPositionPct: 0.20,
			MinTradeValue:  100,
			MaxDrawdownPct: 0.25,
		},
		Strategy: StrategyConfig{
			Name:   "buy-and-hold",
			Params: map[string]float64{"cash_fraction": 0.95},
		},
		Journal: JournalConfig{Type: "none"},
	}
}
