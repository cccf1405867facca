// Package strategies holds the built-in trading strategies and a registry
// that builds them by name.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
)

// Params are numeric strategy settings keyed by name, as read from config
// files and command-line flags.
type Params map[string]float64

// Get returns p[key], or def when the key is absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) Int(key string, def int) int {
	return int(p.Get(key, float64(def)))
}

func (p Params) Bool(key string, def bool) bool {
	d := 0.0
	if def {
		d = 1
	}
	return p.Get(key, d) != 0
}

// Factory builds a strategy trading symbol.
type Factory func(symbol string, p Params) (backtest.Strategy, error)

var registry = make(map[string]Factory)

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds a factory under name. Later registrations replace earlier
// ones.
func Register(name string, f Factory) {
	registry[normalize(name)] = f
}

// GetStrategy returns the factory registered under name, or nil.
func GetStrategy(name string) Factory {
	return registry[normalize(name)]
}

// Names lists registered strategy names in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// StrategyByName builds the strategy registered under name.
func StrategyByName(name, symbol string, p Params) (backtest.Strategy, error) {
	f := GetStrategy(name)
	if f == nil {
		return nil, fmt.Errorf("strategies: unknown strategy %q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(symbol, p)
}

func requireSymbol(name, symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("strategies: %s needs a symbol", name)
	}
	return nil
}

func init() {
	Register("noop", func(string, Params) (backtest.Strategy, error) {
		return NoopStrategy{}, nil
	})
	Register("buy-and-hold", func(symbol string, p Params) (backtest.Strategy, error) {
		cfg := BuyAndHoldConfigDefaults()
		cfg.Symbol = symbol
		cfg.CashFraction = p.Get("cash_fraction", cfg.CashFraction)
		return NewBuyAndHold(cfg)
	})
	Register("dynamic", func(symbol string, p Params) (backtest.Strategy, error) {
		cfg := DynamicTraderConfigDefaults()
		cfg.Symbol = symbol
		cfg.CashFraction = p.Get("cash_fraction", cfg.CashFraction)
		cfg.ProfitTarget = p.Get("profit_target", cfg.ProfitTarget)
		cfg.StopLoss = p.Get("stop_loss", cfg.StopLoss)
		cfg.MinCash = p.Get("min_cash", cfg.MinCash)
		cfg.ATRPeriod = p.Int("atr_period", cfg.ATRPeriod)
		cfg.ATRStop = p.Get("atr_stop", cfg.ATRStop)
		return NewDynamicTrader(cfg)
	})
	Register("macross", func(symbol string, p Params) (backtest.Strategy, error) {
		cfg := MACrossConfigDefaults()
		cfg.Symbol = symbol
		cfg.FastPeriod = p.Int("fast", cfg.FastPeriod)
		cfg.SlowPeriod = p.Int("slow", cfg.SlowPeriod)
		cfg.CashFraction = p.Get("cash_fraction", cfg.CashFraction)
		cfg.Exponential = p.Bool("ema", cfg.Exponential)
		cfg.ADXPeriod = p.Int("adx_period", cfg.ADXPeriod)
		cfg.MinADX = p.Get("min_adx", cfg.MinADX)
		return NewMACross(cfg)
	})
	Register("momentum", func(symbol string, p Params) (backtest.Strategy, error) {
		cfg := MomentumConfigDefaults()
		cfg.Symbol = symbol
		cfg.Lookback = p.Int("lookback", cfg.Lookback)
		cfg.Threshold = p.Get("threshold", cfg.Threshold)
		cfg.CashFraction = p.Get("cash_fraction", cfg.CashFraction)
		return NewMomentum(cfg)
	})
}
