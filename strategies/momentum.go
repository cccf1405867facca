package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/risk"
)

// Momentum buys when the close has risen more than Threshold over Lookback
// bars and sells everything when it has fallen more than Threshold.
type Momentum struct {
	*MomentumConfig
}

type MomentumConfig struct {
	Symbol       string  `json:"symbol"`
	Lookback     int     `json:"lookback"`      // 20
	Threshold    float64 `json:"threshold"`     // 0.02
	CashFraction float64 `json:"cash-fraction"` // 0.95
}

func (c *MomentumConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func MomentumConfigDefaults() *MomentumConfig {
	return &MomentumConfig{
		Lookback:     20,
		Threshold:    0.02,
		CashFraction: 0.95,
	}
}

func NewMomentum(cfg *MomentumConfig) (*Momentum, error) {
	if err := requireSymbol("momentum", cfg.Symbol); err != nil {
		return nil, err
	}
	if cfg.Lookback <= 0 {
		return nil, fmt.Errorf("strategies: lookback must be positive, got %d", cfg.Lookback)
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("strategies: threshold must not be negative")
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		return nil, fmt.Errorf("strategies: cash fraction %v outside (0, 1]", cfg.CashFraction)
	}
	return &Momentum{MomentumConfig: cfg}, nil
}

func (s *Momentum) Name() string { return fmt.Sprintf("momentum(%d)", s.Lookback) }

func (s *Momentum) OnBar(ctx backtest.Context) {
	closes := ctx.Bars(s.Symbol, s.Lookback+1).Closes()
	mom, err := indicators.Momentum(closes, s.Lookback)
	if err != nil {
		return
	}

	pos := ctx.Position(s.Symbol)
	switch {
	case mom > s.Threshold && pos.IsFlat():
		px := closes[len(closes)-1]
		if qty := risk.SharesForCash(ctx.Cash(), s.CashFraction, px); qty > 0 {
			_ = ctx.OrderMarket(s.Symbol, qty)
		}
	case mom < -s.Threshold && pos.Qty > 0:
		_ = ctx.OrderMarket(s.Symbol, -pos.Qty)
	}
}
