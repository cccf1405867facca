package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/risk"
)

// MACross holds a long position while the fast moving average is above the
// slow one and is flat otherwise.
//
// With MinADX > 0, new entries also need an ADX reading at or above MinADX;
// exits are never filtered.
type MACross struct {
	*MACrossConfig

	fast indicators.Indicator
	slow indicators.Indicator
	adx  *indicators.ADX

	lastSeen int64
}

type MACrossConfig struct {
	Symbol       string  `json:"symbol"`
	FastPeriod   int     `json:"fast-period"`   // 5
	SlowPeriod   int     `json:"slow-period"`   // 20
	CashFraction float64 `json:"cash-fraction"` // 0.95
	Exponential  bool    `json:"ema"`

	ADXPeriod int     `json:"adx-period"` // 14
	MinADX    float64 `json:"min-adx"`    // 0 disables
}

func (c *MACrossConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func MACrossConfigDefaults() *MACrossConfig {
	return &MACrossConfig{
		FastPeriod:   5,
		SlowPeriod:   20,
		CashFraction: 0.95,
		ADXPeriod:    14,
	}
}

func NewMACross(cfg *MACrossConfig) (*MACross, error) {
	if err := requireSymbol("macross", cfg.Symbol); err != nil {
		return nil, err
	}
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= cfg.FastPeriod {
		return nil, fmt.Errorf("strategies: need 0 < fast (%d) < slow (%d)", cfg.FastPeriod, cfg.SlowPeriod)
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		return nil, fmt.Errorf("strategies: cash fraction %v outside (0, 1]", cfg.CashFraction)
	}
	if cfg.MinADX > 0 && cfg.ADXPeriod <= 0 {
		return nil, fmt.Errorf("strategies: adx filter needs a positive adx period")
	}

	s := &MACross{MACrossConfig: cfg, lastSeen: -1}
	if cfg.Exponential {
		s.fast = indicators.NewEMA(cfg.FastPeriod)
		s.slow = indicators.NewEMA(cfg.SlowPeriod)
	} else {
		s.fast = indicators.NewMA(cfg.FastPeriod)
		s.slow = indicators.NewMA(cfg.SlowPeriod)
	}
	s.adx = indicators.NewADX(cfg.ADXPeriod)
	return s, nil
}

func (s *MACross) Name() string {
	return fmt.Sprintf("macross(%s,%s)", s.fast.Name(), s.slow.Name())
}

func (s *MACross) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.adx.Reset()
	s.lastSeen = -1
}

func (s *MACross) OnBar(ctx backtest.Context) {
	bar, ok := ctx.Bar(s.Symbol)
	if !ok {
		return
	}
	if t := bar.Time.UnixNano(); t != s.lastSeen {
		s.lastSeen = t
		s.fast.Update(bar)
		s.slow.Update(bar)
		s.adx.Update(bar)
	}
	if !s.fast.Ready() || !s.slow.Ready() {
		return
	}

	pos := ctx.Position(s.Symbol)
	bullish := s.fast.Value() > s.slow.Value()

	switch {
	case bullish && pos.IsFlat():
		if s.MinADX > 0 && (!s.adx.Ready() || s.adx.Value() < s.MinADX) {
			return
		}
		qty := risk.SharesForCash(ctx.Cash(), s.CashFraction, bar.Close)
		if qty > 0 {
			_ = ctx.OrderMarket(s.Symbol, qty)
		}
	case !bullish && !pos.IsFlat():
		_ = ctx.OrderMarket(s.Symbol, -pos.Qty)
	}
}
