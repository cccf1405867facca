package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/risk"
)

// DynamicTrader goes long when flat, exits at a profit target or a stop
// loss measured from average cost, then re-enters on the next bar.
//
// With ATRStop > 0 the stop is placed ATRStop average true ranges below
// average cost instead of at a fixed percentage.
type DynamicTrader struct {
	*DynamicTraderConfig

	atr      *indicators.ATR
	lastSeen int64
	trades   int
}

type DynamicTraderConfig struct {
	Symbol       string  `json:"symbol"`
	CashFraction float64 `json:"cash-fraction"` // 0.95
	ProfitTarget float64 `json:"profit-target"` // 0.15
	StopLoss     float64 `json:"stop-loss"`     // 0.08
	MinCash      float64 `json:"min-cash"`      // 1000

	ATRPeriod int     `json:"atr-period"` // 14
	ATRStop   float64 `json:"atr-stop"`   // 0 disables
}

func (c *DynamicTraderConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func DynamicTraderConfigDefaults() *DynamicTraderConfig {
	return &DynamicTraderConfig{
		CashFraction: 0.95,
		ProfitTarget: 0.15,
		StopLoss:     0.08,
		MinCash:      1000,
		ATRPeriod:    14,
	}
}

func NewDynamicTrader(cfg *DynamicTraderConfig) (*DynamicTrader, error) {
	if err := requireSymbol("dynamic", cfg.Symbol); err != nil {
		return nil, err
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		return nil, fmt.Errorf("strategies: cash fraction %v outside (0, 1]", cfg.CashFraction)
	}
	if cfg.ProfitTarget <= 0 || cfg.StopLoss <= 0 {
		return nil, fmt.Errorf("strategies: profit target and stop loss must be positive")
	}
	if cfg.ATRStop > 0 && cfg.ATRPeriod <= 0 {
		return nil, fmt.Errorf("strategies: atr stop needs a positive atr period")
	}
	return &DynamicTrader{
		DynamicTraderConfig: cfg,
		atr:                 indicators.NewATR(cfg.ATRPeriod),
		lastSeen:            -1,
	}, nil
}

func (s *DynamicTrader) Name() string { return "dynamic" }

func (s *DynamicTrader) Reset() {
	s.atr.Reset()
	s.lastSeen = -1
	s.trades = 0
}

// Trades is the number of entries and exits submitted so far.
func (s *DynamicTrader) Trades() int { return s.trades }

func (s *DynamicTrader) OnBar(ctx backtest.Context) {
	bar, ok := ctx.Bar(s.Symbol)
	if !ok {
		return
	}
	// Carried-forward bars are not new data for the ATR.
	if t := bar.Time.UnixNano(); t != s.lastSeen {
		s.lastSeen = t
		s.atr.Update(bar)
	}

	px := bar.Close
	pos := ctx.Position(s.Symbol)

	if pos.IsFlat() {
		if ctx.Cash() <= s.MinCash {
			return
		}
		qty := risk.SharesForCash(ctx.Cash(), s.CashFraction, px)
		if qty > 0 && ctx.OrderMarket(s.Symbol, qty) == nil {
			s.trades++
		}
		return
	}
	if pos.Qty < 0 || pos.AvgCost <= 0 {
		return
	}

	change := (px - pos.AvgCost) / pos.AvgCost
	stopped := change <= -s.StopLoss
	if s.ATRStop > 0 && s.atr.Ready() {
		stopped = px <= pos.AvgCost-s.ATRStop*s.atr.Value()
	}
	if change >= s.ProfitTarget || stopped {
		if ctx.OrderMarket(s.Symbol, -pos.Qty) == nil {
			s.trades++
		}
	}
}
