package strategies

import (
	"encoding/json"
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/risk"
)

// BuyAndHold spends a fraction of cash on one symbol at the first bar it
// can and then holds.
type BuyAndHold struct {
	*BuyAndHoldConfig

	bought bool
}

type BuyAndHoldConfig struct {
	Symbol       string  `json:"symbol"`
	CashFraction float64 `json:"cash-fraction"` // 0.95
}

func (c *BuyAndHoldConfig) JSON() ([]byte, error) {
	return json.Marshal(c)
}

func BuyAndHoldConfigDefaults() *BuyAndHoldConfig {
	return &BuyAndHoldConfig{CashFraction: 0.95}
}

func NewBuyAndHold(cfg *BuyAndHoldConfig) (*BuyAndHold, error) {
	if err := requireSymbol("buy-and-hold", cfg.Symbol); err != nil {
		return nil, err
	}
	if cfg.CashFraction <= 0 || cfg.CashFraction > 1 {
		return nil, fmt.Errorf("strategies: cash fraction %v outside (0, 1]", cfg.CashFraction)
	}
	return &BuyAndHold{BuyAndHoldConfig: cfg}, nil
}

func (s *BuyAndHold) Name() string { return "buy-and-hold" }
func (s *BuyAndHold) Reset()       { s.bought = false }

func (s *BuyAndHold) OnBar(ctx backtest.Context) {
	if s.bought {
		return
	}
	px, ok := ctx.Price(s.Symbol)
	if !ok {
		return
	}
	qty := risk.SharesForCash(ctx.Cash(), s.CashFraction, px)
	if qty <= 0 {
		return
	}
	if ctx.OrderMarket(s.Symbol, qty) == nil {
		s.bought = true
	}
}
