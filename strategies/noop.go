package strategies

import "github.com/rustyeddy/backtester/backtest"

// NoopStrategy does nothing. Its equity curve is flat at the initial cash.
type NoopStrategy struct{}

func (NoopStrategy) OnBar(backtest.Context) {}
func (NoopStrategy) Name() string           { return "noop" }
