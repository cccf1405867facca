package backtest

import (
	"errors"
	"time"

	"github.com/rustyeddy/backtester/execution"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

var (
	ErrUnknownSymbol = errors.New("backtest: unknown symbol")
	ErrNoBar         = errors.New("backtest: no bar published yet")
)

// Context is the strategy's view of the simulation for one step. Reads
// reflect the state before any of this step's orders execute; orders are
// buffered and applied after OnBar returns.
type Context interface {
	Now() time.Time
	Symbols() []string

	// Price returns the close of symbol's current bar.
	Price(symbol string) (float64, bool)
	Bar(symbol string) (market.Bar, bool)

	// Bars returns up to n published bars, oldest first.
	Bars(symbol string, n int) market.Window

	// Position returns the current holding, or the flat position.
	Position(symbol string) portfolio.Position
	Cash() float64
	Equity() float64

	OrderMarket(symbol string, qty float64) error
	OrderLimit(symbol string, qty, limitPrice float64) error
}

// Submitter hands an order to the engine's buffer. It returns an error,
// and buffers nothing, when the order is rejected.
type Submitter func(o execution.Order) error

// ContextFactory builds the Context handed to a strategy. It is called
// once per run; now reports the timestamp of the step in flight.
type ContextFactory func(state *market.State, pf *portfolio.Portfolio, submit Submitter, now func() time.Time) Context

// NewContext is the default ContextFactory.
func NewContext(state *market.State, pf *portfolio.Portfolio, submit Submitter, now func() time.Time) Context {
	return &barContext{state: state, pf: pf, submit: submit, now: now}
}

type barContext struct {
	state  *market.State
	pf     *portfolio.Portfolio
	submit Submitter
	now    func() time.Time
}

func (c *barContext) Now() time.Time    { return c.now() }
func (c *barContext) Symbols() []string { return c.state.Symbols() }
func (c *barContext) Cash() float64     { return c.pf.Cash() }
func (c *barContext) Equity() float64   { return c.pf.Equity() }

func (c *barContext) Price(symbol string) (float64, bool) {
	b, ok := c.state.Current(symbol)
	if !ok {
		return 0, false
	}
	return b.Close, true
}

func (c *barContext) Bar(symbol string) (market.Bar, bool) {
	return c.state.Current(symbol)
}

func (c *barContext) Bars(symbol string, n int) market.Window {
	return c.state.Bars(symbol, n)
}

func (c *barContext) Position(symbol string) portfolio.Position {
	return c.pf.Position(symbol)
}

func (c *barContext) OrderMarket(symbol string, qty float64) error {
	return c.place(execution.MarketOrder(symbol, qty))
}

func (c *barContext) OrderLimit(symbol string, qty, limitPrice float64) error {
	return c.place(execution.LimitOrder(symbol, qty, limitPrice))
}

func (c *barContext) place(o execution.Order) error {
	return c.submit(o)
}
