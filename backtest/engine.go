package backtest

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/execution"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

// Status is the engine's lifecycle state.
type Status int8

const (
	Idle Status = iota
	Stepping
	Done
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("status(%d)", int8(s))
	}
}

var ErrEngineDone = errors.New("backtest: engine already ran; call Reset with a new portfolio")

// Executor turns one step's orders into fills and the step's total fees.
// *execution.Model is the standard implementation.
type Executor interface {
	Fill(orders []execution.Order, bars map[string]market.Bar) ([]execution.Fill, float64)
}

// Engine replays bars through a strategy one timestamp at a time.
//
// Each step advances the market, calls the strategy once, executes the
// buffered orders against the current bars, books the fills in
// submission order, deducts the step's fees and marks the portfolio to
// the current closes. An Engine and everything it owns belong to a single
// goroutine for the duration of a run.
type Engine struct {
	market *market.State
	pf     *portfolio.Portfolio
	exec   Executor
	log    *zap.Logger

	status   Status
	now      time.Time
	orders   []execution.Order
	steps    int
	rejected int
}

type Option func(*Engine)

// WithExecutor replaces the default frictionless open-price model.
func WithExecutor(x Executor) Option {
	return func(e *Engine) { e.exec = x }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEngine validates series and returns an idle engine trading pf.
func NewEngine(series map[string][]market.Bar, pf *portfolio.Portfolio, opts ...Option) (*Engine, error) {
	if pf == nil {
		return nil, fmt.Errorf("backtest: Portfolio is required")
	}
	st, err := market.NewState(series)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}

	e := &Engine{
		market: st,
		pf:     pf,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.exec == nil {
		m, err := execution.NewModel()
		if err != nil {
			return nil, err
		}
		e.exec = m
	}
	return e, nil
}

// Run drives strat over every timestamp of clock and returns the equity
// history. A nil factory uses NewContext.
func (e *Engine) Run(strat Strategy, factory ContextFactory, clock *market.Clock) ([]portfolio.EquityPoint, error) {
	if strat == nil {
		return nil, fmt.Errorf("backtest: Strategy is required")
	}
	if clock == nil {
		return nil, fmt.Errorf("backtest: Clock is required")
	}
	if e.status != Idle {
		return nil, ErrEngineDone
	}
	if !clock.HasNext() {
		return nil, fmt.Errorf("backtest: %w", market.ErrClockExhausted)
	}
	if factory == nil {
		factory = NewContext
	}

	ctx := factory(e.market, e.pf, e.submit, func() time.Time { return e.now })

	e.status = Stepping
	e.log.Info("backtest started",
		zap.String("strategy", StrategyName(strat, "anonymous")),
		zap.Strings("symbols", e.market.Symbols()),
		zap.Int("steps", clock.Len()),
		zap.Float64("cash", e.pf.Cash()),
	)

	for clock.HasNext() {
		ts, err := clock.Next()
		if err != nil {
			return nil, err
		}
		e.step(strat, ctx, ts)
	}

	e.status = Done
	e.log.Info("backtest finished",
		zap.Int("steps", e.steps),
		zap.Int("trades", len(e.pf.TradeHistory())),
		zap.Int("rejected_orders", e.rejected),
		zap.Float64("fees", e.pf.TotalFees()),
		zap.Float64("equity", e.pf.Equity()),
	)
	return e.pf.EquityHistory(), nil
}

func (e *Engine) step(strat Strategy, ctx Context, ts time.Time) {
	e.now = ts
	e.market.AdvanceAll(ts)

	e.orders = e.orders[:0]
	strat.OnBar(ctx)

	if len(e.orders) > 0 {
		fills, fees := e.exec.Fill(e.orders, e.market.CurrentBars())
		if dropped := len(e.orders) - len(fills); dropped > 0 {
			e.log.Debug("orders not filled",
				zap.Time("time", ts),
				zap.Int("submitted", len(e.orders)),
				zap.Int("dropped", dropped),
			)
		}
		for _, f := range fills {
			e.pf.ApplyFill(ts, f.Symbol, f.Qty, f.Price)
		}
		e.pf.DeductFees(fees)
	}

	e.pf.MarkToMarket(ts, e.market.Closes())
	e.steps++
}

// submit validates an order from the strategy and buffers it for this
// step. Rejections are returned to the caller and never stop the run.
func (e *Engine) submit(o execution.Order) error {
	err := e.checkOrder(o)
	if err != nil {
		e.rejected++
		e.log.Warn("order rejected",
			zap.Time("time", e.now),
			zap.String("symbol", o.Symbol),
			zap.Stringer("kind", o.Kind),
			zap.Float64("qty", o.Qty),
			zap.Error(err),
		)
		return err
	}
	e.orders = append(e.orders, o)
	return nil
}

func (e *Engine) checkOrder(o execution.Order) error {
	if e.status != Stepping {
		return fmt.Errorf("backtest: orders can only be placed during a step")
	}
	if !e.market.Has(o.Symbol) {
		return fmt.Errorf("%w: %q", ErrUnknownSymbol, o.Symbol)
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if _, ok := e.market.Current(o.Symbol); !ok {
		return fmt.Errorf("%w: %s", ErrNoBar, o.Symbol)
	}
	return nil
}

// Reset rewinds the market cursors and swaps in a fresh portfolio so the
// engine can run again. The caller resets the clock.
func (e *Engine) Reset(pf *portfolio.Portfolio) error {
	if pf == nil {
		return fmt.Errorf("backtest: Portfolio is required")
	}
	e.market.Reset()
	e.pf = pf
	e.status = Idle
	e.now = time.Time{}
	e.orders = e.orders[:0]
	e.steps = 0
	e.rejected = 0
	return nil
}

func (e *Engine) Status() Status                  { return e.status }
func (e *Engine) Portfolio() *portfolio.Portfolio { return e.pf }
func (e *Engine) Market() *market.State           { return e.market }

// Steps is the number of completed steps in the current run.
func (e *Engine) Steps() int { return e.steps }

// Rejected counts orders refused at submission in the current run.
func (e *Engine) Rejected() int { return e.rejected }
