package backtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/portfolio"
)

// Runner replays one dataset through strategies, each on a fresh
// portfolio and engine.
type Runner struct {
	Series map[string][]market.Bar
	Cash   float64

	// Optional
	Portfolio []portfolio.Option
	Executor  Executor
	Factory   ContextFactory
	Logger    *zap.Logger
}

// Result is everything a finished run produced.
type Result struct {
	RunID    string
	Strategy string
	Symbols  []string
	Start    time.Time
	End      time.Time

	Steps     int
	Rejected  int
	Portfolio *portfolio.Portfolio
	Equity    []portfolio.EquityPoint
}

// Run executes a single backtest of strat over the runner's series.
// Strategies implementing Resetter are reset first.
func (r *Runner) Run(ctx context.Context, strat Strategy) (Result, error) {
	if strat == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if rs, ok := strat.(Resetter); ok {
		rs.Reset()
	}

	pf, err := portfolio.New(r.Cash, r.Portfolio...)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}
	name := StrategyName(strat, "anonymous")
	runID := id.New()
	log = log.With(zap.String("run_id", runID), zap.String("strategy", name))

	opts := []Option{WithLogger(log)}
	if r.Executor != nil {
		opts = append(opts, WithExecutor(r.Executor))
	}
	eng, err := NewEngine(r.Series, pf, opts...)
	if err != nil {
		return Result{}, err
	}

	tl, err := market.NewTimeline(r.Series)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	clock, err := market.NewClock(tl)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}

	eq, err := eng.Run(strat, r.Factory, clock)
	if err != nil {
		return Result{}, err
	}

	return Result{
		RunID:     runID,
		Strategy:  name,
		Symbols:   eng.Market().Symbols(),
		Start:     tl.Start(),
		End:       tl.End(),
		Steps:     eng.Steps(),
		Rejected:  eng.Rejected(),
		Portfolio: pf,
		Equity:    eq,
	}, nil
}

// Compare runs every strategy over the same data concurrently and returns
// the results in argument order. Each strategy must be a distinct value;
// the series are only read.
func (r *Runner) Compare(ctx context.Context, strats ...Strategy) ([]Result, error) {
	results := make([]Result, len(strats))
	errs := make([]error, len(strats))

	var wg sync.WaitGroup
	for i, s := range strats {
		wg.Add(1)
		go func(i int, s Strategy) {
			defer wg.Done()
			results[i], errs[i] = r.Run(ctx, s)
		}(i, s)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("backtest: strategy %d: %w", i, err)
		}
	}
	return results, nil
}
