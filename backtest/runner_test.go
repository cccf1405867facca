package backtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/market"
)

type resettable struct {
	resets int
	bars   int
}

func (r *resettable) OnBar(Context) { r.bars++ }
func (r *resettable) Reset()        { r.resets++; r.bars = 0 }
func (r *resettable) Name() string  { return "resettable" }

func newRunner() *Runner {
	return &Runner{
		Series: map[string][]market.Bar{"AAPL": closes(1, 100, 110, 90)},
		Cash:   10_000,
	}
}

func TestRunnerRun(t *testing.T) {
	t.Parallel()

	res, err := newRunner().Run(context.Background(), buyOnce("AAPL", 0.95))
	require.NoError(t, err)

	assert.Len(t, res.RunID, 26)
	assert.Equal(t, "anonymous", res.Strategy)
	assert.Equal(t, []string{"AAPL"}, res.Symbols)
	assert.Equal(t, day(1), res.Start)
	assert.Equal(t, day(3), res.End)
	assert.Equal(t, 3, res.Steps)
	require.Len(t, res.Equity, 3)
	assert.Equal(t, 9_050.0, res.Equity[2].Equity)
	assert.Equal(t, 500.0, res.Portfolio.Cash())
}

func TestRunnerResetsStrategies(t *testing.T) {
	t.Parallel()

	r := newRunner()
	s := &resettable{}
	for i := 0; i < 2; i++ {
		res, err := r.Run(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, "resettable", res.Strategy)
	}
	assert.Equal(t, 2, s.resets)
	assert.Equal(t, 3, s.bars)
}

func TestRunnerCompare(t *testing.T) {
	t.Parallel()

	results, err := newRunner().Compare(context.Background(),
		buyOnce("AAPL", 0.95),
		StrategyFunc(func(Context) {}),
		buyOnce("AAPL", 0.5),
	)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, 9_050.0, results[0].Portfolio.Equity())
	assert.Equal(t, 10_000.0, results[1].Portfolio.Equity())
	// 50 shares at 100, marked at 90
	assert.Equal(t, 9_500.0, results[2].Portfolio.Equity())
	for _, res := range results {
		assert.Len(t, res.Equity, 3)
	}
	assert.NotEqual(t, results[0].RunID, results[1].RunID)
}

func TestRunnerErrors(t *testing.T) {
	t.Parallel()

	r := newRunner()

	_, err := r.Run(context.Background(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, StrategyFunc(func(Context) {}))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = r.Compare(ctx, StrategyFunc(func(Context) {}))
	assert.ErrorIs(t, err, context.Canceled)

	bad := &Runner{Series: r.Series}
	_, err = bad.Run(context.Background(), StrategyFunc(func(Context) {}))
	assert.Error(t, err)
}
