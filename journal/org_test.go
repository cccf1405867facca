package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backtester/portfolio"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := portfolio.TradeRecord{
		Time:        day(5),
		Symbol:      "MSFT",
		Side:        portfolio.Buy,
		Quantity:    12.5,
		Price:       250.1234,
		Notional:    3126.54,
		CashAfter:   6873.46,
		PositionQty: 12.5,
	}
	got := FormatTradeOrg(trade)

	assert.True(t, strings.HasPrefix(got, "*** BUY MSFT 12.5 @ 250.1234\n"))
	assert.Contains(t, got, ":PROPERTIES:")
	assert.Contains(t, got, ":TIME: 2022-01-05T00:00:00Z")
	assert.Contains(t, got, ":NOTIONAL: 3126.54")
	assert.Contains(t, got, ":REALIZED_PL: 0.00")
	assert.Contains(t, got, ":END:")
	assert.Contains(t, got, "**** Review")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	e := sampleEntry("RUN1", day(10))
	got := FormatTradesOrg(e.Trades)
	assert.Equal(t, 2, strings.Count(got, ":PROPERTIES:"))
	assert.Empty(t, FormatTradesOrg(nil))
}

func TestBacktestRunFormatOrg(t *testing.T) {
	t.Parallel()

	run := sampleEntry("RUN1", day(10)).Run
	got, err := run.FormatOrg()
	require.NoError(t, err)

	assert.Contains(t, got, "* BACKTEST: buy-and-hold AAPL")
	assert.Contains(t, got, ":START_DATE:  2022-01-01")
	assert.Contains(t, got, ":END_BAL:     9050.00")
	assert.Contains(t, got, ":PROFIT_FAC:  (profit-factor?)")
	assert.Contains(t, got, `{"cash-fraction":0.95}`)
	assert.Contains(t, got, "** Observations\n- first\n- second")
	assert.Contains(t, got, ":CREATED:     [2022-01-10 Mon 00:00]")
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	run := sampleEntry("RUN1", day(10)).Run
	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())

	data, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), ":RUN_ID:      RUN1")
}
