package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/backtester/portfolio"
)

// FormatTradeOrg renders a trade as an Org-mode block. Structured facts go
// in a PROPERTIES drawer; the Review heading is left for notes.
func FormatTradeOrg(t portfolio.TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*** %s %s %g @ %.4f\n", t.Side, t.Symbol, t.Quantity, t.Price)
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TIME: %s\n", t.Time.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":SYMBOL: %s\n", t.Symbol)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":QUANTITY: %g\n", t.Quantity)
	fmt.Fprintf(&b, ":PRICE: %.4f\n", t.Price)
	fmt.Fprintf(&b, ":NOTIONAL: %.2f\n", t.Notional)
	fmt.Fprintf(&b, ":CASH_AFTER: %.2f\n", t.CashAfter)
	fmt.Fprintf(&b, ":REALIZED_PL: %.2f\n", t.RealizedPL)
	fmt.Fprintf(&b, ":POSITION: %g\n", t.PositionQty)
	b.WriteString(":END:\n")
	b.WriteString("**** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []portfolio.TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}
