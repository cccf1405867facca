package execution

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/backtester/market"
)

// Reference selects which price of the current bar market orders fill at.
type Reference int8

const (
	FillAtOpen Reference = iota
	FillAtClose
)

func (r Reference) String() string {
	if r == FillAtClose {
		return "close"
	}
	return "open"
}

// ParseReference maps "open" / "close" to a Reference. Empty means open.
func ParseReference(s string) (Reference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return FillAtOpen, nil
	case "close":
		return FillAtClose, nil
	default:
		return FillAtOpen, fmt.Errorf("execution: unknown fill price %q (want open or close)", s)
	}
}

// BPS converts basis points to a fraction.
func BPS(bps float64) float64 {
	return bps / 10_000
}

// Model simulates fills against the current bar. It is a pure function of
// its configuration and inputs: no partial fills, no randomness and no
// resting orders.
type Model struct {
	slippage float64
	feeRate  float64
	ref      Reference
}

type Option func(*Model)

// WithSlippage sets the fractional price penalty applied to market orders.
func WithSlippage(frac float64) Option {
	return func(m *Model) { m.slippage = frac }
}

// WithFeeRate sets the fee charged per fill as a fraction of notional.
func WithFeeRate(rate float64) Option {
	return func(m *Model) { m.feeRate = rate }
}

func WithReference(ref Reference) Option {
	return func(m *Model) { m.ref = ref }
}

// NewModel returns a frictionless open-price model adjusted by opts.
func NewModel(opts ...Option) (*Model, error) {
	m := &Model{ref: FillAtOpen}
	for _, opt := range opts {
		opt(m)
	}
	if m.slippage < 0 || m.slippage >= 1 {
		return nil, fmt.Errorf("execution: slippage must be in [0, 1), got %v", m.slippage)
	}
	if m.feeRate < 0 || m.feeRate >= 1 {
		return nil, fmt.Errorf("execution: fee rate must be in [0, 1), got %v", m.feeRate)
	}
	if m.ref != FillAtOpen && m.ref != FillAtClose {
		return nil, fmt.Errorf("execution: unknown fill reference %d", m.ref)
	}
	return m, nil
}

func (m *Model) Slippage() float64    { return m.slippage }
func (m *Model) FeeRate() float64     { return m.feeRate }
func (m *Model) Reference() Reference { return m.ref }

// Fill converts orders into fills against bars, in submission order, and
// returns the summed fees for the step. Orders without a bar, invalid
// orders and limit orders whose price lies outside the bar's range are
// dropped.
func (m *Model) Fill(orders []Order, bars map[string]market.Bar) ([]Fill, float64) {
	fills := make([]Fill, 0, len(orders))
	var fees float64

	for _, o := range orders {
		if o.Validate() != nil {
			continue
		}
		b, ok := bars[o.Symbol]
		if !ok {
			continue
		}
		px, ok := m.price(o, b)
		if !ok {
			continue
		}
		f := Fill{Symbol: o.Symbol, Qty: o.Qty, Price: px}
		fees += m.Fee(f)
		fills = append(fills, f)
	}
	return fills, fees
}

// Fee is the commission charged for one fill.
func (m *Model) Fee(f Fill) float64 {
	return m.feeRate * f.Notional()
}

func (m *Model) price(o Order, b market.Bar) (float64, bool) {
	switch o.Kind {
	case Market:
		ref := b.Open
		if m.ref == FillAtClose {
			ref = b.Close
		}
		if o.IsBuy() {
			return ref * (1 + m.slippage), true
		}
		return ref * (1 - m.slippage), true
	case Limit:
		if !b.Contains(o.LimitPrice) {
			return 0, false
		}
		return o.LimitPrice, true
	}
	return 0, false
}
