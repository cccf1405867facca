// Package execution turns a step's submitted orders into fills and fees.
package execution

import (
	"errors"
	"fmt"
	"math"
)

// Kind is the order type.
type Kind int8

const (
	Market Kind = iota
	Limit
)

func (k Kind) String() string {
	switch k {
	case Market:
		return "market"
	case Limit:
		return "limit"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

var (
	ErrZeroQuantity      = errors.New("execution: order quantity must be non-zero")
	ErrMissingLimitPrice = errors.New("execution: limit order requires a positive limit price")
	ErrUnexpectedLimit   = errors.New("execution: market order must not carry a limit price")
	ErrBadSymbol         = errors.New("execution: order symbol is required")
)

// Order is a request to trade Qty units of Symbol. Positive quantities
// buy, negative quantities sell. Orders live for a single step.
type Order struct {
	Symbol     string
	Qty        float64
	Kind       Kind
	LimitPrice float64
}

func MarketOrder(symbol string, qty float64) Order {
	return Order{Symbol: symbol, Qty: qty, Kind: Market}
}

func LimitOrder(symbol string, qty, limitPrice float64) Order {
	return Order{Symbol: symbol, Qty: qty, Kind: Limit, LimitPrice: limitPrice}
}

// Validate rejects orders that must never reach the execution model.
func (o Order) Validate() error {
	if o.Symbol == "" {
		return ErrBadSymbol
	}
	if o.Qty == 0 || math.IsNaN(o.Qty) || math.IsInf(o.Qty, 0) {
		return fmt.Errorf("%w: %s %v", ErrZeroQuantity, o.Symbol, o.Qty)
	}
	switch o.Kind {
	case Market:
		if o.LimitPrice != 0 {
			return fmt.Errorf("%w: %s", ErrUnexpectedLimit, o.Symbol)
		}
	case Limit:
		if !(o.LimitPrice > 0) || math.IsInf(o.LimitPrice, 0) {
			return fmt.Errorf("%w: %s", ErrMissingLimitPrice, o.Symbol)
		}
	default:
		return fmt.Errorf("execution: unknown order kind %s", o.Kind)
	}
	return nil
}

func (o Order) IsBuy() bool { return o.Qty > 0 }

// Fill is a realized execution produced by the Model.
type Fill struct {
	Symbol string
	Qty    float64
	Price  float64
}

// Notional is the absolute traded value.
func (f Fill) Notional() float64 {
	return math.Abs(f.Qty * f.Price)
}
