// Package broker defines the narrow external interface the engine uses to
// place and query orders, independent of any specific execution venue.
package broker

import (
	"context"
	"time"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// OrderSide mirrors types.Direction for order placement.
type OrderSide = types.Direction

// OrderRequest is what the engine asks a Broker to execute. It carries no
// venue-specific fields; adapters translate it into whatever the
// underlying API needs.
type OrderRequest struct {
	Symbol    string
	Side      OrderSide
	Contracts int64
	// LimitPrice is the breakout/trigger price used for logging and slip
	// measurement; brokers are expected to fill at or near market.
	LimitPrice decimal.Decimal
}

// Fill is the result of a successfully executed order.
type Fill struct {
	OrderID    string
	Symbol     string
	FillPrice  decimal.Decimal
	Contracts  int64
	Commission decimal.Decimal
	FilledAt   time.Time
}

// Transient wraps an error the caller should retry (network blip, rate
// limit) rather than treat as a permanent rejection.
type Transient struct {
	Err error
}

func (t *Transient) Error() string { return "broker transient: " + t.Err.Error() }
func (t *Transient) Unwrap() error { return t.Err }

// Broker is the external execution interface. Implementations must be
// safe for concurrent use.
type Broker interface {
	// PlaceOrder submits req and blocks until filled or rejected.
	PlaceOrder(ctx context.Context, req OrderRequest) (Fill, error)
	// CancelOrder cancels a resting order, if the broker supports resting
	// orders; paper/market implementations may treat this as a no-op.
	CancelOrder(ctx context.Context, orderID string) error
	// AccountEquity returns the current account equity as reported by the
	// broker (or tracked internally, for paper trading).
	AccountEquity(ctx context.Context) (decimal.Decimal, error)
}
