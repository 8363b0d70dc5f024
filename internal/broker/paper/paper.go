// Package paper implements a reference paper-trading Broker: orders fill
// immediately at the requested price plus a configurable slippage/
// commission model, and account equity is tracked internally rather than
// queried from a venue.
package paper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtletrader/engine/internal/broker"
	"github.com/turtletrader/engine/pkg/utils"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config configures the paper broker's fill model.
type Config struct {
	CommissionPerContract decimal.Decimal
	SlippageTicks         decimal.Decimal
	TickSize              decimal.Decimal
}

// DefaultConfig returns a zero-friction fill model (no slippage, no
// commission), suitable for unit tests and dry runs that only care about
// engine logic.
func DefaultConfig() Config {
	return Config{
		CommissionPerContract: decimal.Zero,
		SlippageTicks:         decimal.Zero,
		TickSize:              decimal.NewFromInt(1),
	}
}

// Broker is a reference paper-trading implementation of broker.Broker.
type Broker struct {
	logger *zap.Logger
	config Config

	mu     sync.Mutex
	equity decimal.Decimal
	fills  []broker.Fill
}

// New builds a paper Broker starting at startingEquity.
func New(logger *zap.Logger, config Config, startingEquity decimal.Decimal) *Broker {
	return &Broker{
		logger: logger.Named("paper-broker"),
		config: config,
		equity: startingEquity,
	}
}

// PlaceOrder fills req immediately at req.LimitPrice plus SlippageTicks in
// the adverse direction, charging CommissionPerContract * Contracts.
func (b *Broker) PlaceOrder(ctx context.Context, req broker.OrderRequest) (broker.Fill, error) {
	if req.Contracts <= 0 {
		return broker.Fill{}, fmt.Errorf("paper broker: contracts must be positive, got %d", req.Contracts)
	}

	slippage := b.config.SlippageTicks.Mul(b.config.TickSize).Mul(decimal.NewFromInt(req.Side.Sign()))
	fillPrice := req.LimitPrice.Add(slippage)
	commission := b.config.CommissionPerContract.Mul(decimal.NewFromInt(req.Contracts))

	fill := broker.Fill{
		OrderID:    utils.GenerateID("ord"),
		Symbol:     req.Symbol,
		FillPrice:  fillPrice,
		Contracts:  req.Contracts,
		Commission: commission,
		FilledAt:   time.Now(),
	}

	b.mu.Lock()
	b.equity = b.equity.Sub(commission)
	b.fills = append(b.fills, fill)
	b.mu.Unlock()

	b.logger.Info("paper fill",
		zap.String("symbol", req.Symbol),
		zap.String("side", string(req.Side)),
		zap.Int64("contracts", req.Contracts),
		zap.String("fillPrice", fillPrice.String()),
	)

	return fill, nil
}

// CancelOrder is a no-op: paper orders fill synchronously and are never
// left resting.
func (b *Broker) CancelOrder(ctx context.Context, orderID string) error {
	return nil
}

// AccountEquity returns the internally tracked equity.
func (b *Broker) AccountEquity(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.equity, nil
}

// ApplyRealizedPnL adjusts tracked equity by pnl. Nothing in the engine
// calls it; the exit path does not update the paper broker's equity.
func (b *Broker) ApplyRealizedPnL(pnl decimal.Decimal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.equity = b.equity.Add(pnl)
}

// Fills returns every fill recorded so far, oldest first.
func (b *Broker) Fills() []broker.Fill {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]broker.Fill(nil), b.fills...)
}
