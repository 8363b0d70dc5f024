package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/turtletrader/engine/internal/broker"
	"github.com/turtletrader/engine/internal/position"
	"github.com/turtletrader/engine/internal/sizing"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// PyramidExecutor carries out a PYRAMID decision: size the new unit, place
// the order, then append it to the position aggregate with the
// recalculated whole-unit stop, per §4.L.
type PyramidExecutor struct {
	broker  broker.Broker
	sizer   *sizing.UnitSizer
	stops   *sizing.StopCalculator
}

// NewPyramidExecutor builds a PyramidExecutor.
func NewPyramidExecutor(b broker.Broker, sizer *sizing.UnitSizer, stops *sizing.StopCalculator) *PyramidExecutor {
	return &PyramidExecutor{broker: b, sizer: sizer, stops: stops}
}

// Execute places the new unit's order and appends it to agg. It returns the
// fill and the whole-unit stop applied, for the caller to log as an Event.
func (e *PyramidExecutor) Execute(ctx context.Context, agg *position.Aggregate, market types.MarketData, notionalEquity decimal.Decimal, triggerPrice decimal.Decimal) (broker.Fill, decimal.Decimal, error) {
	pos := agg.Snapshot()

	sizeResult, err := e.sizer.Calculate(sizing.Request{
		Symbol:        market.Spec.Symbol,
		AccountEquity: notionalEquity,
		N:             market.N.Value,
		PointValue:    market.Spec.PointValue,
	})
	if err != nil {
		return broker.Fill{}, decimal.Zero, fmt.Errorf("pyramid sizing for %s: %w", pos.Symbol, err)
	}
	if sizeResult.Contracts <= 0 {
		return broker.Fill{}, decimal.Zero, fmt.Errorf("pyramid for %s: computed zero contracts", pos.Symbol)
	}

	fill, err := e.broker.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:     pos.Symbol,
		Side:       pos.Direction,
		Contracts:  sizeResult.Contracts,
		LimitPrice: triggerPrice,
	})
	if err != nil {
		return broker.Fill{}, decimal.Zero, fmt.Errorf("pyramid order for %s: %w", pos.Symbol, err)
	}

	unitStop := e.stops.InitialStop(fill.FillPrice, market.N.Value, pos.Direction)
	wholeUnitStop := e.stops.WholeUnitStop(pos.CurrentStop, unitStop, pos.Direction)

	if err := agg.AppendPyramid(fill.FillPrice, market.N.Value, fill.Contracts, unitStop, wholeUnitStop, time.Now()); err != nil {
		return fill, decimal.Zero, fmt.Errorf("append pyramid for %s: %w", pos.Symbol, err)
	}

	return fill, wholeUnitStop, nil
}
