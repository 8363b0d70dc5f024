package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/turtletrader/engine/internal/broker"
	"github.com/turtletrader/engine/internal/position"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// ExitHandler closes a position through the broker and finalizes its Trade
// record, computing realized and net P&L, per §4.M.
type ExitHandler struct {
	broker broker.Broker
}

// NewExitHandler builds an ExitHandler.
func NewExitHandler(b broker.Broker) *ExitHandler {
	return &ExitHandler{broker: b}
}

// Execute closes agg's entire remaining size at market and finalizes trade
// with the computed P&L. trade must be the open Trade record corresponding
// to agg (same symbol/system/entry).
func (h *ExitHandler) Execute(ctx context.Context, agg *position.Aggregate, trade *types.Trade, reason types.ExitReason) (broker.Fill, error) {
	pos := agg.Snapshot()

	closeSide := types.Long
	if pos.Direction == types.Long {
		closeSide = types.Short
	}

	fill, err := h.broker.PlaceOrder(ctx, broker.OrderRequest{
		Symbol:    pos.Symbol,
		Side:      closeSide,
		Contracts: pos.TotalContracts(),
	})
	if err != nil {
		return broker.Fill{}, fmt.Errorf("exit order for %s: %w", pos.Symbol, err)
	}

	if err := agg.Close(); err != nil {
		return fill, fmt.Errorf("close position %s: %w", pos.Symbol, err)
	}

	realizedPnL := h.realizedPnL(pos, fill.FillPrice)
	trade.Finalize(time.Now(), fill.FillPrice, realizedPnL, reason)

	return fill, nil
}

// realizedPnL sums (exitPrice - entryPrice) * contracts * pointValue * sign
// across every pyramid level, so partial-size pyramids are weighted
// correctly rather than using a simple average entry times total size.
func (h *ExitHandler) realizedPnL(pos types.Position, exitPrice decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	sign := decimal.NewFromInt(pos.Direction.Sign())
	for _, lvl := range pos.PyramidLevels {
		diff := exitPrice.Sub(lvl.EntryPrice).Mul(sign)
		total = total.Add(diff.Mul(decimal.NewFromInt(lvl.Contracts)).Mul(pos.PointValue))
	}
	return total
}
