package signals

import (
	"context"
	"fmt"

	"github.com/turtletrader/engine/pkg/types"
)

// TradeRepo is the narrow read dependency the S1 filter needs: the most
// recently closed trade for a symbol+system+direction, regardless of
// whether the filter or any other component produced it.
type TradeRepo interface {
	LastClosedTrade(ctx context.Context, symbol string, sys types.System, dir types.Direction) (*types.Trade, error)
}

// Filter applies the S1 "skip if the last signal in this direction was a
// winner" rule: S1 entries are taken only when the prior S1 signal for the
// same symbol and direction resulted in a loss (or there was none), per
// §4.E. S2 signals are never filtered.
//
// Filter is a stateful collaborator rather than a pure function because it
// needs a trade history lookup; the detector itself (Detect) stays pure.
// This split is a deliberate architectural decision (see SPEC_FULL.md §9).
type Filter struct {
	trades TradeRepo
}

// NewFilter builds a Filter backed by repo.
func NewFilter(repo TradeRepo) *Filter {
	return &Filter{trades: repo}
}

// Allow reports whether sig should be taken. S2 signals are always allowed.
// S1 signals are allowed unless the most recent closed S1 trade for the
// same symbol and direction was a winner.
func (f *Filter) Allow(ctx context.Context, sig types.Signal) (bool, error) {
	if sig.System != types.SystemS1 {
		return true, nil
	}

	last, err := f.trades.LastClosedTrade(ctx, sig.Symbol, types.SystemS1, sig.Direction)
	if err != nil {
		return false, fmt.Errorf("s1 filter lookup for %s: %w", sig.Symbol, err)
	}
	if last == nil {
		return true, nil
	}

	return !last.WasWinner(), nil
}
