// Package signals detects Donchian breakout entries and applies the S1
// "last signal was a loser" filter before a breakout becomes a tradeable
// entry candidate.
package signals

import (
	"github.com/turtletrader/engine/pkg/types"
)

// Detect is a pure function over a MarketData snapshot: given today's price
// action against the entry channel for sys, it returns the breakout signal
// that fired, if any. It has no dependency on history or prior trades — the
// S1 filter is a separate collaborator (see Filter) applied after Detect.
func Detect(market types.MarketData, sys System) *types.Signal {
	return detectSystem(market, types.System(sys))
}

// System is a re-export of types.System for callers that only import
// internal/signals.
type System = types.System

const (
	S1 = types.SystemS1
	S2 = types.SystemS2
)

func detectSystem(market types.MarketData, sys types.System) *types.Signal {
	channel := market.EntryChannel(sys)

	if market.CurrentPrice.GreaterThan(channel.Upper) {
		return &types.Signal{
			Symbol:         market.Spec.Symbol,
			System:         sys,
			Direction:      types.Long,
			BreakoutPrice:  channel.Upper,
			TriggeredAt:    market.UpdatedAt,
			DonchianPeriod: channel.Period,
		}
	}

	if market.CurrentPrice.LessThan(channel.Lower) {
		return &types.Signal{
			Symbol:         market.Spec.Symbol,
			System:         sys,
			Direction:      types.Short,
			BreakoutPrice:  channel.Lower,
			TriggeredAt:    market.UpdatedAt,
			DonchianPeriod: channel.Period,
		}
	}

	return nil
}

// DetectAll runs both systems against market and returns every signal that
// fired, in system order (S1 then S2).
func DetectAll(market types.MarketData) []types.Signal {
	var out []types.Signal
	if sig := Detect(market, S1); sig != nil {
		out = append(out, *sig)
	}
	if sig := Detect(market, S2); sig != nil {
		out = append(out, *sig)
	}
	return out
}
