// Package engine implements the per-position decision function (strict
// EXIT_STOP > EXIT_BREAKOUT > PYRAMID > HOLD priority), pyramid execution,
// exit handling, and futures rollover detection.
package engine

import (
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// Action identifies what the monitor decided to do for a position this
// cycle. Exactly one action is returned per call to Decide.
type Action string

const (
	ActionExitStop      Action = "EXIT_STOP"
	ActionExitBreakout  Action = "EXIT_BREAKOUT"
	ActionPyramid       Action = "PYRAMID"
	ActionHold          Action = "HOLD"
)

// Decision is the outcome of evaluating a single open position against the
// latest market data for one cycle.
type Decision struct {
	Action        Action
	Position      types.Position
	Market        types.MarketData
	TriggerPrice  decimal.Decimal
}

// Decide evaluates pos against market and returns the single highest-
// priority action that applies, in strict order: a stop hit always wins
// over a breakout exit, which always wins over a pyramid opportunity,
// which always wins over holding, per §4.K. More than one condition can
// hold on the same bar (a stop and a breakout exit, or an exit and a
// pyramid trigger); the evaluation order below decides which action wins.
func Decide(pos types.Position, market types.MarketData, pyramidInterval decimal.Decimal, maxUnitsPerMarket int) Decision {
	if stopHit, price := checkStop(pos, market); stopHit {
		return Decision{Action: ActionExitStop, Position: pos, Market: market, TriggerPrice: price}
	}

	if breakoutExit, price := checkBreakoutExit(pos, market); breakoutExit {
		return Decision{Action: ActionExitBreakout, Position: pos, Market: market, TriggerPrice: price}
	}

	if canPyramid, price := checkPyramid(pos, market, pyramidInterval, maxUnitsPerMarket); canPyramid {
		return Decision{Action: ActionPyramid, Position: pos, Market: market, TriggerPrice: price}
	}

	return Decision{Action: ActionHold, Position: pos, Market: market}
}

// checkStop reports whether the market has traded through the position's
// current stop.
func checkStop(pos types.Position, market types.MarketData) (bool, decimal.Decimal) {
	if pos.Direction == types.Long {
		if market.DayLow.LessThanOrEqual(pos.CurrentStop) {
			return true, pos.CurrentStop
		}
		return false, decimal.Zero
	}
	if market.DayHigh.GreaterThanOrEqual(pos.CurrentStop) {
		return true, pos.CurrentStop
	}
	return false, decimal.Zero
}

// checkBreakoutExit reports whether the market has traded through the
// position's system's exit channel (the opposite-direction Donchian band).
func checkBreakoutExit(pos types.Position, market types.MarketData) (bool, decimal.Decimal) {
	exit := market.ExitChannel(pos.System)

	if pos.Direction == types.Long {
		if market.DayLow.LessThanOrEqual(exit.Lower) {
			return true, exit.Lower
		}
		return false, decimal.Zero
	}
	if market.DayHigh.GreaterThanOrEqual(exit.Upper) {
		return true, exit.Upper
	}
	return false, decimal.Zero
}

// checkPyramid reports whether the market has reached the position's next
// pyramid trigger and another unit is still permitted by the per-market cap.
func checkPyramid(pos types.Position, market types.MarketData, pyramidInterval decimal.Decimal, maxUnitsPerMarket int) (bool, decimal.Decimal) {
	if !pos.CanPyramid(maxUnitsPerMarket) {
		return false, decimal.Zero
	}

	trigger := pos.NextPyramidTrigger(pyramidInterval)

	if pos.Direction == types.Long {
		if market.CurrentPrice.GreaterThanOrEqual(trigger) {
			return true, trigger
		}
		return false, decimal.Zero
	}
	if market.CurrentPrice.LessThanOrEqual(trigger) {
		return true, trigger
	}
	return false, decimal.Zero
}
