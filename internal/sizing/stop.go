package sizing

import (
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// StopCalculator derives stop placement from entry price, N, and the
// configured stop multiplier (default 2N per §4.G).
type StopCalculator struct {
	Multiplier decimal.Decimal
}

// NewStopCalculator builds a calculator with the given N multiplier.
func NewStopCalculator(multiplier decimal.Decimal) *StopCalculator {
	return &StopCalculator{Multiplier: multiplier}
}

// InitialStop returns entryPrice -/+ Multiplier*N, signed by direction: a
// long's stop sits below entry, a short's above.
func (c *StopCalculator) InitialStop(entryPrice, n decimal.Decimal, dir types.Direction) decimal.Decimal {
	offset := c.Multiplier.Mul(n).Mul(decimal.NewFromInt(dir.Sign()))
	return entryPrice.Sub(offset)
}

// WholeUnitStop computes the stop for the whole position once a new unit
// is added: the tightest (most protective) of the position's current stop
// and the new unit's own initial stop, per the pyramid stop-modification
// protocol (§4.L) — every unit in a position shares a single current stop.
func (c *StopCalculator) WholeUnitStop(currentStop, newUnitStop decimal.Decimal, dir types.Direction) decimal.Decimal {
	if dir == types.Long {
		if newUnitStop.GreaterThan(currentStop) {
			return newUnitStop
		}
		return currentStop
	}
	if newUnitStop.LessThan(currentStop) {
		return newUnitStop
	}
	return currentStop
}
