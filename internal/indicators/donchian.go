package indicators

import (
	"fmt"

	"github.com/turtletrader/engine/pkg/types"
)

// DonchianCalculator computes rolling high/low channels over a bar history.
type DonchianCalculator struct {
	Period int
}

// NewDonchianCalculator builds a calculator for the given lookback period
// (10, 20, or 55 per §3's DonchianPeriod enum, though any positive period
// is accepted).
func NewDonchianCalculator(period int) *DonchianCalculator {
	return &DonchianCalculator{Period: period}
}

// Compute returns the channel formed by the highest high and lowest low over
// the trailing Period bars, excluding the current (in-progress) bar per the
// spec's breakout convention: callers pass the completed history, not
// today's still-forming bar.
func (c *DonchianCalculator) Compute(bars []types.Bar) (types.DonchianChannel, error) {
	if len(bars) < c.Period {
		return types.DonchianChannel{}, fmt.Errorf("%w: need at least %d bars, got %d", ErrInsufficientHistory, c.Period, len(bars))
	}

	window := bars[len(bars)-c.Period:]
	upper := window[0].High
	lower := window[0].Low
	for _, bar := range window[1:] {
		if bar.High.GreaterThan(upper) {
			upper = bar.High
		}
		if bar.Low.LessThan(lower) {
			lower = bar.Low
		}
	}

	last := bars[len(bars)-1]
	return types.DonchianChannel{
		Symbol:       last.Symbol,
		Upper:        upper,
		Lower:        lower,
		Period:       types.DonchianPeriod(c.Period),
		CalculatedAt: last.Date,
	}, nil
}

// ComputeAll computes the three standard channels (10/20/55) the engine
// attaches to every MarketData snapshot.
func ComputeAll(bars []types.Bar) (ch10, ch20, ch55 types.DonchianChannel, err error) {
	ch10, err = NewDonchianCalculator(int(types.Donchian10)).Compute(bars)
	if err != nil {
		return
	}
	ch20, err = NewDonchianCalculator(int(types.Donchian20)).Compute(bars)
	if err != nil {
		return
	}
	ch55, err = NewDonchianCalculator(int(types.Donchian55)).Compute(bars)
	return
}
