// Package indicators computes the volatility (N) and Donchian channel
// indicators the rest of the engine is built on, and validates incoming
// bars before they reach those calculators.
package indicators

import (
	"errors"
	"fmt"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// ErrInsufficientHistory is returned when fewer bars are supplied than an
// indicator needs to compute a value.
var ErrInsufficientHistory = errors.New("insufficient history")

// TrueRange computes TR_i = max(H-L, |H-prevClose|, |prevClose-L|) for a
// single bar against the previous bar's close.
func TrueRange(bar types.Bar, prevClose decimal.Decimal) decimal.Decimal {
	hl := bar.High.Sub(bar.Low)
	hc := bar.High.Sub(prevClose).Abs()
	cl := prevClose.Sub(bar.Low).Abs()

	tr := hl
	if hc.GreaterThan(tr) {
		tr = hc
	}
	if cl.GreaterThan(tr) {
		tr = cl
	}
	return tr
}

// NCalculator computes the Wilder-smoothed N (20-period average true range
// by default) from a bar history, or incrementally from a persisted prior
// value — see §4.A for the seeding vs. stateful-recurrence distinction.
type NCalculator struct {
	Period int
	Method types.NMethod
}

// NewNCalculator builds a calculator for the given period/method. Period
// must be positive; Method is recorded on every NValue produced.
func NewNCalculator(period int, method types.NMethod) *NCalculator {
	return &NCalculator{Period: period, Method: method}
}

// FromHistory computes N from scratch over an ordered bar sequence. This is
// the seeding calculation: it requires at least Period+1 bars (one extra bar
// to establish the first previous-close) and is reserved for
// initialization/backtest use — production keeps running the stateful
// recurrence (Next) once seeded, per §4.A.
func (c *NCalculator) FromHistory(bars []types.Bar) (types.NValue, error) {
	if len(bars) < c.Period+1 {
		return types.NValue{}, fmt.Errorf("%w: need at least %d bars, got %d", ErrInsufficientHistory, c.Period+1, len(bars))
	}

	// True ranges for every bar after the first (bars[0] supplies the
	// previous close for bars[1]). The first Period of them seed N as their
	// simple average; each later one advances N by the Wilder recurrence.
	trs := make([]decimal.Decimal, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs[i-1] = TrueRange(bars[i], bars[i-1].Close)
	}

	sum := decimal.Zero
	for _, tr := range trs[:c.Period] {
		sum = sum.Add(tr)
	}
	value := sum.Div(decimal.NewFromInt(int64(c.Period)))

	p := decimal.NewFromInt(int64(c.Period))
	pMinus1 := decimal.NewFromInt(int64(c.Period - 1))
	for _, tr := range trs[c.Period:] {
		value = pMinus1.Mul(value).Add(tr).Div(p)
	}

	last := bars[len(bars)-1]
	return types.NValue{
		Symbol:       last.Symbol,
		Value:        value,
		Period:       c.Period,
		Method:       c.Method,
		CalculatedAt: last.Date,
	}, nil
}

// Next advances a persisted previous N forward with today's true range,
// using the Wilder recurrence N_i = ((P-1)*N_{i-1} + TR_i) / P. This is the
// authoritative production path once a series has been seeded; it never
// falls back to FromHistory, so drift between the two paths over long runs
// never causes a silent recompute of the persisted series.
func (c *NCalculator) Next(previous types.NValue, today types.Bar, todayTR decimal.Decimal) types.NValue {
	p := decimal.NewFromInt(int64(c.Period))
	pMinus1 := decimal.NewFromInt(int64(c.Period - 1))

	value := pMinus1.Mul(previous.Value).Add(todayTR).Div(p)

	return types.NValue{
		Symbol:       today.Symbol,
		Value:        value,
		Period:       c.Period,
		Method:       c.Method,
		CalculatedAt: today.Date,
	}
}

// NextFromBars is a convenience wrapper over Next that derives todayTR from
// the bar preceding today in the supplied slice's last two elements.
func (c *NCalculator) NextFromBars(previous types.NValue, bars []types.Bar) (types.NValue, error) {
	if len(bars) < 2 {
		return types.NValue{}, fmt.Errorf("%w: need at least 2 bars to derive true range", ErrInsufficientHistory)
	}
	today := bars[len(bars)-1]
	prevClose := bars[len(bars)-2].Close
	tr := TrueRange(today, prevClose)
	return c.Next(previous, today, tr), nil
}
