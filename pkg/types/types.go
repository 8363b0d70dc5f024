// Package types provides shared domain type definitions for the turtle
// trading engine: bars, indicators, signals, and reference market data.
package types

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the side of a position or signal.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// Sign returns +1 for Long and -1 for Short, used to apply direction-signed
// offsets (stops, pyramid triggers) without branching at every call site.
func (d Direction) Sign() int64 {
	if d == Short {
		return -1
	}
	return 1
}

// System identifies which breakout system produced a signal or trade.
type System string

const (
	SystemS1 System = "S1"
	SystemS2 System = "S2"
)

// NMethod identifies the smoothing method used to compute N.
type NMethod string

const (
	MethodWilders NMethod = "WILDERS"
	MethodSMA     NMethod = "SMA"
)

// DonchianPeriod enumerates the recognized channel lengths.
type DonchianPeriod int

const (
	Donchian10 DonchianPeriod = 10
	Donchian20 DonchianPeriod = 20
	Donchian55 DonchianPeriod = 55
)

// Bar is a single daily OHLCV candle.
type Bar struct {
	Symbol string          `json:"symbol"`
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// Validate checks the OHLC sanity invariants from the bar validator (low <=
// {open, close} <= high, all prices strictly positive). It does not apply
// the bad-tick percentage check; that needs the previous close and lives in
// internal/indicators.BarValidator so it can be logged rather than rejected.
func (b Bar) Validate() error {
	for name, v := range map[string]decimal.Decimal{
		"open": b.Open, "high": b.High, "low": b.Low, "close": b.Close,
	} {
		if !v.IsPositive() {
			return fmt.Errorf("bar %s %s: %s must be positive, got %s", b.Symbol, b.Date.Format("2006-01-02"), name, v)
		}
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar %s %s: high %s < low %s", b.Symbol, b.Date.Format("2006-01-02"), b.High, b.Low)
	}
	if b.High.LessThan(b.Open) {
		return fmt.Errorf("bar %s %s: high %s < open %s", b.Symbol, b.Date.Format("2006-01-02"), b.High, b.Open)
	}
	if b.High.LessThan(b.Close) {
		return fmt.Errorf("bar %s %s: high %s < close %s", b.Symbol, b.Date.Format("2006-01-02"), b.High, b.Close)
	}
	if b.Low.GreaterThan(b.Open) {
		return fmt.Errorf("bar %s %s: low %s > open %s", b.Symbol, b.Date.Format("2006-01-02"), b.Low, b.Open)
	}
	if b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("bar %s %s: low %s > close %s", b.Symbol, b.Date.Format("2006-01-02"), b.Low, b.Close)
	}
	return nil
}

// NValue is an immutable, computed volatility measure for a (symbol, date).
type NValue struct {
	Symbol       string          `json:"symbol"`
	Value        decimal.Decimal `json:"value"`
	Period       int             `json:"period"`
	Method       NMethod         `json:"method"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}

// DonchianChannel is an immutable computed channel for a (symbol, date, period).
type DonchianChannel struct {
	Symbol       string          `json:"symbol"`
	Upper        decimal.Decimal `json:"upper"`
	Lower        decimal.Decimal `json:"lower"`
	Period       DonchianPeriod  `json:"period"`
	CalculatedAt time.Time       `json:"calculatedAt"`
}

// MarketSpec is immutable reference data for a tradeable symbol.
type MarketSpec struct {
	Symbol           string          `json:"symbol"`
	PointValue       decimal.Decimal `json:"pointValue"`
	TickSize         decimal.Decimal `json:"tickSize"`
	CorrelationGroup string          `json:"correlationGroup"`
	AssetClass       string          `json:"assetClass"`
	IsFuture         bool            `json:"isFuture"`
}

// MarketData is the rebuilt-each-cycle view of a market used for decisions.
// It is never mutated in place; a new MarketData is built every scan/cycle.
type MarketData struct {
	Spec         MarketSpec      `json:"spec"`
	CurrentPrice decimal.Decimal `json:"currentPrice"`
	DayHigh      decimal.Decimal `json:"dayHigh"`
	DayLow       decimal.Decimal `json:"dayLow"`
	N            NValue          `json:"n"`
	Donchian10   DonchianChannel `json:"donchian10"`
	Donchian20   DonchianChannel `json:"donchian20"`
	Donchian55   DonchianChannel `json:"donchian55"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// EntryChannel returns the Donchian channel used for entry detection by sys.
func (m MarketData) EntryChannel(sys System) DonchianChannel {
	if sys == SystemS1 {
		return m.Donchian20
	}
	return m.Donchian55
}

// ExitChannel returns the Donchian channel used for breakout exits by sys.
func (m MarketData) ExitChannel(sys System) DonchianChannel {
	if sys == SystemS1 {
		return m.Donchian10
	}
	return m.Donchian20
}

// Signal is an immutable breakout detection result.
type Signal struct {
	Symbol         string          `json:"symbol"`
	System         System          `json:"system"`
	Direction      Direction       `json:"direction"`
	BreakoutPrice  decimal.Decimal `json:"breakoutPrice"`
	TriggeredAt    time.Time       `json:"triggeredAt"`
	DonchianPeriod DonchianPeriod  `json:"donchianPeriod"`
}

// StrengthRank computes (current_price - breakout_price)/N for LONG and the
// inverted value for SHORT, used to rank order placement ("buy strength,
// sell weakness").
func (s Signal) StrengthRank(currentPrice, n decimal.Decimal) decimal.Decimal {
	if n.IsZero() {
		return decimal.Zero
	}
	diff := currentPrice.Sub(s.BreakoutPrice).Div(n)
	if s.Direction == Short {
		return diff.Neg()
	}
	return diff
}
