package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// PyramidLevel is an immutable record of a single unit added to a position.
type PyramidLevel struct {
	UnitNumber    int             `json:"unitNumber"`
	EntryPrice    decimal.Decimal `json:"entryPrice"`
	EntryTime     time.Time       `json:"entryTime"`
	NAtEntry      decimal.Decimal `json:"nAtEntry"`
	Contracts     int64           `json:"contracts"`
	OriginalStop  decimal.Decimal `json:"originalStop"`
}

// Position is the aggregate root for an open trade: a symbol, direction,
// system, and an ordered list of pyramid levels sharing one current stop.
//
// All fields besides CurrentStop and PyramidLevels are set at construction.
// Mutation is restricted to the two protocols described in internal/position
// (AppendPyramid, Close); this struct itself holds only plain data and pure
// derived-quantity methods so it can be freely copied for snapshots.
type Position struct {
	ID               string          `json:"id"`
	Symbol           string          `json:"symbol"`
	Direction        Direction       `json:"direction"`
	System           System          `json:"system"`
	CorrelationGroup string          `json:"correlationGroup"`
	PointValue       decimal.Decimal `json:"pointValue"`
	PyramidLevels    []PyramidLevel  `json:"pyramidLevels"`
	CurrentStop      decimal.Decimal `json:"currentStop"`
	OpenedAt         time.Time       `json:"openedAt"`
	Closed           bool            `json:"closed"`
}

// TotalUnits is the number of pyramid levels (units) in the position.
func (p Position) TotalUnits() int {
	return len(p.PyramidLevels)
}

// TotalContracts sums contracts across every pyramid level.
func (p Position) TotalContracts() int64 {
	var total int64
	for _, lvl := range p.PyramidLevels {
		total += lvl.Contracts
	}
	return total
}

// AverageEntry is the contract-weighted average entry price across levels.
func (p Position) AverageEntry() decimal.Decimal {
	total := p.TotalContracts()
	if total == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, lvl := range p.PyramidLevels {
		sum = sum.Add(lvl.EntryPrice.Mul(decimal.NewFromInt(lvl.Contracts)))
	}
	return sum.Div(decimal.NewFromInt(total))
}

// LatestEntry returns the most recently appended pyramid level. The zero
// value is returned if the position has no levels (should not happen for a
// constructed position, since every Position is created with unit 1).
func (p Position) LatestEntry() PyramidLevel {
	if len(p.PyramidLevels) == 0 {
		return PyramidLevel{}
	}
	return p.PyramidLevels[len(p.PyramidLevels)-1]
}

// NextPyramidTrigger is latest_entry.entry_price +/- pyramid_interval * N,
// signed by direction (LONG advances up, SHORT advances down).
func (p Position) NextPyramidTrigger(pyramidInterval decimal.Decimal) decimal.Decimal {
	latest := p.LatestEntry()
	offset := pyramidInterval.Mul(latest.NAtEntry).Mul(decimal.NewFromInt(p.Direction.Sign()))
	return latest.EntryPrice.Add(offset)
}

// CanPyramid reports whether another unit may be added under maxPerMarket.
func (p Position) CanPyramid(maxPerMarket int) bool {
	return p.TotalUnits() < maxPerMarket
}
