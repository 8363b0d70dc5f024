package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason records why a trade was closed.
type ExitReason string

const (
	ExitStopHit       ExitReason = "STOP_HIT"
	ExitBreakoutExit  ExitReason = "BREAKOUT_EXIT"
	ExitManual        ExitReason = "MANUAL"
	ExitRollover      ExitReason = "ROLLOVER"
)

// Trade is the append-only audit record of a completed (or in-flight) trade,
// distinct from Position: Position is live-mutable state, Trade is the
// historical record persisted once the position is opened and finalized once
// it is closed.
type Trade struct {
	ID              string          `json:"id"`
	Symbol          string          `json:"symbol"`
	System          System          `json:"system"`
	Direction       Direction       `json:"direction"`
	EntryDate       time.Time       `json:"entryDate"`
	EntryPrice      decimal.Decimal `json:"entryPrice"`
	NAtEntry        decimal.Decimal `json:"nAtEntry"`
	InitialStop     decimal.Decimal `json:"initialStop"`
	PyramidLevels   []PyramidLevel  `json:"pyramidLevels"`
	MaxUnits        int             `json:"maxUnits"`
	ExitDate        *time.Time      `json:"exitDate,omitempty"`
	ExitPrice       *decimal.Decimal `json:"exitPrice,omitempty"`
	ExitReason      ExitReason      `json:"exitReason,omitempty"`
	RealizedPnL     *decimal.Decimal `json:"realizedPnl,omitempty"`
	CommissionTotal decimal.Decimal `json:"commissionTotal"`
	NetPnL          *decimal.Decimal `json:"netPnl,omitempty"`
}

// IsClosed reports whether the trade has an exit recorded.
func (t Trade) IsClosed() bool {
	return t.ExitDate != nil
}

// WasWinner reports net_pnl > 0 once closed; an open trade is never a winner.
func (t Trade) WasWinner() bool {
	return t.NetPnL != nil && t.NetPnL.IsPositive()
}

// Finalize closes the trade record with an exit and computed P&L, matching
// the fields the exit handler (§4.M) is responsible for filling in.
func (t *Trade) Finalize(exitDate time.Time, exitPrice, realizedPnL decimal.Decimal, reason ExitReason) {
	t.ExitDate = &exitDate
	price := exitPrice
	t.ExitPrice = &price
	t.ExitReason = reason
	pnl := realizedPnL
	t.RealizedPnL = &pnl
	net := realizedPnL.Sub(t.CommissionTotal)
	t.NetPnL = &net
}
