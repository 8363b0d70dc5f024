package engine

import (
	"time"

	"github.com/turtletrader/engine/pkg/types"
)

// RolloverDetector flags futures positions approaching contract expiry so
// the orchestrator can roll them to the next contract month.
type RolloverDetector struct {
	daysBeforeExpiry int
}

// NewRolloverDetector builds a detector using the configured lead time.
func NewRolloverDetector(daysBeforeExpiry int) *RolloverDetector {
	return &RolloverDetector{daysBeforeExpiry: daysBeforeExpiry}
}

// NeedsRollover reports whether expiry is within the configured lead time
// of asOf. Only IsFuture markets are ever subject to rollover.
func (d *RolloverDetector) NeedsRollover(spec types.MarketSpec, expiry, asOf time.Time) bool {
	if !spec.IsFuture {
		return false
	}
	cutoff := expiry.AddDate(0, 0, -d.daysBeforeExpiry)
	return !asOf.Before(cutoff)
}

// CarryForward builds the rolled position's opening state from the expiring
// position: N and the current stop are preserved unchanged across rollover
// rather than recalculated against the new contract (the spec's Open
// Question resolution — see SPEC_FULL.md §9 — is that N is a volatility
// measure of the underlying, not of any one contract month, so re-seeding
// it at roll time would introduce a discontinuity the system never
// intended).
func CarryForward(expiring types.Position, newSymbol string) types.Position {
	rolled := expiring
	rolled.Symbol = newSymbol
	return rolled
}
