package engine_test

import (
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/engine"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

func TestRolloverDetector_NeedsRollover(t *testing.T) {
	d := engine.NewRolloverDetector(14)
	spec := types.MarketSpec{IsFuture: true}
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if d.NeedsRollover(spec, expiry, expiry.AddDate(0, 0, -20)) {
		t.Error("must not need rollover 20 days before expiry with a 14-day lead")
	}
	if !d.NeedsRollover(spec, expiry, expiry.AddDate(0, 0, -14)) {
		t.Error("must need rollover exactly at the lead-time cutoff")
	}
}

func TestRolloverDetector_NonFutureNeverRolls(t *testing.T) {
	d := engine.NewRolloverDetector(14)
	spec := types.MarketSpec{IsFuture: false}
	expiry := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if d.NeedsRollover(spec, expiry, expiry) {
		t.Error("non-future markets must never roll")
	}
}

// TestCarryForward covers the §9 Open Question resolution: N and the
// current stop survive rollover unchanged, only the symbol changes.
func TestCarryForward(t *testing.T) {
	expiring := types.Position{
		Symbol: "CLZ26", CurrentStop: decimal.NewFromInt(2760),
		PyramidLevels: []types.PyramidLevel{{NAtEntry: decimal.NewFromInt(20), Contracts: 3}},
	}

	rolled := engine.CarryForward(expiring, "CLF27")
	if rolled.Symbol != "CLF27" {
		t.Errorf("Symbol = %s, want CLF27", rolled.Symbol)
	}
	if !rolled.CurrentStop.Equal(decimal.NewFromInt(2760)) {
		t.Errorf("CurrentStop changed across rollover: got %s", rolled.CurrentStop)
	}
	if !rolled.PyramidLevels[0].NAtEntry.Equal(decimal.NewFromInt(20)) {
		t.Errorf("N changed across rollover: got %s", rolled.PyramidLevels[0].NAtEntry)
	}
}
