package risk_test

import (
	"testing"

	"github.com/turtletrader/engine/internal/risk"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func defaultDrawdownConfig() risk.DrawdownConfig {
	return risk.DrawdownConfig{
		Trigger:           decimal.NewFromFloat(0.10),
		NotionalReduction: decimal.NewFromFloat(0.20),
		NotionalFloor:     decimal.NewFromFloat(0.40),
	}
}

// TestDrawdownTracker_ReductionLadder covers testable-properties scenario 6:
// peak 100000, actual falls to 88000 -> one reduction step, notional 70400.
// Actual recovering to 100000 restores notional to 100000.
func TestDrawdownTracker_ReductionLadder(t *testing.T) {
	tr := risk.NewDrawdownTracker(zap.NewNop(), defaultDrawdownConfig(), decimal.NewFromInt(100000))

	tr.UpdateEquity(decimal.NewFromInt(88000))
	if !tr.NotionalEquity().Equal(decimal.NewFromInt(70400)) {
		t.Errorf("notional after drawdown = %s, want 70400", tr.NotionalEquity())
	}

	tr.UpdateEquity(decimal.NewFromInt(100000))
	if !tr.NotionalEquity().Equal(decimal.NewFromInt(100000)) {
		t.Errorf("notional after recovery = %s, want 100000", tr.NotionalEquity())
	}
}

// TestDrawdownTracker_ReductionLadderIsLinearNotCompounding covers §4.H at 2
// reduction steps, where the linear and compounding formulas diverge: peak
// 100000, actual 80000 (drawdown 0.20, trigger 0.10) -> 2 steps. Linear gives
// 80000 * (1 - 2*0.20) = 48000; compounding would give 80000 * 0.8^2 = 51200.
func TestDrawdownTracker_ReductionLadderIsLinearNotCompounding(t *testing.T) {
	tr := risk.NewDrawdownTracker(zap.NewNop(), defaultDrawdownConfig(), decimal.NewFromInt(100000))

	tr.UpdateEquity(decimal.NewFromInt(80000))
	if !tr.NotionalEquity().Equal(decimal.NewFromInt(48000)) {
		t.Errorf("notional after 2-step drawdown = %s, want 48000 (linear), not 51200 (compounding)", tr.NotionalEquity())
	}
}

func TestDrawdownTracker_PeakNonDecreasing(t *testing.T) {
	tr := risk.NewDrawdownTracker(zap.NewNop(), defaultDrawdownConfig(), decimal.NewFromInt(100000))
	tr.UpdateEquity(decimal.NewFromInt(120000))
	tr.UpdateEquity(decimal.NewFromInt(110000))
	if !tr.PeakEquity().Equal(decimal.NewFromInt(120000)) {
		t.Errorf("peak must not decrease: got %s, want 120000", tr.PeakEquity())
	}
}

func TestDrawdownTracker_NotionalNeverBelowFloor(t *testing.T) {
	tr := risk.NewDrawdownTracker(zap.NewNop(), defaultDrawdownConfig(), decimal.NewFromInt(100000))
	tr.UpdateEquity(decimal.NewFromInt(40000))
	floor := tr.ActualEquity().Mul(decimal.NewFromFloat(0.40))
	if tr.NotionalEquity().LessThan(floor) {
		t.Errorf("notional %s fell below floor %s", tr.NotionalEquity(), floor)
	}
}
