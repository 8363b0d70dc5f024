package sizing_test

import (
	"testing"

	"github.com/turtletrader/engine/internal/sizing"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TestUnitSizer_Calculate covers §4.F: risk_amount = 1000, stop_risk =
// N * point_value * stop_multiplier = 2*100*2 = 400, contracts =
// floor(1000/400) = 2 — a unit is sized so a 2N adverse move costs exactly
// risk_factor of equity, not 2x that.
func TestUnitSizer_Calculate(t *testing.T) {
	s := sizing.NewUnitSizer(zap.NewNop(), sizing.Config{
		RiskFactor:     decimal.NewFromFloat(0.01),
		StopMultiplier: decimal.NewFromInt(2),
	})
	result, err := s.Calculate(sizing.Request{
		Symbol:        "CL",
		AccountEquity: decimal.NewFromInt(100000),
		N:             decimal.NewFromInt(2),
		PointValue:    decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if result.Contracts != 2 {
		t.Errorf("contracts = %d, want 2", result.Contracts)
	}
}

func TestUnitSizer_ZeroSizeWhenUnaffordable(t *testing.T) {
	s := sizing.NewUnitSizer(zap.NewNop(), sizing.Config{
		RiskFactor:     decimal.NewFromFloat(0.005),
		StopMultiplier: decimal.NewFromInt(2),
	})
	result, err := s.Calculate(sizing.Request{
		Symbol:        "ES",
		AccountEquity: decimal.NewFromInt(1000),
		N:             decimal.NewFromInt(50),
		PointValue:    decimal.NewFromInt(50),
	})
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}
	if result.Contracts > 0 {
		t.Errorf("expected zero/negative contracts for unaffordable risk, got %d", result.Contracts)
	}
}

func TestUnitSizer_RejectsNonPositiveN(t *testing.T) {
	s := sizing.NewUnitSizer(zap.NewNop(), sizing.DefaultConfig())
	_, err := s.Calculate(sizing.Request{
		Symbol: "GC", AccountEquity: decimal.NewFromInt(100000),
		N: decimal.Zero, PointValue: decimal.NewFromInt(100),
	})
	if err == nil {
		t.Fatal("expected error for zero N")
	}
}

// TestStopCalculator_LongStop covers testable-properties scenario 2: entry
// 2800, N 20, LONG, multiplier 2 -> stop 2760.
func TestStopCalculator_LongStop(t *testing.T) {
	c := sizing.NewStopCalculator(decimal.NewFromInt(2))
	stop := c.InitialStop(decimal.NewFromInt(2800), decimal.NewFromInt(20), types.Long)
	if !stop.Equal(decimal.NewFromInt(2760)) {
		t.Errorf("stop = %s, want 2760", stop)
	}
}

func TestStopCalculator_ShortStopAboveEntry(t *testing.T) {
	c := sizing.NewStopCalculator(decimal.NewFromInt(2))
	stop := c.InitialStop(decimal.NewFromInt(2800), decimal.NewFromInt(20), types.Short)
	if !stop.Equal(decimal.NewFromInt(2840)) {
		t.Errorf("stop = %s, want 2840", stop)
	}
}

func TestStopCalculator_WholeUnitStop_TighteningOnly(t *testing.T) {
	c := sizing.NewStopCalculator(decimal.NewFromInt(2))

	// LONG: a looser new stop must not widen the position stop.
	got := c.WholeUnitStop(decimal.NewFromInt(2760), decimal.NewFromInt(2700), types.Long)
	if !got.Equal(decimal.NewFromInt(2760)) {
		t.Errorf("long whole-unit stop regressed to looser value: got %s, want 2760", got)
	}

	// LONG: a tighter new stop must advance the position stop, matching
	// scenario 3 (new_stop = 2770 after pyramid at 2810, N=20).
	got = c.WholeUnitStop(decimal.NewFromInt(2760), decimal.NewFromInt(2770), types.Long)
	if !got.Equal(decimal.NewFromInt(2770)) {
		t.Errorf("long whole-unit stop = %s, want 2770", got)
	}
}
