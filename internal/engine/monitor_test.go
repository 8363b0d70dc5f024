package engine_test

import (
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/engine"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

func basePosition() types.Position {
	return types.Position{
		ID: "p1", Symbol: "CL", Direction: types.Long, System: types.SystemS1,
		PyramidLevels: []types.PyramidLevel{{
			UnitNumber: 1, Contracts: 3, EntryPrice: decimal.NewFromInt(2800),
			EntryTime: time.Now(), NAtEntry: decimal.NewFromInt(20), OriginalStop: decimal.NewFromInt(2760),
		}},
		CurrentStop: decimal.NewFromInt(2760),
	}
}

func baseMarket() types.MarketData {
	return types.MarketData{
		CurrentPrice: decimal.NewFromInt(2800),
		DayHigh:      decimal.NewFromInt(2805),
		DayLow:       decimal.NewFromInt(2795),
		Donchian10:   types.DonchianChannel{Upper: decimal.NewFromInt(2850), Lower: decimal.NewFromInt(2750), Period: types.Donchian10},
		Donchian20:   types.DonchianChannel{Upper: decimal.NewFromInt(2870), Lower: decimal.NewFromInt(2730), Period: types.Donchian20},
	}
}

// TestDecide_StopBeatsEverything covers the §8 priority property: a stop hit
// wins even when a breakout exit or pyramid trigger would also apply.
func TestDecide_StopBeatsEverything(t *testing.T) {
	pos := basePosition()
	market := baseMarket()
	market.DayLow = decimal.NewFromInt(2750) // through both the stop and the exit channel lower

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionExitStop {
		t.Fatalf("action = %s, want EXIT_STOP", d.Action)
	}
}

func TestDecide_BreakoutExitBeatsPyramid(t *testing.T) {
	pos := basePosition()
	pos.CurrentStop = decimal.NewFromInt(2700)
	market := baseMarket()
	market.DayLow = decimal.NewFromInt(2725)       // through the S1 exit channel lower (2750), not the stop (2700)
	market.CurrentPrice = decimal.NewFromInt(2810) // also past the pyramid trigger

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionExitBreakout {
		t.Fatalf("action = %s, want EXIT_BREAKOUT", d.Action)
	}
}

// TestDecide_Pyramid covers scenario 3: entry 2800, N 20, pyramidInterval
// 0.5 -> trigger 2810; current price at or past the trigger fires PYRAMID.
func TestDecide_Pyramid(t *testing.T) {
	pos := basePosition()
	market := baseMarket()
	market.CurrentPrice = decimal.NewFromInt(2810)

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionPyramid {
		t.Fatalf("action = %s, want PYRAMID", d.Action)
	}
	if !d.TriggerPrice.Equal(decimal.NewFromInt(2810)) {
		t.Errorf("trigger = %s, want 2810", d.TriggerPrice)
	}
}

func TestDecide_PyramidBlockedAtMaxUnits(t *testing.T) {
	pos := basePosition()
	pos.PyramidLevels = append(pos.PyramidLevels, pos.PyramidLevels[0], pos.PyramidLevels[0], pos.PyramidLevels[0])
	market := baseMarket()
	market.CurrentPrice = decimal.NewFromInt(2810)

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionHold {
		t.Fatalf("action = %s, want HOLD when already at max units", d.Action)
	}
}

func TestDecide_Hold(t *testing.T) {
	pos := basePosition()
	market := baseMarket()

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionHold {
		t.Fatalf("action = %s, want HOLD", d.Action)
	}
}

// TestDecide_PyramidExactTriggerFires confirms the pyramid check uses
// current_price with non-strict inequality (unlike signal detection).
func TestDecide_PyramidExactTriggerFires(t *testing.T) {
	pos := basePosition()
	market := baseMarket()
	market.CurrentPrice = decimal.NewFromInt(2810) // exactly the trigger

	d := engine.Decide(pos, market, decimal.NewFromFloat(0.5), 4)
	if d.Action != engine.ActionPyramid {
		t.Fatalf("action = %s, want PYRAMID at exact trigger", d.Action)
	}
}
