package indicators_test

import (
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/indicators"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestValidator_RejectsStructurallyInvalidBar(t *testing.T) {
	v := indicators.NewValidator(zap.NewNop())
	bad := types.Bar{
		Symbol: "TEST", Date: time.Now(),
		Open: decimal.NewFromInt(100), High: decimal.NewFromInt(90),
		Low: decimal.NewFromInt(95), Close: decimal.NewFromInt(98),
	}
	if err := v.Validate(bad, decimal.NewFromInt(100)); err == nil {
		t.Fatal("expected structural validation error for high < low")
	}
}

func TestValidator_WarnsButAllowsBadTick(t *testing.T) {
	v := indicators.NewValidator(zap.NewNop())
	bar := types.Bar{
		Symbol: "TEST", Date: time.Now(),
		Open: decimal.NewFromInt(150), High: decimal.NewFromInt(155),
		Low: decimal.NewFromInt(149), Close: decimal.NewFromInt(152),
	}
	// 50% move from previous close of 100 exceeds the 20% bad-tick threshold
	// but must only warn, never reject.
	if err := v.Validate(bar, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("bad-tick move must not be rejected, got: %v", err)
	}
}

func TestValidator_ValidateSeries(t *testing.T) {
	v := indicators.NewValidator(zap.NewNop())
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := []types.Bar{
		{Symbol: "TEST", Date: base, Open: decimal.NewFromInt(100), High: decimal.NewFromInt(101), Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(100)},
		{Symbol: "TEST", Date: base.AddDate(0, 0, 1), Open: decimal.NewFromInt(100), High: decimal.NewFromInt(102), Low: decimal.NewFromInt(99), Close: decimal.NewFromInt(101)},
	}
	if err := v.ValidateSeries(bars); err != nil {
		t.Fatalf("ValidateSeries: %v", err)
	}
}
