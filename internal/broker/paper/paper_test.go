package paper_test

import (
	"context"
	"testing"

	"github.com/turtletrader/engine/internal/broker"
	"github.com/turtletrader/engine/internal/broker/paper"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestBroker_PlaceOrder_FillsAtRequestedPriceUnderDefaultConfig(t *testing.T) {
	b := paper.New(zap.NewNop(), paper.DefaultConfig(), decimal.NewFromInt(100000))

	fill, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "CL", Side: types.Long, Contracts: 3, LimitPrice: decimal.NewFromInt(2800),
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if !fill.FillPrice.Equal(decimal.NewFromInt(2800)) {
		t.Errorf("FillPrice = %s, want 2800 (no slippage configured)", fill.FillPrice)
	}
	if !fill.Commission.IsZero() {
		t.Errorf("Commission = %s, want 0", fill.Commission)
	}
}

func TestBroker_PlaceOrder_SlippageAdverseToSide(t *testing.T) {
	cfg := paper.Config{
		CommissionPerContract: decimal.Zero,
		SlippageTicks:         decimal.NewFromInt(2),
		TickSize:              decimal.NewFromFloat(0.25),
	}
	b := paper.New(zap.NewNop(), cfg, decimal.NewFromInt(100000))

	longFill, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "CL", Side: types.Long, Contracts: 1, LimitPrice: decimal.NewFromInt(2800),
	})
	if err != nil {
		t.Fatalf("PlaceOrder long: %v", err)
	}
	// LONG slips up (worse fill): 2800 + 2*0.25 = 2800.5
	if !longFill.FillPrice.Equal(decimal.NewFromFloat(2800.5)) {
		t.Errorf("long fill price = %s, want 2800.5", longFill.FillPrice)
	}

	shortFill, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "CL", Side: types.Short, Contracts: 1, LimitPrice: decimal.NewFromInt(2800),
	})
	if err != nil {
		t.Fatalf("PlaceOrder short: %v", err)
	}
	// SHORT slips down (worse fill): 2800 - 0.5 = 2799.5
	if !shortFill.FillPrice.Equal(decimal.NewFromFloat(2799.5)) {
		t.Errorf("short fill price = %s, want 2799.5", shortFill.FillPrice)
	}
}

func TestBroker_PlaceOrder_ChargesCommissionAgainstEquity(t *testing.T) {
	cfg := paper.Config{
		CommissionPerContract: decimal.NewFromInt(5),
		SlippageTicks:         decimal.Zero,
		TickSize:              decimal.NewFromInt(1),
	}
	b := paper.New(zap.NewNop(), cfg, decimal.NewFromInt(100000))

	if _, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "CL", Side: types.Long, Contracts: 4, LimitPrice: decimal.NewFromInt(2800),
	}); err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}

	equity, err := b.AccountEquity(context.Background())
	if err != nil {
		t.Fatalf("AccountEquity: %v", err)
	}
	if !equity.Equal(decimal.NewFromInt(99980)) {
		t.Errorf("equity after commission = %s, want 99980 (4 contracts * 5)", equity)
	}
}

func TestBroker_PlaceOrder_RejectsNonPositiveContracts(t *testing.T) {
	b := paper.New(zap.NewNop(), paper.DefaultConfig(), decimal.NewFromInt(100000))
	_, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
		Symbol: "CL", Side: types.Long, Contracts: 0, LimitPrice: decimal.NewFromInt(2800),
	})
	if err == nil {
		t.Fatal("expected error for zero contracts")
	}
}

func TestBroker_ApplyRealizedPnL(t *testing.T) {
	b := paper.New(zap.NewNop(), paper.DefaultConfig(), decimal.NewFromInt(100000))
	b.ApplyRealizedPnL(decimal.NewFromInt(-2500))

	equity, err := b.AccountEquity(context.Background())
	if err != nil {
		t.Fatalf("AccountEquity: %v", err)
	}
	if !equity.Equal(decimal.NewFromInt(97500)) {
		t.Errorf("equity after realized loss = %s, want 97500", equity)
	}
}

func TestBroker_FillsAccumulate(t *testing.T) {
	b := paper.New(zap.NewNop(), paper.DefaultConfig(), decimal.NewFromInt(100000))
	for i := 0; i < 3; i++ {
		if _, err := b.PlaceOrder(context.Background(), broker.OrderRequest{
			Symbol: "CL", Side: types.Long, Contracts: 1, LimitPrice: decimal.NewFromInt(2800),
		}); err != nil {
			t.Fatalf("PlaceOrder: %v", err)
		}
	}
	if len(b.Fills()) != 3 {
		t.Errorf("Fills() len = %d, want 3", len(b.Fills()))
	}
}
