package risk_test

import (
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/risk"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func positionWithUnits(symbol, group string, units int) *types.Position {
	levels := make([]types.PyramidLevel, units)
	for i := range levels {
		levels[i] = types.PyramidLevel{UnitNumber: i + 1, Contracts: 1, EntryPrice: decimal.NewFromInt(100), EntryTime: time.Now()}
	}
	return &types.Position{
		ID: symbol, Symbol: symbol, Direction: types.Long, System: types.SystemS1,
		CorrelationGroup: group, PyramidLevels: levels,
	}
}

// TestLimitChecker_CorrelationDenial covers testable-properties scenario 5:
// portfolio holds 6 units across metals_precious (at the cap); a new
// candidate in the same group is denied for correlation, not silver itself.
func TestLimitChecker_CorrelationDenial(t *testing.T) {
	rules := types.DefaultRules()
	portfolio := types.Portfolio{
		Rules: rules,
		Positions: map[string]*types.Position{
			"GC": positionWithUnits("GC", "metals_precious", 6),
		},
	}

	checker := risk.NewLimitChecker(zap.NewNop())
	verdict := checker.Check(portfolio, "SI", "metals_precious", decimal.NewFromInt(100000))

	if verdict.Allowed {
		t.Fatal("expected denial for correlation group at cap")
	}
	if verdict.Reason != risk.DenyCorrelation {
		t.Errorf("reason = %s, want %s", verdict.Reason, risk.DenyCorrelation)
	}
}

func TestLimitChecker_PerMarketDenial(t *testing.T) {
	rules := types.DefaultRules()
	portfolio := types.Portfolio{
		Rules: rules,
		Positions: map[string]*types.Position{
			"CL": positionWithUnits("CL", "energy", rules.MaxUnitsPerMarket),
		},
	}

	checker := risk.NewLimitChecker(zap.NewNop())
	verdict := checker.Check(portfolio, "CL", "energy", decimal.NewFromInt(100000))
	if verdict.Allowed || verdict.Reason != risk.DenyPerMarket {
		t.Errorf("expected per-market denial, got %+v", verdict)
	}
}

func TestLimitChecker_AllowsWithinAllLimits(t *testing.T) {
	rules := types.DefaultRules()
	portfolio := types.Portfolio{Rules: rules, Positions: map[string]*types.Position{}}

	checker := risk.NewLimitChecker(zap.NewNop())
	verdict := checker.Check(portfolio, "ES", "equity_index", decimal.NewFromInt(100000))
	if !verdict.Allowed {
		t.Errorf("expected allow for empty portfolio, got %+v", verdict)
	}
}
