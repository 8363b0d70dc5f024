package risk

import (
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DenialReason identifies which limit rejected a candidate unit.
type DenialReason string

const (
	DenyNone           DenialReason = ""
	DenyPerMarket      DenialReason = "PER_MARKET_LIMIT"
	DenyCorrelation    DenialReason = "CORRELATION_LIMIT"
	DenyTotalExposure  DenialReason = "TOTAL_EXPOSURE_LIMIT"
)

// Verdict is the result of checking a candidate unit against every limit.
// Unlike the teacher's violation-accumulating risk manager, the limit
// checker here stops at the first failing limit and reports only that one:
// the spec calls for a single pass/fail verdict, not a full violation list
// (see the limit checker section, §4.I, of SPEC_FULL.md for this narrowing).
type Verdict struct {
	Allowed bool
	Reason  DenialReason
	Detail  string
}

// LimitChecker enforces per-market, correlation-group, and total-exposure
// unit caps, in that order, against a live Portfolio snapshot.
type LimitChecker struct {
	logger *zap.Logger
}

// NewLimitChecker builds a LimitChecker with a "limits" sub-logger of logger.
func NewLimitChecker(logger *zap.Logger) *LimitChecker {
	return &LimitChecker{logger: logger.Named("limits")}
}

// Check evaluates whether one more unit may be added to symbol in
// correlationGroup, given the current portfolio and the drawdown tracker's
// notional equity (used for the RISK_CAP exposure mode). Limits are checked
// in order: per-market, correlation, total exposure — the first failure
// wins.
func (c *LimitChecker) Check(portfolio types.Portfolio, symbol, correlationGroup string, notionalEquity decimal.Decimal) Verdict {
	marketUnits := 0
	if pos, ok := portfolio.Positions[symbol]; ok {
		marketUnits = pos.TotalUnits()
	}
	if marketUnits >= portfolio.Rules.MaxUnitsPerMarket {
		return Verdict{
			Reason: DenyPerMarket,
			Detail: "market already at max units per market",
		}
	}

	groupUnits := portfolio.UnitsInGroup(correlationGroup)
	if groupUnits >= portfolio.Rules.MaxUnitsCorrelated {
		return Verdict{
			Reason: DenyCorrelation,
			Detail: "correlation group already at max correlated units",
		}
	}

	totalUnits := portfolio.TotalUnits()
	switch portfolio.Rules.MaxTotalExposureMode {
	case types.ExposureUnitCap:
		if totalUnits >= portfolio.Rules.MaxTotalUnits {
			return Verdict{Reason: DenyTotalExposure, Detail: "portfolio already at max total units"}
		}
	case types.ExposureRiskCap:
		riskAtCap := notionalEquity.Mul(portfolio.Rules.RiskCapFraction)
		currentRisk := decimal.NewFromInt(int64(totalUnits)).Mul(notionalEquity).Mul(portfolio.Rules.RiskFactor)
		if currentRisk.GreaterThanOrEqual(riskAtCap) {
			return Verdict{Reason: DenyTotalExposure, Detail: "portfolio already at risk cap"}
		}
	}

	return Verdict{Allowed: true}
}
