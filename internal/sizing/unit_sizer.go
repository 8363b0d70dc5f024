// Package sizing computes unit size (contracts per unit) and initial stop
// placement from account equity, N, and market point value.
package sizing

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the sizing inputs that come from Rules rather than from a
// single call's market snapshot.
type Config struct {
	RiskFactor     decimal.Decimal
	StopMultiplier decimal.Decimal
}

// DefaultConfig mirrors the spec's documented default risk factor and stop
// multiplier.
func DefaultConfig() Config {
	return Config{RiskFactor: decimal.NewFromFloat(0.005), StopMultiplier: decimal.NewFromInt(2)}
}

// Request bundles the inputs to a single unit-size calculation.
type Request struct {
	Symbol       string
	AccountEquity decimal.Decimal
	N             decimal.Decimal
	PointValue    decimal.Decimal
}

// Result is the computed unit size along with the risk amount it was
// derived from, useful for logging and for the Event context.
type Result struct {
	Symbol     string
	Contracts  int64
	RiskAmount decimal.Decimal
	StopRisk   decimal.Decimal
}

// UnitSizer computes unit_size = floor(risk_amount / stop_risk), where
// risk_amount = account_equity * risk_factor and stop_risk = N * point_value
// * stop_multiplier — the dollar cost of the 2N adverse move a unit's stop
// is calibrated to absorb, per §4.F.
type UnitSizer struct {
	logger *zap.Logger
	config Config
}

// NewUnitSizer builds a UnitSizer with a "unit" sub-logger of logger.
func NewUnitSizer(logger *zap.Logger, config Config) *UnitSizer {
	return &UnitSizer{logger: logger.Named("unit"), config: config}
}

// Calculate computes the unit size for req. N and point value must be
// positive; a zero or negative unit size is returned (not an error) when
// the risk amount can't afford even one contract, leaving the caller
// (the limit checker / scanner) to treat it as a skip.
func (s *UnitSizer) Calculate(req Request) (Result, error) {
	if !req.N.IsPositive() {
		return Result{}, fmt.Errorf("unit sizing %s: N must be positive, got %s", req.Symbol, req.N)
	}
	if !req.PointValue.IsPositive() {
		return Result{}, fmt.Errorf("unit sizing %s: point value must be positive, got %s", req.Symbol, req.PointValue)
	}

	riskAmount := req.AccountEquity.Mul(s.config.RiskFactor)
	stopRisk := req.N.Mul(req.PointValue).Mul(s.config.StopMultiplier)

	contracts := riskAmount.Div(stopRisk).Floor().IntPart()

	result := Result{
		Symbol:     req.Symbol,
		Contracts:  contracts,
		RiskAmount: riskAmount,
		StopRisk:   stopRisk,
	}

	s.logger.Debug("unit size computed",
		zap.String("symbol", req.Symbol),
		zap.Int64("contracts", contracts),
		zap.String("riskAmount", riskAmount.String()),
	)

	return result, nil
}
