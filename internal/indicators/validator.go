package indicators

import (
	"fmt"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BadTickThreshold is the fractional move (relative to the prior close)
// above which an incoming bar is logged as a suspected bad tick but still
// accepted, matching the spec's "warn, don't block" posture for data that
// is merely suspicious rather than structurally invalid.
var BadTickThreshold = decimal.NewFromFloat(0.20)

// Validator checks incoming bars for structural validity (via
// types.Bar.Validate) and flags suspiciously large moves for operator
// review without rejecting them outright.
type Validator struct {
	log *zap.Logger
}

// NewValidator builds a Validator with a "validator" sub-logger of log.
func NewValidator(log *zap.Logger) *Validator {
	return &Validator{log: log.Named("validator")}
}

// Validate runs the bar's structural invariant checks and, given the prior
// bar's close, compares the move against BadTickThreshold. Structural
// violations return an error; bad-tick moves only produce a warning log.
func (v *Validator) Validate(bar types.Bar, prevClose decimal.Decimal) error {
	if err := bar.Validate(); err != nil {
		return fmt.Errorf("bar %s %s: %w", bar.Symbol, bar.Date.Format("2006-01-02"), err)
	}

	if prevClose.IsZero() {
		return nil
	}

	move := bar.Close.Sub(prevClose).Abs().Div(prevClose)
	if move.GreaterThan(BadTickThreshold) {
		v.log.Warn("suspected bad tick",
			zap.String("symbol", bar.Symbol),
			zap.Time("date", bar.Date),
			zap.String("prevClose", prevClose.String()),
			zap.String("close", bar.Close.String()),
			zap.String("move", move.String()),
		)
	}

	return nil
}

// ValidateSeries validates an ordered bar history, returning the first
// structural error encountered. Bad-tick warnings within the series do not
// stop validation.
func (v *Validator) ValidateSeries(bars []types.Bar) error {
	var prevClose decimal.Decimal
	for _, bar := range bars {
		if err := v.Validate(bar, prevClose); err != nil {
			return err
		}
		prevClose = bar.Close
	}
	return nil
}
