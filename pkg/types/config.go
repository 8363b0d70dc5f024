// Package types (this file) defines the Rules configuration enumerated in
// full by the spec: every recognized option is a typed field so that an
// unrecognized key loaded from config is a startup error rather than a
// silently-ignored map entry (see internal/config).
package types

import "github.com/shopspring/decimal"

// ExposureMode selects how the limit checker caps total portfolio exposure.
type ExposureMode string

const (
	ExposureUnitCap ExposureMode = "UNIT_CAP"
	ExposureRiskCap ExposureMode = "RISK_CAP"
)

// Rules is the full set of recognized, enumerated trading rule options.
// Every field here must have a corresponding key in internal/config's
// allow-list; an unrecognized config key is a FatalConfig startup error.
type Rules struct {
	RiskFactor              decimal.Decimal `mapstructure:"risk_factor" json:"riskFactor"`
	StopMultiplier          decimal.Decimal `mapstructure:"stop_multiplier" json:"stopMultiplier"`
	PyramidInterval         decimal.Decimal `mapstructure:"pyramid_interval" json:"pyramidInterval"`
	MaxUnitsPerMarket       int             `mapstructure:"max_units_per_market" json:"maxUnitsPerMarket"`
	MaxUnitsCorrelated      int             `mapstructure:"max_units_correlated" json:"maxUnitsCorrelated"`
	MaxTotalExposureMode    ExposureMode    `mapstructure:"max_total_exposure_mode" json:"maxTotalExposureMode"`
	MaxTotalUnits           int             `mapstructure:"max_total_units" json:"maxTotalUnits"`
	RiskCapFraction         decimal.Decimal `mapstructure:"risk_cap_fraction" json:"riskCapFraction"`
	ATRPeriod               int             `mapstructure:"atr_period" json:"atrPeriod"`
	ATRMethod               NMethod         `mapstructure:"atr_method" json:"atrMethod"`
	EntryPeriodS1           int             `mapstructure:"entry_period_s1" json:"entryPeriodS1"`
	EntryPeriodS2           int             `mapstructure:"entry_period_s2" json:"entryPeriodS2"`
	ExitPeriodS1            int             `mapstructure:"exit_period_s1" json:"exitPeriodS1"`
	ExitPeriodS2            int             `mapstructure:"exit_period_s2" json:"exitPeriodS2"`
	DrawdownTrigger         decimal.Decimal `mapstructure:"drawdown_trigger" json:"drawdownTrigger"`
	DrawdownNotionalReduction decimal.Decimal `mapstructure:"drawdown_notional_reduction" json:"drawdownNotionalReduction"`
	NotionalFloor           decimal.Decimal `mapstructure:"notional_floor" json:"notionalFloor"`
	CheckIntervalSeconds    int             `mapstructure:"check_interval_seconds" json:"checkIntervalSeconds"`
	DaysBeforeExpiry        int             `mapstructure:"days_before_expiry" json:"daysBeforeExpiry"`
}

// AllowedRuleKeys is the allow-list internal/config validates loaded keys
// against; it must be kept in sync with the mapstructure tags above.
var AllowedRuleKeys = []string{
	"risk_factor", "stop_multiplier", "pyramid_interval",
	"max_units_per_market", "max_units_correlated",
	"max_total_exposure_mode", "max_total_units", "risk_cap_fraction",
	"atr_period", "atr_method",
	"entry_period_s1", "entry_period_s2", "exit_period_s1", "exit_period_s2",
	"drawdown_trigger", "drawdown_notional_reduction", "notional_floor",
	"check_interval_seconds", "days_before_expiry",
}

// DefaultRules returns the spec's documented defaults.
func DefaultRules() Rules {
	return Rules{
		RiskFactor:                decimal.NewFromFloat(0.005),
		StopMultiplier:            decimal.NewFromInt(2),
		PyramidInterval:           decimal.NewFromFloat(0.5),
		MaxUnitsPerMarket:         4,
		MaxUnitsCorrelated:        6,
		MaxTotalExposureMode:      ExposureRiskCap,
		MaxTotalUnits:             12,
		RiskCapFraction:           decimal.NewFromFloat(0.20),
		ATRPeriod:                 20,
		ATRMethod:                 MethodWilders,
		EntryPeriodS1:             20,
		EntryPeriodS2:             55,
		ExitPeriodS1:              10,
		ExitPeriodS2:              20,
		DrawdownTrigger:           decimal.NewFromFloat(0.10),
		DrawdownNotionalReduction: decimal.NewFromFloat(0.20),
		NotionalFloor:             decimal.NewFromFloat(0.40),
		CheckIntervalSeconds:      60,
		DaysBeforeExpiry:          14,
	}
}

// EntryPeriod returns the Donchian entry period for system sys.
func (r Rules) EntryPeriod(sys System) int {
	if sys == SystemS1 {
		return r.EntryPeriodS1
	}
	return r.EntryPeriodS2
}

// ExitPeriod returns the Donchian exit period for system sys.
func (r Rules) ExitPeriod(sys System) int {
	if sys == SystemS1 {
		return r.ExitPeriodS1
	}
	return r.ExitPeriodS2
}

// Portfolio is a point-in-time snapshot of account equity and open
// positions. Portfolio values here are plain data; internal/portfolio owns
// the mutex-guarded live instance and the drawdown-tracking update path.
type Portfolio struct {
	ID              string              `json:"id"`
	ActualEquity    decimal.Decimal     `json:"actualEquity"`
	PeakEquity      decimal.Decimal     `json:"peakEquity"`
	NotionalEquity  decimal.Decimal     `json:"notionalEquity"`
	Positions       map[string]*Position `json:"positions"`
	Rules           Rules               `json:"rules"`
}

// Drawdown returns (peak - actual) / peak, or zero if peak is zero.
func (p Portfolio) Drawdown() decimal.Decimal {
	if p.PeakEquity.IsZero() {
		return decimal.Zero
	}
	return p.PeakEquity.Sub(p.ActualEquity).Div(p.PeakEquity)
}

// TotalUnits sums total_units across every open position.
func (p Portfolio) TotalUnits() int {
	total := 0
	for _, pos := range p.Positions {
		total += pos.TotalUnits()
	}
	return total
}

// UnitsInGroup sums total_units across positions sharing correlationGroup.
func (p Portfolio) UnitsInGroup(correlationGroup string) int {
	total := 0
	for _, pos := range p.Positions {
		if pos.CorrelationGroup == correlationGroup {
			total += pos.TotalUnits()
		}
	}
	return total
}
