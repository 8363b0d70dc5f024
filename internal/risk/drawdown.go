// Package risk tracks drawdown-driven notional equity reduction and
// enforces per-market, correlation-group, and total-exposure unit limits.
package risk

import (
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DrawdownConfig carries the Rules fields the tracker needs.
type DrawdownConfig struct {
	Trigger             decimal.Decimal
	NotionalReduction   decimal.Decimal
	NotionalFloor       decimal.Decimal
}

// DrawdownTracker holds the mutex-guarded peak/actual/notional equity triple
// and applies the reduction-step policy from §4.H: each full multiple of
// Trigger in the current drawdown takes another NotionalReduction off the
// multiplier applied to actual equity, never below NotionalFloor of actual
// equity.
type DrawdownTracker struct {
	logger *zap.Logger
	config DrawdownConfig

	mu             sync.RWMutex
	peakEquity     decimal.Decimal
	actualEquity   decimal.Decimal
	notionalEquity decimal.Decimal
	reductionSteps int
}

// NewDrawdownTracker seeds the tracker at startingEquity: peak, actual, and
// notional all start equal.
func NewDrawdownTracker(logger *zap.Logger, config DrawdownConfig, startingEquity decimal.Decimal) *DrawdownTracker {
	return &DrawdownTracker{
		logger:         logger.Named("drawdown"),
		config:         config,
		peakEquity:     startingEquity,
		actualEquity:   startingEquity,
		notionalEquity: startingEquity,
	}
}

// UpdateEquity records a new actual-equity mark-to-market, advances the peak
// if a new high was made, and applies the notional reduction ladder.
func (t *DrawdownTracker) UpdateEquity(actualEquity decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.actualEquity = actualEquity
	if actualEquity.GreaterThanOrEqual(t.peakEquity) {
		t.peakEquity = actualEquity
		t.notionalEquity = actualEquity
		t.reductionSteps = 0
		return
	}

	drawdown := t.drawdownLocked()
	if t.config.Trigger.IsZero() {
		return
	}

	// The step count is recomputed from the current drawdown on every
	// update, so notional follows actual equity within a step and a partial
	// bounce that leaves fewer Trigger multiples crossed lifts it again.
	steps := int(drawdown.Div(t.config.Trigger).IntPart())

	// The multiplier is linear in reduction steps, not compounding: each
	// full Trigger multiple of drawdown subtracts another NotionalReduction
	// off of 1.0, applied against actual equity and floored at
	// NotionalFloor. Scenario 6 (peak 100000, actual 88000, one step):
	// notional = 88000 * (1 - 1*0.2) = 70400.
	multiplier := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(steps)).Mul(t.config.NotionalReduction))
	reduced := t.actualEquity.Mul(multiplier)
	floor := t.actualEquity.Mul(t.config.NotionalFloor)
	if reduced.LessThan(floor) {
		reduced = floor
	}
	t.notionalEquity = reduced

	if steps == t.reductionSteps {
		return
	}
	t.reductionSteps = steps
	t.logger.Info("notional equity reduction steps changed",
		zap.String("actualEquity", t.actualEquity.String()),
		zap.String("notionalEquity", t.notionalEquity.String()),
		zap.Int("reductionSteps", t.reductionSteps),
	)
}

// Drawdown returns (peak - actual) / peak.
func (t *DrawdownTracker) Drawdown() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.drawdownLocked()
}

func (t *DrawdownTracker) drawdownLocked() decimal.Decimal {
	if t.peakEquity.IsZero() {
		return decimal.Zero
	}
	return t.peakEquity.Sub(t.actualEquity).Div(t.peakEquity)
}

// NotionalEquity is the equity figure sizing calculations must use — never
// ActualEquity directly — so that a drawdown-driven reduction is applied
// uniformly at every sizing call site (§9 Open Question resolution).
func (t *DrawdownTracker) NotionalEquity() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.notionalEquity
}

// ActualEquity returns the latest mark-to-market equity.
func (t *DrawdownTracker) ActualEquity() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.actualEquity
}

// PeakEquity returns the highest equity mark ever recorded.
func (t *DrawdownTracker) PeakEquity() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.peakEquity
}
