// Package position owns the only two state-changing protocols a Position
// may undergo: appending a pyramid unit and closing the position. Every
// other view of a Position is a derived, read-only computation living on
// types.Position itself.
package position

import (
	"fmt"
	"sync"
	"time"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/turtletrader/engine/pkg/utils"
	"github.com/shopspring/decimal"
)

// Aggregate wraps a types.Position with the mutex guarding its two mutation
// protocols, mirroring the teacher's backtester.Portfolio pattern of a
// private mutex around otherwise-plain state.
type Aggregate struct {
	mu  sync.RWMutex
	pos types.Position
}

// New opens a position with its first pyramid unit (unit 1), matching the
// spec's rule that a Position always exists with at least one unit.
func New(symbol string, dir types.Direction, sys types.System, correlationGroup string, pointValue decimal.Decimal, entryPrice, n decimal.Decimal, contracts int64, initialStop decimal.Decimal, at time.Time) *Aggregate {
	return &Aggregate{
		pos: types.Position{
			ID:               utils.GeneratePositionID(),
			Symbol:           symbol,
			Direction:        dir,
			System:           sys,
			CorrelationGroup: correlationGroup,
			PointValue:       pointValue,
			PyramidLevels: []types.PyramidLevel{{
				UnitNumber:   1,
				EntryPrice:   entryPrice,
				EntryTime:    at,
				NAtEntry:     n,
				Contracts:    contracts,
				OriginalStop: initialStop,
			}},
			CurrentStop: initialStop,
			OpenedAt:    at,
		},
	}
}

// FromSnapshot wraps an already-constructed types.Position (loaded from a
// repository) in an Aggregate, restoring its mutex-guarded access without
// re-running the open-position construction logic in New.
func FromSnapshot(pos types.Position) *Aggregate {
	return &Aggregate{pos: pos}
}

// Snapshot returns a copy of the underlying position, safe to read or log
// without holding the aggregate's lock.
func (a *Aggregate) Snapshot() types.Position {
	a.mu.RLock()
	defer a.mu.RUnlock()
	posCopy := a.pos
	posCopy.PyramidLevels = append([]types.PyramidLevel(nil), a.pos.PyramidLevels...)
	return posCopy
}

// AppendPyramid adds a new unit at entryPrice/contracts and updates the
// shared current stop to wholeUnitStop (computed by sizing.StopCalculator,
// which always tightens — never loosens — the existing stop), per the
// pyramid stop-modification protocol (§4.L).
func (a *Aggregate) AppendPyramid(entryPrice, n decimal.Decimal, contracts int64, unitStop, wholeUnitStop decimal.Decimal, at time.Time) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pos.Closed {
		return fmt.Errorf("position %s: cannot pyramid a closed position", a.pos.ID)
	}

	nextUnit := len(a.pos.PyramidLevels) + 1
	a.pos.PyramidLevels = append(a.pos.PyramidLevels, types.PyramidLevel{
		UnitNumber:   nextUnit,
		EntryPrice:   entryPrice,
		EntryTime:    at,
		NAtEntry:     n,
		Contracts:    contracts,
		OriginalStop: unitStop,
	})
	a.pos.CurrentStop = wholeUnitStop
	return nil
}

// Close marks the position closed. It does not compute P&L; that belongs
// to internal/engine's exit handler, which owns the Trade record.
func (a *Aggregate) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pos.Closed {
		return fmt.Errorf("position %s: already closed", a.pos.ID)
	}
	a.pos.Closed = true
	return nil
}
