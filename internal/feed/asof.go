package feed

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtletrader/engine/pkg/types"
)

// AsOfFeed pins an underlying DataFeed's notion of "now" to a movable
// simulated date, letting a backtest step day by day over historical bars
// without CurrentBar silently returning the last bar in the file.
type AsOfFeed struct {
	underlying *LocalFeed

	mu   sync.RWMutex
	asOf time.Time
}

// NewAsOfFeed wraps a LocalFeed, initially pinned at asOf.
func NewAsOfFeed(underlying *LocalFeed, asOf time.Time) *AsOfFeed {
	return &AsOfFeed{
		underlying: underlying,
		asOf:       asOf,
	}
}

// Advance moves the simulated date forward to asOf.
func (f *AsOfFeed) Advance(asOf time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asOf = asOf
}

func (f *AsOfFeed) currentAsOf() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.asOf
}

// History returns up to lookback bars ending at or before the simulated date.
func (f *AsOfFeed) History(ctx context.Context, symbol string, lookback int, _ time.Time) ([]types.Bar, error) {
	return f.underlying.History(ctx, symbol, lookback, f.currentAsOf())
}

// CurrentBar returns the latest bar dated on or before the simulated date,
// the day a backtest cycle is pretending to run on.
func (f *AsOfFeed) CurrentBar(ctx context.Context, symbol string) (types.Bar, error) {
	asOf := f.currentAsOf()
	bars, err := f.underlying.History(ctx, symbol, 1, asOf)
	if err != nil {
		return types.Bar{}, err
	}
	if len(bars) == 0 {
		return types.Bar{}, fmt.Errorf("no bar for %s on or before %s", symbol, asOf.Format("2006-01-02"))
	}
	return bars[len(bars)-1], nil
}

// MarketSpec delegates to the underlying feed; reference data has no
// simulated-time dimension.
func (f *AsOfFeed) MarketSpec(ctx context.Context, symbol string) (types.MarketSpec, error) {
	return f.underlying.MarketSpec(ctx, symbol)
}
