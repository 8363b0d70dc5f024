package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/turtletrader/engine/pkg/types"
)

// LocalFeed serves bars from JSON files on disk, one file per symbol named
// <symbol>.json, each an array of types.Bar ordered oldest first. It is
// meant for backtests and tests, not production use.
type LocalFeed struct {
	mu      sync.RWMutex
	dataDir string
	specs   map[string]types.MarketSpec
	cache   map[string][]types.Bar
}

// NewLocalFeed builds a LocalFeed rooted at dataDir, with a fixed set of
// market specs (reference data has no natural "fetch from disk" source in
// a local feed, so callers supply it directly).
func NewLocalFeed(dataDir string, specs map[string]types.MarketSpec) *LocalFeed {
	return &LocalFeed{
		dataDir: dataDir,
		specs:   specs,
		cache:   make(map[string][]types.Bar),
	}
}

func (f *LocalFeed) loadBars(symbol string) ([]types.Bar, error) {
	f.mu.RLock()
	if cached, ok := f.cache[symbol]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	path := filepath.Join(f.dataDir, symbol+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bars for %s: %w", symbol, err)
	}

	var bars []types.Bar
	if err := json.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("parse bars for %s: %w", symbol, err)
	}

	f.mu.Lock()
	f.cache[symbol] = bars
	f.mu.Unlock()

	return bars, nil
}

// History implements feed.DataFeed: it returns up to lookback bars ending
// at or before asOf.
func (f *LocalFeed) History(ctx context.Context, symbol string, lookback int, asOf time.Time) ([]types.Bar, error) {
	bars, err := f.loadBars(symbol)
	if err != nil {
		return nil, err
	}

	cutoff := 0
	for i, b := range bars {
		if b.Date.After(asOf) {
			break
		}
		cutoff = i + 1
	}

	start := cutoff - lookback
	if start < 0 {
		start = 0
	}
	return bars[start:cutoff], nil
}

// CurrentBar implements feed.DataFeed: it returns the last bar in the file,
// whatever its date.
func (f *LocalFeed) CurrentBar(ctx context.Context, symbol string) (types.Bar, error) {
	bars, err := f.loadBars(symbol)
	if err != nil {
		return types.Bar{}, err
	}
	if len(bars) == 0 {
		return types.Bar{}, fmt.Errorf("no bars available for %s", symbol)
	}
	return bars[len(bars)-1], nil
}

// MarketSpec implements feed.DataFeed.
func (f *LocalFeed) MarketSpec(ctx context.Context, symbol string) (types.MarketSpec, error) {
	spec, ok := f.specs[symbol]
	if !ok {
		return types.MarketSpec{}, fmt.Errorf("no market spec configured for %s", symbol)
	}
	return spec, nil
}
