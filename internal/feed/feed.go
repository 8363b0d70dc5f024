// Package feed defines the external market-data interface the engine pulls
// bars and reference market specs from.
package feed

import (
	"context"
	"time"

	"github.com/turtletrader/engine/pkg/types"
)

// DataFeed supplies historical and current-cycle bars for a symbol.
// Implementations must be safe for concurrent use since the scanner
// orchestrator may fetch multiple symbols concurrently via a bounded
// worker pool.
type DataFeed interface {
	// History returns up to lookback daily bars ending at asOf, oldest
	// first. An implementation may return fewer bars than lookback without
	// an error (the indicator calculators then report
	// ErrInsufficientHistory); RESTFeed instead fails the call itself.
	History(ctx context.Context, symbol string, lookback int, asOf time.Time) ([]types.Bar, error)
	// CurrentBar returns the still-forming bar for today, used to evaluate
	// breakouts intraday during the continuous monitor.
	CurrentBar(ctx context.Context, symbol string) (types.Bar, error)
	// MarketSpec returns the reference data (point value, tick size,
	// correlation group) for symbol.
	MarketSpec(ctx context.Context, symbol string) (types.MarketSpec, error)
}
