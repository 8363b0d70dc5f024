// Package repo defines the repository interfaces the engine persists its
// state through — N history, trades, open positions, and the event audit
// log — and a JSON-file-backed implementation of each.
package repo

import (
	"context"

	"github.com/turtletrader/engine/pkg/types"
)

// NRepo persists and retrieves computed N values per symbol.
type NRepo interface {
	LatestN(ctx context.Context, symbol string) (*types.NValue, error)
	SaveN(ctx context.Context, value types.NValue) error
}

// TradeRepo persists trade records and serves the S1 filter's lookup.
type TradeRepo interface {
	SaveTrade(ctx context.Context, trade types.Trade) error
	LastClosedTrade(ctx context.Context, symbol string, sys types.System, dir types.Direction) (*types.Trade, error)
	OpenTrade(ctx context.Context, symbol string) (*types.Trade, error)
}

// PositionRepo persists open position state so the monitor can resume
// after a restart without losing pyramid history.
type PositionRepo interface {
	SavePosition(ctx context.Context, pos types.Position) error
	LoadOpenPositions(ctx context.Context) ([]types.Position, error)
	DeletePosition(ctx context.Context, id string) error
}

// EventRepo is the durable append-only event store; it satisfies
// events.Repo.
type EventRepo interface {
	AppendEvent(ctx context.Context, event types.Event) error
	Events(ctx context.Context, runID string) ([]types.Event, error)
}
