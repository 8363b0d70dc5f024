package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestJSONStore_NValueRoundTrip(t *testing.T) {
	store, err := repo.NewJSONStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()

	want := types.NValue{Symbol: "CL", Value: decimal.NewFromInt(20), Period: 20, Method: types.MethodWilders, CalculatedAt: time.Now()}
	if err := store.SaveN(ctx, want); err != nil {
		t.Fatalf("SaveN: %v", err)
	}

	got, err := store.LatestN(ctx, "CL")
	if err != nil {
		t.Fatalf("LatestN: %v", err)
	}
	if got == nil || !got.Value.Equal(want.Value) {
		t.Fatalf("LatestN = %+v, want %+v", got, want)
	}
}

func TestJSONStore_LastClosedTradePicksMostRecent(t *testing.T) {
	store, err := repo.NewJSONStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()

	older := time.Now().Add(-48 * time.Hour)
	newer := time.Now().Add(-1 * time.Hour)
	pnl := decimal.NewFromInt(100)

	trade1 := types.Trade{ID: "t1", Symbol: "CL", System: types.SystemS1, Direction: types.Long, ExitDate: &older, NetPnL: &pnl}
	trade2 := types.Trade{ID: "t2", Symbol: "CL", System: types.SystemS1, Direction: types.Long, ExitDate: &newer, NetPnL: &pnl}

	if err := store.SaveTrade(ctx, trade1); err != nil {
		t.Fatalf("SaveTrade t1: %v", err)
	}
	if err := store.SaveTrade(ctx, trade2); err != nil {
		t.Fatalf("SaveTrade t2: %v", err)
	}

	last, err := store.LastClosedTrade(ctx, "CL", types.SystemS1, types.Long)
	if err != nil {
		t.Fatalf("LastClosedTrade: %v", err)
	}
	if last == nil || last.ID != "t2" {
		t.Fatalf("LastClosedTrade = %+v, want t2 (the newer exit)", last)
	}
}

func TestJSONStore_PositionLifecycle(t *testing.T) {
	store, err := repo.NewJSONStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()

	pos := types.Position{ID: "pos-1", Symbol: "CL", Direction: types.Long}
	if err := store.SavePosition(ctx, pos); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}

	open, err := store.LoadOpenPositions(ctx)
	if err != nil || len(open) != 1 {
		t.Fatalf("LoadOpenPositions = %+v, err %v, want 1 open position", open, err)
	}

	if err := store.DeletePosition(ctx, "pos-1"); err != nil {
		t.Fatalf("DeletePosition: %v", err)
	}
	open, err = store.LoadOpenPositions(ctx)
	if err != nil || len(open) != 0 {
		t.Fatalf("LoadOpenPositions after delete = %+v, want empty", open)
	}
}

func TestJSONStore_SavingClosedPositionRemovesIt(t *testing.T) {
	store, err := repo.NewJSONStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()

	if err := store.SavePosition(ctx, types.Position{ID: "pos-2", Closed: false}); err != nil {
		t.Fatalf("SavePosition open: %v", err)
	}
	if err := store.SavePosition(ctx, types.Position{ID: "pos-2", Closed: true}); err != nil {
		t.Fatalf("SavePosition closed: %v", err)
	}

	open, err := store.LoadOpenPositions(ctx)
	if err != nil || len(open) != 0 {
		t.Fatalf("closed position must not appear in LoadOpenPositions, got %+v", open)
	}
}

func TestJSONStore_EventsOrderedBySequence(t *testing.T) {
	store, err := repo.NewJSONStore(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	ctx := context.Background()

	run := "run-1"
	if err := store.AppendEvent(ctx, types.Event{ID: "e1", RunID: run, Sequence: 1, Type: types.EventScanStarted, Outcome: types.OutcomeSuccess}); err != nil {
		t.Fatalf("AppendEvent e1: %v", err)
	}
	if err := store.AppendEvent(ctx, types.Event{ID: "e2", RunID: run, Sequence: 2, Type: types.EventScanCompleted, Outcome: types.OutcomeSuccess}); err != nil {
		t.Fatalf("AppendEvent e2: %v", err)
	}

	events, err := store.Events(ctx, run)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 2 || events[0].ID != "e1" || events[1].ID != "e2" {
		t.Fatalf("Events = %+v, want [e1, e2] in append order", events)
	}
}

// TestJSONStore_PersistsAcrossReload covers the §8 round-trip property:
// serialized state survives a process restart against the same data dir.
func TestJSONStore_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store1, err := repo.NewJSONStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewJSONStore: %v", err)
	}
	if err := store1.SaveN(ctx, types.NValue{Symbol: "GC", Value: decimal.NewFromInt(15), Period: 20}); err != nil {
		t.Fatalf("SaveN: %v", err)
	}

	store2, err := repo.NewJSONStore(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("NewJSONStore (reload): %v", err)
	}
	got, err := store2.LatestN(ctx, "GC")
	if err != nil || got == nil || !got.Value.Equal(decimal.NewFromInt(15)) {
		t.Fatalf("LatestN after reload = %+v, err %v, want N=15", got, err)
	}
}
