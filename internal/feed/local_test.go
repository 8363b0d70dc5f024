package feed_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

func writeBars(t *testing.T, dir, symbol string, bars []types.Bar) {
	t.Helper()
	data, err := json.Marshal(bars)
	if err != nil {
		t.Fatalf("marshal bars: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, symbol+".json"), data, 0644); err != nil {
		t.Fatalf("write bars: %v", err)
	}
}

func sampleBars() []types.Bar {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.Bar, 5)
	for i := range bars {
		d := decimal.NewFromInt(int64(100 + i))
		bars[i] = types.Bar{
			Symbol: "CL", Date: base.AddDate(0, 0, i),
			Open: d, High: d.Add(decimal.NewFromInt(1)), Low: d.Sub(decimal.NewFromInt(1)), Close: d,
		}
	}
	return bars
}

func TestLocalFeed_HistoryRespectsAsOfAndLookback(t *testing.T) {
	dir := t.TempDir()
	bars := sampleBars()
	writeBars(t, dir, "CL", bars)

	f := feed.NewLocalFeed(dir, map[string]types.MarketSpec{"CL": {Symbol: "CL"}})
	got, err := f.History(context.Background(), "CL", 2, bars[2].Date)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 2 || !got[len(got)-1].Date.Equal(bars[2].Date) {
		t.Fatalf("History = %+v, want last 2 bars ending at index 2", got)
	}
}

func TestLocalFeed_MarketSpecMissingSymbol(t *testing.T) {
	f := feed.NewLocalFeed(t.TempDir(), map[string]types.MarketSpec{})
	if _, err := f.MarketSpec(context.Background(), "XX"); err == nil {
		t.Fatal("expected error for unconfigured symbol")
	}
}

func TestAsOfFeed_CurrentBarMatchesSimulatedDate(t *testing.T) {
	dir := t.TempDir()
	bars := sampleBars()
	writeBars(t, dir, "CL", bars)

	local := feed.NewLocalFeed(dir, map[string]types.MarketSpec{"CL": {Symbol: "CL"}})
	asOf := feed.NewAsOfFeed(local, bars[0].Date)

	bar, err := asOf.CurrentBar(context.Background(), "CL")
	if err != nil {
		t.Fatalf("CurrentBar: %v", err)
	}
	if !bar.Date.Equal(bars[0].Date) {
		t.Errorf("CurrentBar date = %s, want %s", bar.Date, bars[0].Date)
	}

	asOf.Advance(bars[3].Date)
	bar, err = asOf.CurrentBar(context.Background(), "CL")
	if err != nil {
		t.Fatalf("CurrentBar after Advance: %v", err)
	}
	if !bar.Date.Equal(bars[3].Date) {
		t.Errorf("CurrentBar date after Advance = %s, want %s", bar.Date, bars[3].Date)
	}
}

func TestAsOfFeed_HistoryIgnoresCallerAsOfArgument(t *testing.T) {
	dir := t.TempDir()
	bars := sampleBars()
	writeBars(t, dir, "CL", bars)

	local := feed.NewLocalFeed(dir, map[string]types.MarketSpec{"CL": {Symbol: "CL"}})
	asOf := feed.NewAsOfFeed(local, bars[4].Date)

	// The asOf argument passed here must be ignored in favor of the pinned
	// simulated date, so a caller cannot accidentally peek into the future.
	got, err := asOf.History(context.Background(), "CL", 1, bars[0].Date)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(got) != 1 || !got[0].Date.Equal(bars[4].Date) {
		t.Fatalf("History = %+v, want the bar at the pinned simulated date", got)
	}
}
