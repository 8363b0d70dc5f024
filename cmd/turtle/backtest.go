package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/turtletrader/engine/internal/broker/paper"
	"github.com/turtletrader/engine/internal/config"
	"github.com/turtletrader/engine/internal/engine"
	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/internal/orchestrator"
	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/internal/risk"
	"github.com/turtletrader/engine/internal/signals"
	"github.com/turtletrader/engine/internal/sizing"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// runBacktest replays the scanner and monitor orchestrators day by day over
// historical bars served from --data, using a paper broker and a simulated
// clock instead of wall-clock time.
func runBacktest(args []string) error {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "directory holding <symbol>.json bar files and specs.json")
	configPath := fs.String("config", "", "path to rules config file")
	start := fs.String("start", "", "backtest start date, YYYY-MM-DD")
	end := fs.String("end", "", "backtest end date, YYYY-MM-DD")
	symbolList := fs.String("symbols", "", "comma-separated symbol list")
	equity := fs.String("equity", "100000", "starting account equity")
	logLevel := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	startDate, err := time.Parse(dateLayout, *start)
	if err != nil {
		return fmt.Errorf("parse --start: %w", err)
	}
	endDate, err := time.Parse(dateLayout, *end)
	if err != nil {
		return fmt.Errorf("parse --end: %w", err)
	}

	rules, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	startingEquity, err := decimal.NewFromString(*equity)
	if err != nil {
		return err
	}

	symbols := splitWatchlist(*symbolList)
	specs, err := loadMarketSpecs(*dataDir, symbols)
	if err != nil {
		return err
	}

	store, err := repo.NewJSONStore(logger, *dataDir)
	if err != nil {
		return err
	}

	bus := events.NewBus(logger, events.DefaultBusConfig(), store)
	defer bus.Close()

	localFeed := feed.NewLocalFeed(*dataDir, specs)
	asOfFeed := feed.NewAsOfFeed(localFeed, startDate)

	brk := paper.New(logger, paper.DefaultConfig(), startingEquity)
	filter := signals.NewFilter(store)
	sizer := sizing.NewUnitSizer(logger, sizing.Config{RiskFactor: rules.RiskFactor, StopMultiplier: rules.StopMultiplier})
	stops := sizing.NewStopCalculator(rules.StopMultiplier)
	limits := risk.NewLimitChecker(logger)
	drawdown := risk.NewDrawdownTracker(logger, risk.DrawdownConfig{
		Trigger:           rules.DrawdownTrigger,
		NotionalReduction: rules.DrawdownNotionalReduction,
		NotionalFloor:     rules.NotionalFloor,
	}, startingEquity)

	pyramids := engine.NewPyramidExecutor(brk, sizer, stops)
	exits := engine.NewExitHandler(brk)

	scanner := orchestrator.NewScanner(
		logger,
		orchestrator.ScannerConfig{Watchlist: symbols, Rules: rules},
		asOfFeed, brk, bus, filter, sizer, stops, limits, drawdown, store, store,
	)
	monitor := orchestrator.NewContinuousMonitor(
		logger,
		orchestrator.MonitorConfig{Rules: rules},
		asOfFeed, bus, pyramids, exits, store, store,
		drawdown.NotionalEquity,
	)

	ctx := context.Background()
	days := 0
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		asOfFeed.Advance(d)

		equity, err := brk.AccountEquity(ctx)
		if err != nil {
			return fmt.Errorf("read account equity: %w", err)
		}
		drawdown.UpdateEquity(equity)

		open, err := store.LoadOpenPositions(ctx)
		if err != nil {
			return fmt.Errorf("load open positions: %w", err)
		}
		portfolio := types.Portfolio{
			ID:             "backtest",
			ActualEquity:   equity,
			PeakEquity:     drawdown.PeakEquity(),
			NotionalEquity: drawdown.NotionalEquity(),
			Positions:      make(map[string]*types.Position),
			Rules:          rules,
		}
		for i := range open {
			portfolio.Positions[open[i].Symbol] = &open[i]
		}

		if err := monitor.RunOnce(ctx); err != nil {
			logger.Warn("backtest monitor cycle failed", zap.Error(err))
		}
		if err := scanner.Run(ctx, portfolio); err != nil {
			logger.Warn("backtest scan cycle failed", zap.Error(err))
		}
		days++
	}

	finalEquity, err := brk.AccountEquity(ctx)
	if err != nil {
		return err
	}
	logger.Info("backtest complete",
		zap.Int("days", days),
		zap.String("startingEquity", startingEquity.String()),
		zap.String("finalEquity", finalEquity.String()),
	)
	return nil
}

// loadMarketSpecs reads <dataDir>/specs.json, a map of symbol -> MarketSpec,
// restricted to the requested symbols.
func loadMarketSpecs(dataDir string, symbols []string) (map[string]types.MarketSpec, error) {
	raw, err := os.ReadFile(dataDir + "/specs.json")
	if err != nil {
		return nil, fmt.Errorf("read specs.json: %w", err)
	}

	var all map[string]types.MarketSpec
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("parse specs.json: %w", err)
	}

	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	out := make(map[string]types.MarketSpec, len(symbols))
	for symbol, spec := range all {
		if wanted[symbol] {
			out[symbol] = spec
		}
	}
	for _, s := range symbols {
		if _, ok := out[s]; !ok {
			return nil, fmt.Errorf("no market spec for symbol %s in specs.json", s)
		}
	}
	return out, nil
}
