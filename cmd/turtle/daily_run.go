package main

import (
	"context"
	"flag"
	"strings"

	"github.com/turtletrader/engine/internal/broker/paper"
	"github.com/turtletrader/engine/internal/config"
	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/internal/orchestrator"
	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/internal/risk"
	"github.com/turtletrader/engine/internal/signals"
	"github.com/turtletrader/engine/internal/sizing"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
)

// runDailyRun executes exactly one scan cycle over --watchlist and exits.
// Meant to be invoked once per trading day by an external scheduler (cron,
// a CI pipeline, etc.) — this process holds no long-running state itself.
func runDailyRun(args []string) error {
	fs := flag.NewFlagSet("daily-run", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "data directory")
	configPath := fs.String("config", "", "path to rules config file")
	feedURL := fs.String("feed-url", "http://localhost:9000", "REST data feed base URL")
	watchlist := fs.String("watchlist", "", "comma-separated symbol list")
	equity := fs.String("equity", "100000", "starting account equity")
	logLevel := fs.String("log-level", "info", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	rules, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	store, err := repo.NewJSONStore(logger, *dataDir)
	if err != nil {
		return err
	}

	startingEquity, err := decimal.NewFromString(*equity)
	if err != nil {
		return err
	}

	bus := events.NewBus(logger, events.DefaultBusConfig(), store)
	defer bus.Close()

	dataFeed := feed.NewRESTFeed(logger, feed.DefaultRESTConfig(*feedURL))
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

	openPositions, err := store.LoadOpenPositions(context.Background())
	if err != nil {
		return err
	}
	portfolio := types.Portfolio{
		ID:           "default",
		ActualEquity: startingEquity,
		PeakEquity:   startingEquity,
		Positions:    make(map[string]*types.Position),
		Rules:        rules,
	}
	for i := range openPositions {
		portfolio.Positions[openPositions[i].Symbol] = &openPositions[i]
	}

	scanner := orchestrator.NewScanner(
		logger,
		orchestrator.ScannerConfig{
			Watchlist: splitWatchlist(*watchlist),
			Rules:     rules,
		},
		dataFeed, brk, bus, filter, sizer, stops, limits, drawdown, store, store,
	)

	return scanner.Run(context.Background(), portfolio)
}

func splitWatchlist(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
