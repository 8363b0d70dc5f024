package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtletrader/engine/internal/broker/paper"
	"github.com/turtletrader/engine/internal/config"
	"github.com/turtletrader/engine/internal/engine"
	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/internal/orchestrator"
	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/internal/risk"
	"github.com/turtletrader/engine/internal/sizing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// runMonitor runs the continuous position monitor until SIGINT/SIGTERM,
// re-evaluating every open position on --interval and executing whichever
// exit or pyramid action the decision engine picks.
func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "data directory")
	configPath := fs.String("config", "", "path to rules config file")
	feedURL := fs.String("feed-url", "http://localhost:9000", "REST data feed base URL")
	equity := fs.String("equity", "100000", "starting account equity")
	interval := fs.Duration("interval", time.Minute, "position re-check interval")
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

	drawdown := risk.NewDrawdownTracker(logger, risk.DrawdownConfig{
		Trigger:           rules.DrawdownTrigger,
		NotionalReduction: rules.DrawdownNotionalReduction,
		NotionalFloor:     rules.NotionalFloor,
	}, startingEquity)

	sizer := sizing.NewUnitSizer(logger, sizing.Config{RiskFactor: rules.RiskFactor, StopMultiplier: rules.StopMultiplier})
	stops := sizing.NewStopCalculator(rules.StopMultiplier)

	pyramids := engine.NewPyramidExecutor(brk, sizer, stops)
	exits := engine.NewExitHandler(brk)

	monitor := orchestrator.NewContinuousMonitor(
		logger,
		orchestrator.MonitorConfig{Rules: rules, CheckInterval: *interval},
		dataFeed, bus, pyramids, exits, store, store,
		func() decimal.Decimal {
			if equity, err := brk.AccountEquity(context.Background()); err == nil {
				drawdown.UpdateEquity(equity)
			}
			return drawdown.NotionalEquity()
		},
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := monitor.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("monitor stopped", zap.Error(err))
		}
	}()

	<-sigChan
	logger.Info("shutdown signal received")
	cancel()
	<-done
	return nil
}
