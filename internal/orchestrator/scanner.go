// Package orchestrator wires the indicator, signal, sizing, risk, and
// position packages into the two run-loops the spec names: the daily
// scanner (one pass over a watchlist, looking for new entries) and the
// continuous monitor (a ticking loop over open positions).
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/turtletrader/engine/internal/broker"
	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/internal/indicators"
	"github.com/turtletrader/engine/internal/position"
	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/internal/risk"
	"github.com/turtletrader/engine/internal/signals"
	"github.com/turtletrader/engine/internal/sizing"
	"github.com/turtletrader/engine/internal/workers"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/turtletrader/engine/pkg/utils"
	"go.uber.org/zap"
)

// ScannerConfig bundles the dependencies and rules a scan cycle needs.
type ScannerConfig struct {
	Watchlist []string
	Rules     types.Rules
	Workers   int
}

// Scanner runs one daily pass over a watchlist: fetch history, compute
// indicators, detect breakouts, apply the S1 filter, size, check limits,
// and place entry orders — emitting an Event at every decision point
// (§4.N).
type Scanner struct {
	logger *zap.Logger
	config ScannerConfig

	feed      feed.DataFeed
	broker    broker.Broker
	bus       *events.Bus
	filter    *signals.Filter
	sizer     *sizing.UnitSizer
	stops     *sizing.StopCalculator
	limits    *risk.LimitChecker
	drawdown  *risk.DrawdownTracker
	trades    repo.TradeRepo
	positions repo.PositionRepo

	mu   sync.Mutex
	open map[string]*position.Aggregate
}

// NewScanner builds a Scanner from its collaborators.
func NewScanner(
	logger *zap.Logger,
	config ScannerConfig,
	dataFeed feed.DataFeed,
	brk broker.Broker,
	bus *events.Bus,
	filter *signals.Filter,
	sizer *sizing.UnitSizer,
	stops *sizing.StopCalculator,
	limits *risk.LimitChecker,
	drawdown *risk.DrawdownTracker,
	trades repo.TradeRepo,
	positions repo.PositionRepo,
) *Scanner {
	return &Scanner{
		logger:    logger.Named("scanner"),
		config:    config,
		feed:      dataFeed,
		broker:    brk,
		bus:       bus,
		filter:    filter,
		sizer:     sizer,
		stops:     stops,
		limits:    limits,
		drawdown:  drawdown,
		trades:    trades,
		positions: positions,
		open:      make(map[string]*position.Aggregate),
	}
}

// Run executes one full scan cycle over the watchlist, fetching bars for
// each symbol concurrently through a bounded worker pool (grounded on
// internal/workers.Pool) but making every sizing/limit/order decision
// sequentially, so two symbols competing for the same correlation-group
// budget are always resolved in a deterministic order.
func (s *Scanner) Run(ctx context.Context, portfolio types.Portfolio) error {
	runID := utils.GenerateRunID()
	s.publish(ctx, runID, "", types.EventScanStarted, types.OutcomeSuccess, types.EventContext{})

	type fetched struct {
		symbol string
		market types.MarketData
		err    error
	}

	results := make(chan fetched, len(s.config.Watchlist))
	poolConfig := workers.DefaultPoolConfig("scanner")
	if s.config.Workers > 0 {
		poolConfig.NumWorkers = s.config.Workers
	}
	pool := workers.NewPool(s.logger, poolConfig)
	pool.Start()

	for _, symbol := range s.config.Watchlist {
		sym := symbol
		pool.Submit(workers.TaskFunc(func() error {
			market, err := s.buildMarketData(ctx, sym)
			results <- fetched{symbol: sym, market: market, err: err}
			return err
		}))
	}

	markets := make(map[string]types.MarketData, len(s.config.Watchlist))
	for range s.config.Watchlist {
		r := <-results
		if r.err != nil {
			s.logger.Warn("skipping symbol after fetch error", zap.String("symbol", r.symbol), zap.Error(r.err))
			s.publish(ctx, runID, r.symbol, types.EventError, types.OutcomeFailed, types.EventContext{Reason: r.err.Error()})
			continue
		}
		markets[r.symbol] = r.market
	}
	pool.Stop()

	for _, symbol := range s.config.Watchlist {
		market, ok := markets[symbol]
		if !ok {
			continue
		}
		if err := s.evaluateSymbol(ctx, runID, market, portfolio); err != nil {
			s.logger.Error("evaluate symbol failed", zap.String("symbol", symbol), zap.Error(err))
			s.publish(ctx, runID, symbol, types.EventError, types.OutcomeFailed, types.EventContext{Reason: err.Error()})
		}
	}

	s.publish(ctx, runID, "", types.EventScanCompleted, types.OutcomeSuccess, types.EventContext{})
	return nil
}

func (s *Scanner) buildMarketData(ctx context.Context, symbol string) (types.MarketData, error) {
	spec, err := s.feed.MarketSpec(ctx, symbol)
	if err != nil {
		return types.MarketData{}, fmt.Errorf("market spec for %s: %w", symbol, err)
	}

	// One bar beyond the longest channel: the last bar is today's price
	// action and is left out of the channels, which cover completed bars.
	lookback := s.config.Rules.EntryPeriodS2 + 1
	if s.config.Rules.ATRPeriod+1 > lookback {
		lookback = s.config.Rules.ATRPeriod + 1
	}

	bars, err := s.feed.History(ctx, symbol, lookback, time.Now())
	if err != nil {
		return types.MarketData{}, fmt.Errorf("history for %s: %w", symbol, err)
	}

	nCalc := indicators.NewNCalculator(s.config.Rules.ATRPeriod, s.config.Rules.ATRMethod)
	nValue, err := nCalc.FromHistory(bars)
	if err != nil {
		return types.MarketData{}, fmt.Errorf("N for %s: %w", symbol, err)
	}

	ch10, ch20, ch55, err := indicators.ComputeAll(bars[:len(bars)-1])
	if err != nil {
		return types.MarketData{}, fmt.Errorf("donchian for %s: %w", symbol, err)
	}

	last := bars[len(bars)-1]
	return types.MarketData{
		Spec:         spec,
		CurrentPrice: last.Close,
		DayHigh:      last.High,
		DayLow:       last.Low,
		N:            nValue,
		Donchian10:   ch10,
		Donchian20:   ch20,
		Donchian55:   ch55,
		UpdatedAt:    last.Date,
	}, nil
}

func (s *Scanner) evaluateSymbol(ctx context.Context, runID string, market types.MarketData, portfolio types.Portfolio) error {
	for _, sig := range signals.DetectAll(market) {
		s.publish(ctx, runID, sig.Symbol, types.EventEntrySignal, types.OutcomeSuccess, types.EventContext{Market: &market})

		allowed, err := s.filter.Allow(ctx, sig)
		if err != nil {
			return err
		}
		s.publish(ctx, runID, sig.Symbol, types.EventFilterVerdict, outcomeOf(allowed), types.EventContext{Reason: fmt.Sprintf("s1 filter allowed=%v", allowed)})
		if !allowed {
			continue
		}

		verdict := s.limits.Check(portfolio, sig.Symbol, market.Spec.CorrelationGroup, s.drawdown.NotionalEquity())
		s.publish(ctx, runID, sig.Symbol, types.EventLimitVerdict, outcomeOf(verdict.Allowed), types.EventContext{Reason: verdict.Detail})
		if !verdict.Allowed {
			continue
		}

		sizeResult, err := s.sizer.Calculate(sizing.Request{
			Symbol:        sig.Symbol,
			AccountEquity: s.drawdown.NotionalEquity(),
			N:             market.N.Value,
			PointValue:    market.Spec.PointValue,
		})
		if err != nil {
			return err
		}
		s.publish(ctx, runID, sig.Symbol, types.EventSizingComputed, types.OutcomeSuccess, types.EventContext{Sizing: map[string]any{"contracts": sizeResult.Contracts}})
		if sizeResult.Contracts <= 0 {
			s.publish(ctx, runID, sig.Symbol, types.EventTradeSkipped, types.OutcomeSkipped, types.EventContext{Reason: "computed zero contracts"})
			continue
		}

		fill, err := s.broker.PlaceOrder(ctx, broker.OrderRequest{
			Symbol:     sig.Symbol,
			Side:       sig.Direction,
			Contracts:  sizeResult.Contracts,
			LimitPrice: sig.BreakoutPrice,
		})
		if err != nil {
			return err
		}
		s.publish(ctx, runID, sig.Symbol, types.EventOrderPlaced, types.OutcomeSuccess, types.EventContext{})
		s.publish(ctx, runID, sig.Symbol, types.EventFill, types.OutcomeSuccess, types.EventContext{})

		initialStop := s.stops.InitialStop(fill.FillPrice, market.N.Value, sig.Direction)
		agg := position.New(sig.Symbol, sig.Direction, sig.System, market.Spec.CorrelationGroup, market.Spec.PointValue, fill.FillPrice, market.N.Value, fill.Contracts, initialStop, fill.FilledAt)

		s.mu.Lock()
		s.open[agg.Snapshot().ID] = agg
		s.mu.Unlock()

		if err := s.positions.SavePosition(ctx, agg.Snapshot()); err != nil {
			return fmt.Errorf("save position for %s: %w", sig.Symbol, err)
		}

		trade := types.Trade{
			ID:          utils.GenerateTradeID(),
			Symbol:      sig.Symbol,
			System:      sig.System,
			Direction:   sig.Direction,
			EntryDate:   fill.FilledAt,
			EntryPrice:  fill.FillPrice,
			NAtEntry:    market.N.Value,
			InitialStop: initialStop,
			MaxUnits:    s.config.Rules.MaxUnitsPerMarket,
		}
		if err := s.trades.SaveTrade(ctx, trade); err != nil {
			return fmt.Errorf("save trade for %s: %w", sig.Symbol, err)
		}

		s.publish(ctx, runID, sig.Symbol, types.EventPositionOpened, types.OutcomeSuccess, types.EventContext{})
	}

	return nil
}

func (s *Scanner) publish(ctx context.Context, runID, symbol string, eventType types.EventType, outcome types.Outcome, ec types.EventContext) {
	event := s.bus.New(runID, types.SourceScanner, eventType, outcome, false)
	event.Symbol = symbol
	event.Context = ec
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.Error(err))
	}
}

func outcomeOf(allowed bool) types.Outcome {
	if allowed {
		return types.OutcomeSuccess
	}
	return types.OutcomeDenied
}
