package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/turtletrader/engine/internal/engine"
	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/internal/feed"
	"github.com/turtletrader/engine/internal/indicators"
	"github.com/turtletrader/engine/internal/position"
	"github.com/turtletrader/engine/internal/repo"
	"github.com/turtletrader/engine/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MonitorConfig bundles the rules a continuous-monitor cycle needs.
type MonitorConfig struct {
	Rules         types.Rules
	CheckInterval time.Duration
}

// EquitySource supplies the notional equity pyramid sizing must use, kept
// as a narrow function type rather than importing internal/risk directly
// so this package's dependency graph stays one-directional.
type EquitySource func() decimal.Decimal

// ContinuousMonitor runs the per-position decision function (internal/engine)
// on a fixed interval against every open position, executing whichever
// action wins priority (§4.O): a stop hit or breakout exit closes the
// position, a pyramid trigger adds a unit, and a hold does nothing.
type ContinuousMonitor struct {
	logger *zap.Logger
	config MonitorConfig

	feed      feed.DataFeed
	bus       *events.Bus
	pyramids  *engine.PyramidExecutor
	exits     *engine.ExitHandler
	trades    repo.TradeRepo
	positions repo.PositionRepo
	equity    EquitySource
}

// NewContinuousMonitor builds a ContinuousMonitor.
func NewContinuousMonitor(
	logger *zap.Logger,
	config MonitorConfig,
	dataFeed feed.DataFeed,
	bus *events.Bus,
	pyramids *engine.PyramidExecutor,
	exits *engine.ExitHandler,
	trades repo.TradeRepo,
	positions repo.PositionRepo,
	equity EquitySource,
) *ContinuousMonitor {
	return &ContinuousMonitor{
		logger:    logger.Named("monitor"),
		config:    config,
		feed:      dataFeed,
		bus:       bus,
		pyramids:  pyramids,
		exits:     exits,
		trades:    trades,
		positions: positions,
		equity:    equity,
	}
}

// Run ticks every config.CheckInterval, evaluating every open position
// until ctx is canceled, mirroring the teacher's context.WithCancel-driven
// shutdown idiom. A cycle already under way when ctx is canceled runs to
// completion; Run returns before the next one starts.
func (m *ContinuousMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("continuous monitor stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := m.runCycle(context.WithoutCancel(ctx)); err != nil {
				m.logger.Error("monitor cycle failed", zap.Error(err))
			}
		}
	}
}

// RunOnce evaluates every open position a single time, without ticking.
// Used by the backtest runner, which advances simulated time itself rather
// than relying on a wall-clock ticker.
func (m *ContinuousMonitor) RunOnce(ctx context.Context) error {
	return m.runCycle(ctx)
}

func (m *ContinuousMonitor) runCycle(ctx context.Context) error {
	open, err := m.positions.LoadOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("load open positions: %w", err)
	}

	for _, pos := range open {
		if err := m.evaluatePosition(ctx, pos); err != nil {
			m.logger.Error("evaluate position failed", zap.String("symbol", pos.Symbol), zap.Error(err))
		}
	}
	return nil
}

func (m *ContinuousMonitor) evaluatePosition(ctx context.Context, pos types.Position) error {
	market, err := m.buildMarketData(ctx, pos.Symbol)
	if err != nil {
		return err
	}

	decision := engine.Decide(pos, market, m.config.Rules.PyramidInterval, m.config.Rules.MaxUnitsPerMarket)
	agg := position.FromSnapshot(pos)

	switch decision.Action {
	case engine.ActionExitStop, engine.ActionExitBreakout:
		return m.executeExit(ctx, agg, decision)
	case engine.ActionPyramid:
		return m.executePyramid(ctx, agg, decision)
	default:
		m.publish(ctx, pos.Symbol, decision)
		return nil
	}
}

func (m *ContinuousMonitor) executeExit(ctx context.Context, agg *position.Aggregate, decision engine.Decision) error {
	pos := agg.Snapshot()
	trade, err := m.trades.OpenTrade(ctx, pos.Symbol)
	if err != nil {
		return fmt.Errorf("load open trade for %s: %w", pos.Symbol, err)
	}
	if trade == nil {
		return fmt.Errorf("no open trade record for %s", pos.Symbol)
	}

	reason := types.ExitStopHit
	if decision.Action == engine.ActionExitBreakout {
		reason = types.ExitBreakoutExit
	}

	if _, err := m.exits.Execute(ctx, agg, trade, reason); err != nil {
		return fmt.Errorf("execute exit for %s: %w", pos.Symbol, err)
	}

	if err := m.trades.SaveTrade(ctx, *trade); err != nil {
		return fmt.Errorf("save closed trade for %s: %w", pos.Symbol, err)
	}
	if err := m.positions.DeletePosition(ctx, pos.ID); err != nil {
		return fmt.Errorf("delete closed position %s: %w", pos.ID, err)
	}

	m.publish(ctx, pos.Symbol, decision)
	return nil
}

func (m *ContinuousMonitor) executePyramid(ctx context.Context, agg *position.Aggregate, decision engine.Decision) error {
	pos := agg.Snapshot()

	equity := decimal.Zero
	if m.equity != nil {
		equity = m.equity()
	}

	if _, _, err := m.pyramids.Execute(ctx, agg, decision.Market, equity, decision.TriggerPrice); err != nil {
		return fmt.Errorf("execute pyramid for %s: %w", pos.Symbol, err)
	}

	if err := m.positions.SavePosition(ctx, agg.Snapshot()); err != nil {
		return fmt.Errorf("save pyramided position for %s: %w", pos.Symbol, err)
	}

	m.publish(ctx, pos.Symbol, decision)
	return nil
}

func (m *ContinuousMonitor) buildMarketData(ctx context.Context, symbol string) (types.MarketData, error) {
	spec, err := m.feed.MarketSpec(ctx, symbol)
	if err != nil {
		return types.MarketData{}, err
	}

	current, err := m.feed.CurrentBar(ctx, symbol)
	if err != nil {
		return types.MarketData{}, err
	}

	// One bar beyond the longest channel, so that dropping the current bar
	// (when the feed's history includes it) still leaves a full window: the
	// channels cover completed bars only.
	bars, err := m.feed.History(ctx, symbol, m.config.Rules.EntryPeriodS2+1, time.Now())
	if err != nil {
		return types.MarketData{}, err
	}
	if n := len(bars); n > 0 && !bars[n-1].Date.Before(current.Date) {
		bars = bars[:n-1]
	}

	nCalc := indicators.NewNCalculator(m.config.Rules.ATRPeriod, m.config.Rules.ATRMethod)
	nValue, err := nCalc.FromHistory(bars)
	if err != nil {
		return types.MarketData{}, err
	}
	ch10, ch20, ch55, err := indicators.ComputeAll(bars)
	if err != nil {
		return types.MarketData{}, err
	}

	return types.MarketData{
		Spec:         spec,
		CurrentPrice: current.Close,
		DayHigh:      current.High,
		DayLow:       current.Low,
		N:            nValue,
		Donchian10:   ch10,
		Donchian20:   ch20,
		Donchian55:   ch55,
		UpdatedAt:    current.Date,
	}, nil
}

func (m *ContinuousMonitor) publish(ctx context.Context, symbol string, decision engine.Decision) {
	var eventType types.EventType
	switch decision.Action {
	case engine.ActionExitStop, engine.ActionExitBreakout:
		eventType = types.EventExitExecuted
	case engine.ActionPyramid:
		eventType = types.EventPyramidExecuted
	default:
		eventType = types.EventHold
	}

	event := m.bus.New("monitor", types.SourceMonitor, eventType, types.OutcomeSuccess, false)
	event.Symbol = symbol
	market := decision.Market
	pos := decision.Position
	event.Context = types.EventContext{Market: &market, Position: &pos}
	if err := m.bus.Publish(ctx, event); err != nil {
		m.logger.Warn("publish event failed", zap.Error(err))
	}
}
