package types

import "time"

// EventType enumerates every decision point the engine emits an Event for.
type EventType string

const (
	EventScanStarted     EventType = "SCAN_STARTED"
	EventScanCompleted   EventType = "SCAN_COMPLETED"
	EventEntrySignal     EventType = "ENTRY_SIGNAL"
	EventFilterVerdict   EventType = "FILTER_VERDICT"
	EventSizingComputed  EventType = "SIZING_COMPUTED"
	EventLimitVerdict    EventType = "LIMIT_VERDICT"
	EventOrderPlaced     EventType = "ORDER_PLACED"
	EventFill            EventType = "FILL"
	EventPositionOpened  EventType = "POSITION_OPENED"
	EventPyramidExecuted EventType = "PYRAMID_EXECUTED"
	EventExitExecuted    EventType = "EXIT_EXECUTED"
	EventTradeSkipped    EventType = "TRADE_SKIPPED"
	EventHold            EventType = "HOLD"
	EventRollover        EventType = "ROLLOVER"
	EventReconciliation  EventType = "RECONCILIATION_REQUIRED"
	EventError           EventType = "ERROR"
)

// Outcome classifies how a decision resolved.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeSkipped Outcome = "skipped"
	OutcomeDenied  Outcome = "denied"
	OutcomeFailed  Outcome = "failed"
)

// Source identifies which orchestrator produced an event.
type Source string

const (
	SourceScanner Source = "scanner"
	SourceMonitor Source = "monitor"
)

// EventContext carries the free-form snapshot data attached to an Event:
// market snapshot, position snapshot, account snapshot, sizing, and a reason
// string, as named by the spec's Event.context field.
type EventContext struct {
	Market  *MarketData `json:"market,omitempty"`
	Position *Position  `json:"position,omitempty"`
	Account  map[string]any `json:"account,omitempty"`
	Sizing   map[string]any `json:"sizing,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// Event is an immutable, append-only audit record. Sequence increases
// monotonically within a RunID; events are never amended after creation.
type Event struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Type      EventType    `json:"type"`
	Outcome   Outcome      `json:"outcome"`
	RunID     string       `json:"runId"`
	Sequence  uint64       `json:"sequence"`
	Symbol    string       `json:"symbol,omitempty"`
	Context   EventContext `json:"context"`
	Source    Source       `json:"source"`
	DryRun    bool         `json:"dryRun"`
}
