package events

import (
	"time"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/turtletrader/engine/pkg/utils"
)

// New builds an Event with a generated ID, the next sequence number for
// runID, and the current timestamp. Callers fill in Symbol and Context
// after construction as needed.
func (b *Bus) New(runID string, source types.Source, eventType types.EventType, outcome types.Outcome, dryRun bool) types.Event {
	return types.Event{
		ID:        utils.GenerateEventID(),
		Timestamp: time.Now(),
		Type:      eventType,
		Outcome:   outcome,
		RunID:     runID,
		Sequence:  b.NextSequence(runID),
		Source:    source,
		DryRun:    dryRun,
	}
}
