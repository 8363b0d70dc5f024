// Package events provides the append-only event bus every decision point in
// the engine publishes to: scans, signals, sizing, limit verdicts, fills,
// pyramids, exits, holds, rollovers, and errors.
package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/turtletrader/engine/pkg/types"
	"github.com/turtletrader/engine/pkg/utils"
	"go.uber.org/zap"
)

// Handler processes a published Event. A returned error is logged, not
// propagated to the publisher.
type Handler func(types.Event) error

// Subscription is a registered handler, optionally filtered to one event
// type.
type Subscription struct {
	ID       string
	Type     types.EventType // empty means "all types"
	handler  Handler
	active   atomic.Bool
}

// BusConfig configures worker count and channel buffering.
type BusConfig struct {
	Workers    int
	BufferSize int
}

// DefaultBusConfig returns a modest default suitable for a single-process
// scanner/monitor — this system emits thousands, not millions, of events
// per run, so it does not need the teacher's 16-worker / 100K-buffer defaults.
func DefaultBusConfig() BusConfig {
	return BusConfig{Workers: 4, BufferSize: 1000}
}

// Stats tracks bus throughput for the telemetry package to surface.
type Stats struct {
	Published atomic.Int64
	Processed atomic.Int64
	Errors    atomic.Int64
}

// Bus is the central append-only event router. Every published Event is
// also appended to Repo (if set), which is the durable audit trail; Bus
// itself only fans out to in-process subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[types.EventType][]*Subscription
	allSubs     []*Subscription

	eventChan chan types.Event
	workers   int

	stats Stats

	sequences sync.Map // runID -> *atomic.Uint64

	repo Repo

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.Logger
}

// Repo is the durable append-only store events are persisted to.
type Repo interface {
	AppendEvent(ctx context.Context, event types.Event) error
}

// NewBus builds a Bus and starts its worker pool. Call Close to stop it.
func NewBus(logger *zap.Logger, config BusConfig, repo Repo) *Bus {
	workers := config.Workers
	if workers <= 0 {
		workers = 4
	}
	bufferSize := config.BufferSize
	if bufferSize <= 0 {
		bufferSize = 1000
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		subscribers: make(map[types.EventType][]*Subscription),
		eventChan:   make(chan types.Event, bufferSize),
		workers:     workers,
		repo:        repo,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.Named("events"),
	}

	for i := 0; i < workers; i++ {
		b.wg.Add(1)
		go b.worker()
	}

	return b
}

// Subscribe registers handler for events of eventType, or every event type
// if eventType is empty.
func (b *Bus) Subscribe(eventType types.EventType, handler Handler) *Subscription {
	sub := &Subscription{ID: utils.GenerateID("sub"), Type: eventType, handler: handler}
	sub.active.Store(true)

	b.mu.Lock()
	defer b.mu.Unlock()
	if eventType == "" {
		b.allSubs = append(b.allSubs, sub)
	} else {
		b.subscribers[eventType] = append(b.subscribers[eventType], sub)
	}
	return sub
}

// Unsubscribe deactivates sub; it is not removed from the slice, only
// flagged inactive, so concurrent publishes in flight never race on the
// slice itself.
func (b *Bus) Unsubscribe(sub *Subscription) {
	sub.active.Store(false)
}

// NextSequence returns the next monotonically increasing sequence number
// for runID, starting at 1.
func (b *Bus) NextSequence(runID string) uint64 {
	v, _ := b.sequences.LoadOrStore(runID, new(atomic.Uint64))
	counter := v.(*atomic.Uint64)
	return counter.Add(1)
}

// Publish appends event to the durable repo (if configured) and queues it
// for subscriber fan-out. Publish never blocks on handler execution.
func (b *Bus) Publish(ctx context.Context, event types.Event) error {
	if b.repo != nil {
		if err := b.repo.AppendEvent(ctx, event); err != nil {
			return err
		}
	}

	b.stats.Published.Add(1)
	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event channel full, dropping fan-out (event still persisted)",
			zap.String("eventId", event.ID),
			zap.String("type", string(event.Type)),
		)
	}
	return nil
}

func (b *Bus) worker() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event := <-b.eventChan:
			b.dispatch(event)
		}
	}
}

func (b *Bus) dispatch(event types.Event) {
	b.mu.RLock()
	subs := b.subscribers[event.Type]
	all := b.allSubs
	b.mu.RUnlock()

	for _, sub := range subs {
		b.invoke(sub, event)
	}
	for _, sub := range all {
		b.invoke(sub, event)
	}
	b.stats.Processed.Add(1)
}

func (b *Bus) invoke(sub *Subscription, event types.Event) {
	if !sub.active.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.stats.Errors.Add(1)
			b.logger.Error("event handler panic",
				zap.String("subscriptionId", sub.ID),
				zap.String("type", string(event.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	if err := sub.handler(event); err != nil {
		b.stats.Errors.Add(1)
		b.logger.Warn("event handler error",
			zap.String("subscriptionId", sub.ID),
			zap.String("type", string(event.Type)),
			zap.Error(err),
		)
	}
}

// Close stops the worker pool and waits for in-flight handlers to return.
func (b *Bus) Close() {
	b.cancel()
	b.wg.Wait()
}

// newEventTimestamp exists so tests can stub the clock if ever needed; the
// bus itself always uses wall-clock time for emitted-at stamps.
func newEventTimestamp() time.Time { return time.Now() }
