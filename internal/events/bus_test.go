package events_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/turtletrader/engine/internal/events"
	"github.com/turtletrader/engine/pkg/types"
	"go.uber.org/zap"
)

type stubRepo struct {
	mu     sync.Mutex
	events []types.Event
}

func (r *stubRepo) AppendEvent(ctx context.Context, event types.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *stubRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestBus_PublishPersistsToRepo(t *testing.T) {
	repo := &stubRepo{}
	bus := events.NewBus(zap.NewNop(), events.DefaultBusConfig(), repo)
	defer bus.Close()

	if err := bus.Publish(context.Background(), types.Event{ID: "e1", Type: types.EventScanStarted}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if repo.count() != 1 {
		t.Errorf("repo.count() = %d, want 1", repo.count())
	}
}

func TestBus_DispatchesToTypedAndWildcardSubscribers(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), events.DefaultBusConfig(), nil)
	defer bus.Close()

	typedCh := make(chan types.Event, 1)
	allCh := make(chan types.Event, 1)

	bus.Subscribe(types.EventEntrySignal, func(e types.Event) error {
		typedCh <- e
		return nil
	})
	bus.Subscribe("", func(e types.Event) error {
		allCh <- e
		return nil
	})

	if err := bus.Publish(context.Background(), types.Event{ID: "e1", Type: types.EventEntrySignal}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case e := <-typedCh:
		if e.ID != "e1" {
			t.Errorf("typed subscriber got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("typed subscriber never received the event")
	}

	select {
	case e := <-allCh:
		if e.ID != "e1" {
			t.Errorf("wildcard subscriber got %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("wildcard subscriber never received the event")
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), events.DefaultBusConfig(), nil)
	defer bus.Close()

	ch := make(chan types.Event, 2)
	sub := bus.Subscribe(types.EventHold, func(e types.Event) error {
		ch <- e
		return nil
	})
	bus.Unsubscribe(sub)

	if err := bus.Publish(context.Background(), types.Event{ID: "e1", Type: types.EventHold}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case e := <-ch:
		t.Fatalf("unsubscribed handler received event: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

// TestBus_NextSequenceIsMonotonicPerRun covers the per-RunID monotonic
// sequence number property.
func TestBus_NextSequenceIsMonotonicPerRun(t *testing.T) {
	bus := events.NewBus(zap.NewNop(), events.DefaultBusConfig(), nil)
	defer bus.Close()

	if s := bus.NextSequence("run-a"); s != 1 {
		t.Errorf("first sequence for run-a = %d, want 1", s)
	}
	if s := bus.NextSequence("run-a"); s != 2 {
		t.Errorf("second sequence for run-a = %d, want 2", s)
	}
	if s := bus.NextSequence("run-b"); s != 1 {
		t.Errorf("first sequence for run-b = %d, want 1 (independent of run-a)", s)
	}
}
