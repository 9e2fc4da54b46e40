package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"ecoguard_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
}

func (testEvent) EventName() string { return "test.happened" }

func TestPublishReachesAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	var calls atomic.Int32
	handler := HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return nil
	})
	bus.Subscribe("test.happened", handler)
	bus.Subscribe("test.happened", handler)
	bus.Subscribe("other", handler)

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, testEvent{BaseEvent: NewBaseEvent()})
	cancel()
	bus.Wait()

	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls.Load())
	}
}

func TestPublishSyncReturnsFirstError(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	boom := errors.New("boom")
	secondCalled := false
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error { return boom }))
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error {
		secondCalled = true
		return nil
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if secondCalled {
		t.Fatal("expected handlers after the failing one to be skipped")
	}
}

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	bus.Subscribe("test.happened", HandlerFunc(func(context.Context, Event) error { panic("bad handler") }))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()
}
