package bus

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPublishSyncDeliversToAll(t *testing.T) {
	b := NewEventBus()
	var count int32

	b.Subscribe(EventTypeMotionStarted, func(Event) { atomic.AddInt32(&count, 1) })
	b.Subscribe(EventTypeMotionStarted, func(Event) { atomic.AddInt32(&count, 1) })
	b.Subscribe(EventTypeMotionFinished, func(Event) { atomic.AddInt32(&count, 100) })

	b.PublishSync(Event{Type: EventTypeMotionStarted, Data: map[string]any{"id": "wave"}})

	if got := atomic.LoadInt32(&count); got != 2 {
		t.Errorf("delivered to %d handlers, want 2", got)
	}
}

func TestSubscribeMultiple(t *testing.T) {
	b := NewEventBus()
	var mu sync.Mutex
	seen := map[EventType]int{}

	b.SubscribeMultiple([]EventType{EventTypeBlink, EventTypeEmotionChanged}, func(e Event) {
		mu.Lock()
		seen[e.Type]++
		mu.Unlock()
	})

	b.PublishSync(Event{Type: EventTypeBlink})
	b.PublishSync(Event{Type: EventTypeEmotionChanged})

	mu.Lock()
	defer mu.Unlock()
	if seen[EventTypeBlink] != 1 || seen[EventTypeEmotionChanged] != 1 {
		t.Errorf("unexpected delivery counts: %v", seen)
	}
}

func TestClear(t *testing.T) {
	b := NewEventBus()
	called := int32(0)
	b.Subscribe(EventTypeTouchRejected, func(Event) { atomic.AddInt32(&called, 1) })
	b.Clear()
	b.PublishSync(Event{Type: EventTypeTouchRejected})

	if atomic.LoadInt32(&called) != 0 {
		t.Error("cleared handler still invoked")
	}
}

func TestPublishWithNoHandlers(t *testing.T) {
	b := NewEventBus()
	// Must not panic.
	b.Publish(Event{Type: EventTypeHobbyTriggered})
	b.PublishSync(Event{Type: EventTypeHobbyTriggered})
}
