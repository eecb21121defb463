package pipeline

import (
	"sync"
	"time"
)

// EventType identifies a notification variant on the bus.
type EventType int

const (
	// EventResult carries a *classifier.Result.
	EventResult EventType = iota
	// EventStatus carries a status string.
	EventStatus
	// EventError carries the error text as a string.
	EventError
	// EventInferenceTime carries the classification latency in milliseconds (int64).
	EventInferenceTime
)

func (t EventType) String() string {
	switch t {
	case EventResult:
		return "result"
	case EventStatus:
		return "status"
	case EventError:
		return "error"
	case EventInferenceTime:
		return "inference_time"
	default:
		return "unknown"
	}
}

// AllEventTypes lists every notification variant.
var AllEventTypes = []EventType{EventResult, EventStatus, EventError, EventInferenceTime}

// Event is a single notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	// SessionID identifies the streaming session that produced the event.
	SessionID string
	Payload   interface{}
}

// Bus fans events out to subscribed channels. Publish never blocks; an event
// is dropped for a subscriber whose channel is full.
type Bus interface {
	Subscribe(eventType EventType, ch chan<- Event)
	Unsubscribe(eventType EventType, ch chan<- Event)
	// Publish reports whether every subscriber received the event.
	Publish(evt Event) bool
}

type eventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan<- Event
}

// NewEventBus creates an in-process Bus.
func NewEventBus() Bus {
	return &eventBus{
		subscribers: make(map[EventType][]chan<- Event),
	}
}

func (b *eventBus) Subscribe(eventType EventType, ch chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], ch)
}

func (b *eventBus) Unsubscribe(eventType EventType, ch chan<- Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[eventType]
	for i, c := range subs {
		if c == ch {
			b.subscribers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subscribers[eventType]) == 0 {
		delete(b.subscribers, eventType)
	}
}

func (b *eventBus) Publish(evt Event) bool {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := true
	for _, ch := range b.subscribers[evt.Type] {
		select {
		case ch <- evt:
		default:
			delivered = false
		}
	}
	return delivered
}
