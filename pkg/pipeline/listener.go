package pipeline

import (
	"log"
	"sync"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

// DefaultNotifierBuffer is the subscription depth of a Notifier.
const DefaultNotifierBuffer = 256

// Listener receives capture notifications. Methods are never called
// concurrently with each other.
type Listener interface {
	OnResult(result *classifier.Result)
	OnStatus(status string)
	OnError(message string)
	OnInferenceTime(ms int64)
}

// Callbacks adapts plain functions to Listener. Nil fields are skipped.
type Callbacks struct {
	Result        func(*classifier.Result)
	Status        func(string)
	Error         func(string)
	InferenceTime func(int64)
}

func (c Callbacks) OnResult(r *classifier.Result) {
	if c.Result != nil {
		c.Result(r)
	}
}

func (c Callbacks) OnStatus(s string) {
	if c.Status != nil {
		c.Status(s)
	}
}

func (c Callbacks) OnError(msg string) {
	if c.Error != nil {
		c.Error(msg)
	}
}

func (c Callbacks) OnInferenceTime(ms int64) {
	if c.InferenceTime != nil {
		c.InferenceTime(ms)
	}
}

// Listeners fans every notification out to each listener in order.
type Listeners []Listener

func (ls Listeners) OnResult(r *classifier.Result) {
	for _, l := range ls {
		l.OnResult(r)
	}
}

func (ls Listeners) OnStatus(s string) {
	for _, l := range ls {
		l.OnStatus(s)
	}
}

func (ls Listeners) OnError(msg string) {
	for _, l := range ls {
		l.OnError(msg)
	}
}

func (ls Listeners) OnInferenceTime(ms int64) {
	for _, l := range ls {
		l.OnInferenceTime(ms)
	}
}

// Notifier delivers bus events to a Listener from a single goroutine, in
// publish order across all event types.
type Notifier struct {
	bus      Bus
	listener Listener
	ch       chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewNotifier subscribes listener to every event type on bus and starts the
// dispatch goroutine. Call Close to unsubscribe.
func NewNotifier(bus Bus, listener Listener, buffer int) *Notifier {
	if buffer <= 0 {
		buffer = DefaultNotifierBuffer
	}
	n := &Notifier{
		bus:      bus,
		listener: listener,
		ch:       make(chan Event, buffer),
		done:     make(chan struct{}),
	}
	for _, t := range AllEventTypes {
		bus.Subscribe(t, n.ch)
	}
	go n.run()
	return n
}

func (n *Notifier) run() {
	defer close(n.done)
	for evt := range n.ch {
		Dispatch(n.listener, evt)
	}
}

// Close unsubscribes, delivers what is already queued and waits for the
// dispatch goroutine to exit. Events published afterwards are dropped.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() {
		for _, t := range AllEventTypes {
			n.bus.Unsubscribe(t, n.ch)
		}
		close(n.ch)
	})
	<-n.done
}

// Dispatch invokes the Listener method matching evt.Type.
func Dispatch(l Listener, evt Event) {
	switch evt.Type {
	case EventResult:
		if r, ok := evt.Payload.(*classifier.Result); ok {
			l.OnResult(r)
		}
	case EventStatus:
		if s, ok := evt.Payload.(string); ok {
			l.OnStatus(s)
		}
	case EventError:
		if s, ok := evt.Payload.(string); ok {
			l.OnError(s)
		}
	case EventInferenceTime:
		if ms, ok := evt.Payload.(int64); ok {
			l.OnInferenceTime(ms)
		}
	default:
		log.Printf("[Notifier] Unknown event type: %v", evt.Type)
	}
}
