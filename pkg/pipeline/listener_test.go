package pipeline

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

type recordingListener struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingListener) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recordingListener) OnResult(res *classifier.Result) {
	top, _ := res.Top()
	r.add("result:" + top.Label)
}
func (r *recordingListener) OnStatus(s string)        { r.add("status:" + s) }
func (r *recordingListener) OnError(s string)         { r.add("error:" + s) }
func (r *recordingListener) OnInferenceTime(ms int64) { r.add(fmt.Sprintf("time:%d", ms)) }

func (r *recordingListener) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func TestNotifierPreservesOrderAcrossTypes(t *testing.T) {
	bus := NewEventBus()
	l := &recordingListener{}
	n := NewNotifier(bus, l, 0)

	result := &classifier.Result{Predictions: []classifier.Prediction{{Label: "Speech", Confidence: 0.9}}}
	bus.Publish(Event{Type: EventStatus, Payload: "listening"})
	bus.Publish(Event{Type: EventError, Payload: "insufficient signal"})
	bus.Publish(Event{Type: EventResult, Payload: result})
	bus.Publish(Event{Type: EventInferenceTime, Payload: int64(12)})
	n.Close()

	assert.Equal(t, []string{
		"status:listening",
		"error:insufficient signal",
		"result:Speech",
		"time:12",
	}, l.snapshot())
}

func TestNotifierCloseDropsLateEvents(t *testing.T) {
	bus := NewEventBus()
	l := &recordingListener{}
	n := NewNotifier(bus, l, 4)
	n.Close()
	n.Close()

	assert.True(t, bus.Publish(Event{Type: EventResult, Payload: &classifier.Result{}}))
	assert.Empty(t, l.snapshot())
}

func TestCallbacksSkipNilFields(t *testing.T) {
	var statuses []string
	cb := Callbacks{Status: func(s string) { statuses = append(statuses, s) }}

	require.NotPanics(t, func() {
		Dispatch(cb, Event{Type: EventResult, Payload: &classifier.Result{}})
		Dispatch(cb, Event{Type: EventError, Payload: "x"})
		Dispatch(cb, Event{Type: EventInferenceTime, Payload: int64(1)})
		Dispatch(cb, Event{Type: EventStatus, Payload: "stopped"})
		Dispatch(cb, Event{Type: EventStatus, Payload: 3})
	})
	assert.Equal(t, []string{"stopped"}, statuses)
}

func TestListenersFanOut(t *testing.T) {
	a, b := &recordingListener{}, &recordingListener{}
	ls := Listeners{a, b}

	ls.OnStatus("listening")
	ls.OnResult(&classifier.Result{Predictions: []classifier.Prediction{{Label: "Speech"}}})
	ls.OnInferenceTime(7)
	ls.OnError("boom")

	want := []string{"status:listening", "result:Speech", "time:7", "error:boom"}
	assert.Equal(t, want, a.snapshot())
	assert.Equal(t, want, b.snapshot())
}
