package history

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

// Recorder is a pipeline.Listener that appends every result to a Store.
// A result is written when its inference time arrives, which the scheduler
// always publishes right after the result.
type Recorder struct {
	store     *Store
	sessionID func() string

	mu      sync.Mutex
	pending *Entry
}

// NewRecorder creates a Recorder. sessionID is sampled when a result
// arrives.
func NewRecorder(store *Store, sessionID func() string) *Recorder {
	return &Recorder{store: store, sessionID: sessionID}
}

func (r *Recorder) OnResult(result *classifier.Result) {
	e := NewEntry(r.sessionID(), time.Now(), result)

	r.mu.Lock()
	prev := r.pending
	r.pending = &e
	r.mu.Unlock()

	if prev != nil {
		r.write(*prev)
	}
}

func (r *Recorder) OnInferenceTime(ms int64) {
	r.mu.Lock()
	e := r.pending
	r.pending = nil
	r.mu.Unlock()

	if e != nil {
		e.InferenceMs = ms
		r.write(*e)
	}
}

func (r *Recorder) OnStatus(string) {}
func (r *Recorder) OnError(string)  {}

// Flush writes a result still waiting for its timing.
func (r *Recorder) Flush() {
	r.mu.Lock()
	e := r.pending
	r.pending = nil
	r.mu.Unlock()

	if e != nil {
		r.write(*e)
	}
}

func (r *Recorder) write(e Entry) {
	if err := r.store.Append(context.Background(), e); err != nil {
		log.Printf("[History] Failed to store result: %v", err)
	}
}
