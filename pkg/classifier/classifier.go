// Package classifier turns a fixed-length waveform into ranked acoustic
// scene labels.
//
// A Backend runs the model and returns raw logits; Model wraps a backend
// with the label table, sigmoid scoring, top-K ranking and the rule layer
// that derives a coarse scene (meeting, outdoor, standard).
//
// Usage:
//
//	model := classifier.NewModel(classifier.ModelConfig{
//	    LoadBackend: func() (classifier.Backend, error) {
//	        return classifier.NewONNXBackend(classifier.ONNXConfig{ModelPath: "passt.onnx"})
//	    },
//	    LabelPaths: []string{"labels_zh.csv", "labels.csv"},
//	})
//	result, err := model.Classify(ctx, waveform)
package classifier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrResourceInit wraps failures to load the model or the label table.
	ErrResourceInit = errors.New("classifier resources unavailable")
	// ErrMalformedOutput is returned when a backend yields unusable logits.
	ErrMalformedOutput = errors.New("malformed classifier output")
)

// Backend runs the acoustic model. It must be deterministic for identical
// weights and input and keep no state across calls beyond initialization.
type Backend interface {
	// Classify returns one logit per class for a fixed-length waveform.
	Classify(waveform []float32) ([]float32, error)
	// Name identifies the execution backend, e.g. "onnxruntime/cpu".
	Name() string
	// Close releases the model.
	Close() error
}

// Prediction is one ranked label.
type Prediction struct {
	Label      string
	Index      int
	Confidence float32
}

// SceneClassification is the outcome of the scene rule layer.
type SceneClassification struct {
	Scene string
	// Trace lists every threshold comparison in evaluation order.
	Trace []string
}

// Result is an immutable classification outcome.
type Result struct {
	// Predictions are sorted by descending confidence.
	Predictions []Prediction
	Scene       *SceneClassification
	// NoiseMode names the noise reduction applied to the classified audio.
	// The capture pipeline sets it before publishing.
	NoiseMode string
}

// Top returns the highest ranked prediction.
func (r *Result) Top() (Prediction, bool) {
	if r == nil || len(r.Predictions) == 0 {
		return Prediction{}, false
	}
	return r.Predictions[0], true
}

// SceneName returns the scene label or "" when there is none.
func (r *Result) SceneName() string {
	if r == nil || r.Scene == nil {
		return ""
	}
	return r.Scene.Scene
}

// Format renders the predictions as numbered lines.
func (r *Result) Format() string {
	if r == nil || len(r.Predictions) == 0 {
		return "no predictions"
	}

	var b strings.Builder
	if scene := r.SceneName(); scene != "" {
		fmt.Fprintf(&b, "scene: %s\n", scene)
	}
	for i, p := range r.Predictions {
		fmt.Fprintf(&b, "%d. %s (%.2f)\n", i+1, p.Label, p.Confidence)
	}
	return strings.TrimSpace(b.String())
}
