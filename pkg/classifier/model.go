package classifier

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/realtime-ai/audioscene/pkg/trace"
)

// DefaultTopK is the number of predictions kept in a Result.
const DefaultTopK = 5

// ModelConfig configures a Model.
type ModelConfig struct {
	// Backend is used as-is when set; otherwise LoadBackend is called on first use.
	Backend     Backend
	LoadBackend func() (Backend, error)

	// Labels is used as-is when set; otherwise LabelPaths are tried on first use.
	Labels     *Labels
	LabelPaths []string

	// InputLength is the waveform length the backend expects. Shorter input
	// is zero-padded, longer input truncated. 0 passes input through.
	InputLength int
	// TopK defaults to DefaultTopK.
	TopK  int
	Rules *SceneRules
}

// Model scores backend logits and ranks labels.
// Resources load lazily; a load failure is permanent for the Model.
type Model struct {
	cfg   ModelConfig
	rules SceneRules

	once    sync.Once
	backend Backend
	labels  *Labels
	initErr error
}

// NewModel creates a Model. Nothing is loaded until the first call that needs it.
func NewModel(cfg ModelConfig) *Model {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	rules := DefaultSceneRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	return &Model{cfg: cfg, rules: rules}
}

func (m *Model) load() error {
	m.once.Do(func() {
		backend := m.cfg.Backend
		if backend == nil {
			if m.cfg.LoadBackend == nil {
				m.initErr = fmt.Errorf("%w: no backend configured", ErrResourceInit)
				return
			}
			b, err := m.cfg.LoadBackend()
			if err != nil {
				m.initErr = fmt.Errorf("%w: failed to load model: %w", ErrResourceInit, err)
				return
			}
			backend = b
		}

		labels := m.cfg.Labels
		if labels == nil {
			l, err := LoadLabels(m.cfg.LabelPaths...)
			if err != nil {
				backend.Close()
				m.initErr = err
				return
			}
			labels = l
		}

		m.backend = backend
		m.labels = labels
	})
	return m.initErr
}

// BackendName loads the model if needed and returns the backend name.
func (m *Model) BackendName() (string, error) {
	if err := m.load(); err != nil {
		return "", err
	}
	return m.backend.Name(), nil
}

// Labels loads resources if needed and returns the label table.
func (m *Model) Labels() (*Labels, error) {
	if err := m.load(); err != nil {
		return nil, err
	}
	return m.labels, nil
}

// Classify runs the backend on waveform and returns ranked predictions plus
// the scene classification.
func (m *Model) Classify(ctx context.Context, waveform []float32) (*Result, error) {
	if err := m.load(); err != nil {
		return nil, err
	}

	_, span := trace.InstrumentClassifierForward(ctx, m.backend.Name(), len(waveform))
	defer span.End()

	logits, err := m.backend.Classify(fitLength(waveform, m.cfg.InputLength))
	if err != nil {
		trace.RecordError(span, err)
		return nil, fmt.Errorf("backend %s: %w", m.backend.Name(), err)
	}

	probs, err := scores(logits)
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}

	return &Result{
		Predictions: rank(probs, m.labels, m.cfg.TopK),
		Scene:       m.rules.Evaluate(probs, m.labels),
	}, nil
}

// Close releases the backend if it was loaded.
func (m *Model) Close() error {
	if m.backend == nil {
		return nil
	}
	return m.backend.Close()
}

func fitLength(waveform []float32, n int) []float32 {
	if n <= 0 || len(waveform) == n {
		return waveform
	}
	out := make([]float32, n)
	copy(out, waveform)
	return out
}

func scores(logits []float32) ([]float32, error) {
	if len(logits) == 0 {
		return nil, fmt.Errorf("%w: empty logits", ErrMalformedOutput)
	}
	probs := make([]float32, len(logits))
	for i, v := range logits {
		if math.IsNaN(float64(v)) {
			return nil, fmt.Errorf("%w: NaN logit at class %d", ErrMalformedOutput, i)
		}
		probs[i] = Sigmoid(v)
	}
	return probs, nil
}

// Sigmoid maps a logit to a probability.
func Sigmoid(v float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(v))))
}

func rank(probs []float32, labels *Labels, k int) []Prediction {
	indices := make([]int, len(probs))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probs[indices[a]] > probs[indices[b]]
	})

	k = min(k, len(indices))
	preds := make([]Prediction, k)
	for i := 0; i < k; i++ {
		idx := indices[i]
		preds[i] = Prediction{Label: labels.Display(idx), Index: idx, Confidence: probs[idx]}
	}
	return preds
}
