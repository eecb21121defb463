package trace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/realtime-ai/audioscene"

// Cycle outcomes recorded on Metrics.Cycles.
const (
	OutcomeAccepted = "accepted"
	OutcomeSkipped  = "skipped"
	OutcomeRejected = "rejected"
)

// Metrics holds the OpenTelemetry instruments of the capture pipeline.
// All fields are safe for concurrent use.
type Metrics struct {
	// InferenceDuration tracks classifier latency in seconds.
	InferenceDuration metric.Float64Histogram

	// Cycles counts extraction cycles by outcome. Use with attribute:
	//   attribute.String("outcome", OutcomeAccepted|OutcomeSkipped|OutcomeRejected)
	Cycles metric.Int64Counter

	// InferenceErrors counts failed classifications.
	InferenceErrors metric.Int64Counter
}

// latencyBuckets are histogram boundaries (in seconds) for model inference.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.InferenceDuration, err = m.Float64Histogram("audioscene.inference.duration",
		metric.WithDescription("Latency of scene classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Cycles, err = m.Int64Counter("audioscene.cycles",
		metric.WithDescription("Extraction cycles by outcome."),
	); err != nil {
		return nil, err
	}
	if met.InferenceErrors, err = m.Int64Counter("audioscene.inference.errors",
		metric.WithDescription("Failed scene classifications."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

// DefaultMetrics returns instruments bound to the global MeterProvider.
// It panics only if the global provider rejects the instrument definitions.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(otel.GetMeterProvider())
	if err != nil {
		panic(err)
	}
	return m
}

// RecordCycle increments the cycle counter for outcome.
func (m *Metrics) RecordCycle(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Cycles.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordInference records a completed classification.
func (m *Metrics) RecordInference(ctx context.Context, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.InferenceErrors.Add(ctx, 1)
		return
	}
	m.InferenceDuration.Record(ctx, elapsed.Seconds())
}
