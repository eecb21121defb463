package trace

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetricsRecordCycleAndInference(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCycle(ctx, OutcomeAccepted)
	m.RecordCycle(ctx, OutcomeSkipped)
	m.RecordCycle(ctx, OutcomeSkipped)
	m.RecordInference(ctx, 120*time.Millisecond, nil)
	m.RecordInference(ctx, 0, errors.New("boom"))

	got := collect(t, reader)

	cycles, ok := got["audioscene.cycles"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range cycles.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, cycles.DataPoints, 2)

	hist, ok := got["audioscene.inference.duration"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.12, hist.DataPoints[0].Sum, 1e-9)

	errs, ok := got["audioscene.inference.errors"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, errs.DataPoints, 1)
	assert.Equal(t, int64(1), errs.DataPoints[0].Value)
}

func TestMetricsNilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCycle(context.Background(), OutcomeRejected)
		m.RecordInference(context.Background(), time.Second, nil)
	})
}
