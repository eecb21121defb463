package trace

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentInference creates a span covering one scheduled classification
func InstrumentInference(ctx context.Context, sessionID string, samples int) (context.Context, trace.Span) {
	attrs := append(SessionAttrs(sessionID), attribute.Int(AttrAudioSamples, samples))
	return StartSpan(ctx, "inference.classify", trace.WithAttributes(attrs...))
}

// InstrumentSnapshot creates a span for one full-window extraction cycle
func InstrumentSnapshot(ctx context.Context, sampleRate, samples int, meanAbs float64, noiseMode string) (context.Context, trace.Span) {
	return StartSpan(ctx, "capture.snapshot",
		trace.WithAttributes(SnapshotAttrs(sampleRate, samples, meanAbs, noiseMode)...),
	)
}

// InstrumentClassifierForward creates a span for the model forward pass
func InstrumentClassifierForward(ctx context.Context, backend string, samples int) (context.Context, trace.Span) {
	return StartSpan(ctx, "classifier.forward",
		trace.WithAttributes(
			attribute.String(AttrInferenceBackend, backend),
			attribute.Int(AttrAudioSamples, samples),
		),
	)
}

// InstrumentExport creates a span for writing a snapshot to disk
func InstrumentExport(ctx context.Context, tag string, samples int) (context.Context, trace.Span) {
	return StartSpan(ctx, "playback.export",
		trace.WithAttributes(
			attribute.String("export.tag", tag),
			attribute.Int(AttrAudioSamples, samples),
		),
	)
}
