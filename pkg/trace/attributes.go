package trace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys used throughout the application
const (
	// Session attributes
	AttrSessionID = "session.id"

	// Audio attributes
	AttrAudioSampleRate = "audio.sample_rate"
	AttrAudioSamples    = "audio.samples"
	AttrAudioMeanAbs    = "audio.mean_abs"
	AttrNoiseMode       = "audio.noise_mode"

	// Inference attributes
	AttrInferenceBackend  = "inference.backend"
	AttrInferenceOutcome  = "inference.outcome"
	AttrInferenceScene    = "inference.scene"
	AttrInferenceTopLabel = "inference.top_label"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Helper functions to create common attributes

// SessionAttrs creates attributes for session information
func SessionAttrs(sessionID string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrSessionID, sessionID),
	}
}

// SnapshotAttrs creates attributes describing a window snapshot
func SnapshotAttrs(sampleRate, samples int, meanAbs float64, noiseMode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrAudioSampleRate, sampleRate),
		attribute.Int(AttrAudioSamples, samples),
		attribute.Float64(AttrAudioMeanAbs, meanAbs),
		attribute.String(AttrNoiseMode, noiseMode),
	}
}

// ResultAttrs creates attributes for a classification outcome
func ResultAttrs(scene, topLabel string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrInferenceScene, scene),
		attribute.String(AttrInferenceTopLabel, topLabel),
	}
}

// ErrorAttrs creates attributes for errors
func ErrorAttrs(errType, errMsg string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrErrorType, errType),
		attribute.String(AttrErrorMessage, errMsg),
	}
}
