package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(scene string, labels ...string) *classifier.Result {
	r := &classifier.Result{Scene: &classifier.SceneClassification{Scene: scene}}
	confs := []float32{0.9, 0.8, 0.7}
	for i, l := range labels {
		r.Predictions = append(r.Predictions, classifier.Prediction{Label: l, Index: i, Confidence: confs[i]})
	}
	return r
}

func TestStoreAppendAndList(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	require.NoError(t, s.Append(ctx, NewEntry("b", base.Add(time.Second), result("outdoor", "Wind"))))
	require.NoError(t, s.Append(ctx, NewEntry("a", base.Add(2*time.Second), result("meeting", "Speech", "Music"))))
	require.NoError(t, s.Append(ctx, NewEntry("a", base, result("standard", "Music"))))

	entries, err := s.List(ctx, "a", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "standard", entries[0].Scene)
	assert.Equal(t, "meeting", entries[1].Scene)
	assert.Equal(t, []Prediction{{Label: "Speech", Confidence: 0.9}, {Label: "Music", Confidence: 0.8}}, entries[1].Predictions)
	assert.Equal(t, base.Add(2*time.Second).UnixNano(), entries[1].Time().UnixNano())

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := s.List(ctx, "a", 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "meeting", latest[0].Scene)

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, sessions)
}

func TestStoreRejectsInvalid(t *testing.T) {
	_, err := Open(Options{})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	s := openMemory(t)
	assert.ErrorIs(t, s.Append(context.Background(), Entry{}), ErrInvalidOptions)
}

func TestStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Options{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s.Append(context.Background(), NewEntry("s", time.Now(), result("meeting"))))
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.List(context.Background(), "s", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecorder(t *testing.T) {
	s := openMemory(t)
	rec := NewRecorder(s, func() string { return "sess" })

	speech := result("meeting", "Speech")
	speech.NoiseMode = "standard"
	rec.OnResult(speech)
	rec.OnStatus("inference done in 12 ms")
	rec.OnInferenceTime(12)

	rec.OnResult(result("outdoor", "Wind"))
	rec.OnResult(result("outdoor", "Rain"))
	rec.Flush()
	rec.OnInferenceTime(5)

	entries, err := s.List(context.Background(), "sess", 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, int64(12), entries[0].InferenceMs)
	assert.Equal(t, "standard", entries[0].Mode, "mode the audio was processed with")
	assert.Equal(t, "meeting", entries[0].Scene)
	assert.Equal(t, "Speech", entries[0].Predictions[0].Label)
	assert.Equal(t, int64(0), entries[1].InferenceMs)
	assert.Equal(t, "Rain", entries[2].Predictions[0].Label)
}
