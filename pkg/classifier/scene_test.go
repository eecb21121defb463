package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneLabels() *Labels {
	return NewLabels(
		"Speech",
		"Inside, small room",
		"Wind",
		"Outside, urban or manmade",
	)
}

func TestSceneRules_Evaluate(t *testing.T) {
	rules := DefaultSceneRules()
	labels := sceneLabels()

	tests := []struct {
		name  string
		probs []float32
		want  string
	}{
		{"speech indoors", []float32{0.8, 0.1, 0, 0}, SceneMeeting},
		{"wind outdoors", []float32{0.1, 0, 0.5, 0.2}, SceneOutdoor},
		{"meeting wins over outdoor", []float32{0.9, 0.05, 0.9, 0.9}, SceneMeeting},
		{"speech without room", []float32{0.9, 0.01, 0, 0}, SceneStandard},
		{"wind below threshold", []float32{0, 0, 0.2, 0.5}, SceneStandard},
		{"thresholds are inclusive", []float32{0.5, 0.04, 0, 0}, SceneMeeting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := rules.Evaluate(tt.probs, labels)
			require.NotNil(t, sc)
			assert.Equal(t, tt.want, sc.Scene)
		})
	}
}

func TestSceneRules_Trace(t *testing.T) {
	sc := DefaultSceneRules().Evaluate([]float32{0.1, 0, 0.5, 0.2}, sceneLabels())

	require.Len(t, sc.Trace, 4)
	assert.Contains(t, sc.Trace[0], "speech")
	assert.Contains(t, sc.Trace[0], "false")
	assert.Contains(t, sc.Trace[3], "outdoor")
	assert.Contains(t, sc.Trace[3], "true")
}

func TestSceneRules_UnresolvedLabels(t *testing.T) {
	sc := DefaultSceneRules().Evaluate([]float32{0.99, 0.99}, NewLabels("Music", "Dog"))
	assert.Equal(t, SceneStandard, sc.Scene)
	assert.Contains(t, sc.Trace[0], "no matching classes")
}
