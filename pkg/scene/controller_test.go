package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/denoise"
)

func resultWithScene(scene string) *classifier.Result {
	return &classifier.Result{Scene: &classifier.SceneClassification{Scene: scene}}
}

func TestControllerUpdate(t *testing.T) {
	tests := []struct {
		scene string
		want  denoise.Mode
	}{
		{"meeting", denoise.ModeMeeting},
		{"Conference Room", denoise.ModeMeeting},
		{"公司会议", denoise.ModeMeeting},
		{"OUTDOOR", denoise.ModeOutdoor},
		{"户外", denoise.ModeOutdoor},
		{"standard", denoise.ModeStandard},
		{"kitchen", denoise.ModeStandard},
	}

	for _, tt := range tests {
		t.Run(tt.scene, func(t *testing.T) {
			c := NewController()
			assert.Equal(t, tt.want, c.Update(resultWithScene(tt.scene)))
			assert.Equal(t, tt.want, c.Mode())
		})
	}
}

func TestControllerAbsentSceneKeepsMode(t *testing.T) {
	c := NewController()
	c.Set(denoise.ModeOutdoor)

	assert.Equal(t, denoise.ModeOutdoor, c.Update(nil))
	assert.Equal(t, denoise.ModeOutdoor, c.Update(&classifier.Result{}))
	assert.Equal(t, denoise.ModeOutdoor, c.Mode())
}

func TestControllerApplyReportsChange(t *testing.T) {
	c := NewController()
	assert.Equal(t, denoise.ModeStandard, c.Mode())

	_, changed := c.Apply(resultWithScene("meeting"))
	assert.True(t, changed)
	_, changed = c.Apply(resultWithScene("meeting"))
	assert.False(t, changed)
	mode, changed := c.Apply(resultWithScene("outdoor"))
	assert.True(t, changed)
	assert.Equal(t, denoise.ModeOutdoor, mode)
	assert.Equal(t, "outdoor", c.LastScene())
}

func TestControllerConcurrentAccess(t *testing.T) {
	c := NewController()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Update(resultWithScene("meeting"))
		}()
		go func() {
			defer wg.Done()
			_ = c.Mode()
		}()
	}
	wg.Wait()
	assert.Equal(t, denoise.ModeMeeting, c.Mode())
}
