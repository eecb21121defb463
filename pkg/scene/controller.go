// Package scene maps classifier scenes to the noise mode applied on the
// next capture cycle.
package scene

import (
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/denoise"
)

var (
	// MeetingMarkers select ModeMeeting when found in a scene name.
	MeetingMarkers = []string{"meeting", "conference", "会议"}
	// OutdoorMarkers select ModeOutdoor when found in a scene name.
	OutdoorMarkers = []string{"outdoor", "户外"}
)

// Controller holds the current noise mode. Update is called from the
// inference worker and Mode from the capture goroutine.
type Controller struct {
	mode atomic.Int32

	// folding a Caser is stateful, so calls are serialized
	mu        sync.Mutex
	caser     cases.Caser
	lastScene string
}

// NewController starts in ModeStandard.
func NewController() *Controller {
	return &Controller{caser: cases.Lower(language.Und)}
}

// Mode returns the mode to apply on the next cycle.
func (c *Controller) Mode() denoise.Mode {
	return denoise.Mode(c.mode.Load())
}

// Set forces the mode.
func (c *Controller) Set(m denoise.Mode) {
	c.mode.Store(int32(m))
}

// Update derives the next mode from result. A nil result or one without a
// scene leaves the mode unchanged.
func (c *Controller) Update(result *classifier.Result) denoise.Mode {
	mode, _ := c.Apply(result)
	return mode
}

// Apply is Update that also reports whether the scene name differs from the
// previous one.
func (c *Controller) Apply(result *classifier.Result) (denoise.Mode, bool) {
	if result == nil || result.Scene == nil {
		return c.Mode(), false
	}
	name := result.Scene.Scene

	c.mu.Lock()
	folded := c.caser.String(name)
	changed := name != c.lastScene
	c.lastScene = name
	c.mu.Unlock()

	next := ModeFor(folded)
	c.Set(next)
	return next, changed
}

// LastScene returns the scene name seen by the most recent Update.
func (c *Controller) LastScene() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastScene
}

// ModeFor maps an already lower-cased scene name to a mode.
func ModeFor(folded string) denoise.Mode {
	switch {
	case containsAny(folded, MeetingMarkers):
		return denoise.ModeMeeting
	case containsAny(folded, OutdoorMarkers):
		return denoise.ModeOutdoor
	default:
		return denoise.ModeStandard
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
