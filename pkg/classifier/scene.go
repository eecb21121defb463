package classifier

import "fmt"

// Scene names produced by SceneRules.
const (
	SceneMeeting  = "meeting"
	SceneOutdoor  = "outdoor"
	SceneStandard = "standard"
)

// SceneRules derives a coarse scene from class probabilities using fixed
// thresholds. The meeting rule is evaluated before the outdoor rule and the
// first match wins.
type SceneRules struct {
	SpeechLabels  []string
	IndoorLabels  []string
	WindLabels    []string
	OutdoorLabels []string

	SpeechThreshold  float32
	IndoorThreshold  float32
	WindThreshold    float32
	OutdoorThreshold float32
}

// DefaultSceneRules returns thresholds tuned for the AudioSet label set.
func DefaultSceneRules() SceneRules {
	return SceneRules{
		SpeechLabels: []string{"Speech"},
		IndoorLabels: []string{
			"Inside, small room",
			"Inside, large room or hall",
			"Inside, public space",
		},
		WindLabels: []string{"Wind", "Wind noise (microphone)"},
		OutdoorLabels: []string{
			"Outside, urban or manmade",
			"Outside, rural or natural",
		},
		SpeechThreshold:  0.50,
		IndoorThreshold:  0.04,
		WindThreshold:    0.25,
		OutdoorThreshold: 0.04,
	}
}

// Evaluate applies the rules to probs. Label groups that cannot be resolved
// against labels contribute probability 0.
func (r SceneRules) Evaluate(probs []float32, labels *Labels) *SceneClassification {
	sc := &SceneClassification{Scene: SceneStandard}

	check := func(name string, group []string, threshold float32) bool {
		p, found := maxProb(probs, labels, group)
		if !found {
			sc.Trace = append(sc.Trace, fmt.Sprintf("%s: no matching classes", name))
			return false
		}
		ok := p >= threshold
		sc.Trace = append(sc.Trace, fmt.Sprintf("%s %.3f >= %.2f: %t", name, p, threshold, ok))
		return ok
	}

	// evaluate both operands so the trace is complete
	speech := check("speech", r.SpeechLabels, r.SpeechThreshold)
	indoor := check("indoor", r.IndoorLabels, r.IndoorThreshold)
	if speech && indoor {
		sc.Scene = SceneMeeting
		return sc
	}

	wind := check("wind", r.WindLabels, r.WindThreshold)
	outdoor := check("outdoor", r.OutdoorLabels, r.OutdoorThreshold)
	if wind && outdoor {
		sc.Scene = SceneOutdoor
	}
	return sc
}

func maxProb(probs []float32, labels *Labels, names []string) (float32, bool) {
	var best float32
	found := false
	for _, n := range names {
		idx, ok := labels.Lookup(n)
		if !ok || idx >= len(probs) {
			continue
		}
		if !found || probs[idx] > best {
			best = probs[idx]
		}
		found = true
	}
	return best, found
}
