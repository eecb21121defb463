package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/realtime-ai/audioscene/pkg/classifier"
	"github.com/realtime-ai/audioscene/pkg/config"
	"github.com/realtime-ai/audioscene/pkg/device"
	"github.com/realtime-ai/audioscene/pkg/history"
	"github.com/realtime-ai/audioscene/pkg/playback"
)

// OnceCmd records exactly one window and classifies it.
type OnceCmd struct {
	Export    bool   `help:"Save the recorded window as raw WAV."`
	ExportDir string `help:"Directory for exported WAV files." placeholder:"DIR"`
}

func (c *OnceCmd) Run(cfg *config.Config) error {
	if c.ExportDir != "" {
		cfg.ExportDir = c.ExportDir
	}
	src, err := device.NewMalgoSource(cfg.SampleRate)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(cfg, src, nil)
	if err != nil {
		return err
	}
	defer analyzer.Release()

	fmt.Fprintln(os.Stdout, statusStyle.Render(fmt.Sprintf("· recording %ds", cfg.WindowSeconds)))
	start := time.Now()
	result, err := analyzer.CaptureAndClassify(context.Background())
	if err != nil {
		return err
	}
	printResult(os.Stdout, result)
	printKV(os.Stdout, "elapsed", time.Since(start).Round(time.Millisecond))

	if c.Export {
		svc := playback.NewService(playback.Config{
			Dir:        cfg.ExportDir,
			SampleRate: analyzer.SampleRate(),
			Uploader:   newUploader(cfg),
		})
		path, err := svc.PlayRawAndExport(context.Background(), analyzer)
		if err != nil {
			return err
		}
		printKV(os.Stdout, "raw", path)
	}
	return nil
}

// LabelsCmd prints the label table size and how the scene rules resolve
// against it.
type LabelsCmd struct {
	All bool `help:"List every label."`
}

func (c *LabelsCmd) Run(cfg *config.Config) error {
	labels, err := classifier.LoadLabels(cfg.LabelPaths...)
	if err != nil {
		return err
	}
	printKV(os.Stdout, "labels", labels.Len())

	rules := classifier.DefaultSceneRules()
	groups := []struct {
		name  string
		names []string
	}{
		{"speech", rules.SpeechLabels},
		{"indoor", rules.IndoorLabels},
		{"wind", rules.WindLabels},
		{"outdoor", rules.OutdoorLabels},
	}
	for _, g := range groups {
		var resolved []string
		for _, n := range g.names {
			if idx, ok := labels.Lookup(n); ok {
				resolved = append(resolved, fmt.Sprintf("%s=#%d", n, idx))
			} else {
				resolved = append(resolved, errorStyle.Render(n+"=missing"))
			}
		}
		printKV(os.Stdout, g.name, strings.Join(resolved, ", "))
	}

	if c.All {
		for _, l := range labels.Entries() {
			fmt.Fprintf(os.Stdout, "%4d %s\n", l.Index, labelStyle.Render(l.Display))
		}
	}
	return nil
}

// HistoryCmd prints stored results.
type HistoryCmd struct {
	Dir     string `help:"Badger directory written by listen --history-dir." placeholder:"DIR"`
	Session string `help:"Only this session; empty lists all." placeholder:"ID"`
	Limit   int    `help:"Show only the most recent entries." default:"20"`
}

func (c *HistoryCmd) Run(cfg *config.Config) error {
	dir := c.Dir
	if dir == "" {
		dir = cfg.HistoryDir
	}
	if dir == "" {
		return errors.New("no history directory: set --dir or AUDIOSCENE_HISTORY_DIR")
	}

	store, err := history.Open(history.Options{Dir: dir})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	entries, err := store.List(ctx, c.Session, c.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, statusStyle.Render("no entries"))
		return nil
	}
	for _, e := range entries {
		top := "-"
		if len(e.Predictions) > 0 {
			top = fmt.Sprintf("%s (%.2f)", e.Predictions[0].Label, e.Predictions[0].Confidence)
		}
		fmt.Fprintf(os.Stdout, "%s %s %s %s %s\n",
			keyStyle.Render(e.Time().Format(time.DateTime)),
			keyStyle.Render(shortID(e.SessionID)),
			sceneStyle.Render(e.Scene),
			labelStyle.Render(top),
			keyStyle.Render(fmt.Sprintf("%dms", e.InferenceMs)),
		)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
