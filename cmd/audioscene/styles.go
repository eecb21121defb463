package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"

	"github.com/realtime-ai/audioscene/pkg/classifier"
)

var (
	accentColor = lipgloss.Color("#00AAAA")
	warnColor   = lipgloss.Color("#FFA500")
	errorColor  = lipgloss.Color("#A40000")
	mutedColor  = lipgloss.Color("#888888")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	sceneStyle   = lipgloss.NewStyle().Bold(true).Foreground(warnColor)
	statusStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	labelStyle   = lipgloss.NewStyle().Foreground(accentColor)
	keyStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(warnColor).MarginTop(1)
	flagStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00AA00"))
	defaultStyle = lipgloss.NewStyle().Italic(true).Foreground(mutedColor)
)

func printResult(w io.Writer, r *classifier.Result) {
	if scene := r.SceneName(); scene != "" {
		fmt.Fprintln(w, keyStyle.Render("scene:"), sceneStyle.Render(scene))
	}
	if len(r.Predictions) == 0 {
		fmt.Fprintln(w, statusStyle.Render("no predictions"))
		return
	}
	for i, p := range r.Predictions {
		fmt.Fprintf(w, "%d. %s %s\n", i+1, labelStyle.Render(p.Label), keyStyle.Render(fmt.Sprintf("(%.2f)", p.Confidence)))
	}
}

func printKV(w io.Writer, key string, value interface{}) {
	fmt.Fprintf(w, "%s %v\n", keyStyle.Render(key+":"), value)
}

// styledHelp renders kong help with the palette above.
func styledHelp(options kong.HelpOptions, ctx *kong.Context) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("audioscene"))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(ctx.Model.Help))
	sb.WriteString("\n")

	node := ctx.Selected()
	if node == nil {
		node = ctx.Model.Node
	}

	sb.WriteString(sectionStyle.Render("Usage:"))
	sb.WriteString("\n  ")
	sb.WriteString(node.Summary())
	sb.WriteString("\n")

	if cmds := node.Leaves(true); len(cmds) > 0 && node == ctx.Model.Node {
		sb.WriteString(sectionStyle.Render("Commands:"))
		sb.WriteString("\n")
		for _, c := range cmds {
			sb.WriteString("  ")
			sb.WriteString(flagStyle.Render(c.Path()))
			sb.WriteString("  ")
			sb.WriteString(c.Help)
			sb.WriteString("\n")
		}
	}

	if len(node.Positional) > 0 {
		sb.WriteString(sectionStyle.Render("Arguments:"))
		sb.WriteString("\n")
		for _, arg := range node.Positional {
			sb.WriteString("  ")
			sb.WriteString(labelStyle.Render(arg.Summary()))
			sb.WriteString("  ")
			sb.WriteString(arg.Help)
			sb.WriteString("\n")
		}
	}

	sb.WriteString(sectionStyle.Render("Flags:"))
	sb.WriteString("\n")
	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
			}
			if !f.IsBool() && f.PlaceHolder != "" {
				name += "=" + strings.ToUpper(f.PlaceHolder)
			}
			sb.WriteString("  ")
			sb.WriteString(flagStyle.Render(name))
			if f.Help != "" {
				sb.WriteString("  ")
				sb.WriteString(f.Help)
			}
			if f.HasDefault && f.Default != "" {
				sb.WriteString(" ")
				sb.WriteString(defaultStyle.Render("(default: " + f.Default + ")"))
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n")
	fmt.Fprint(ctx.Stdout, sb.String())
	return nil
}
