package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/ericksa/contractreview/internal/knowledge"
)

const wordWrap = 100

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	severityStyles = map[knowledge.Severity]lipgloss.Style{
		knowledge.SeverityHigh:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		knowledge.SeverityMedium: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		knowledge.SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
)

func severity(s knowledge.Severity) string {
	return severityStyles[s].Render(strings.ToUpper(string(s)))
}

// result is one command's output in every form it can take.
type result struct {
	value    any
	console  func(w io.Writer) error
	markdown func() ([]byte, error)
}

// emit writes res according to --output.
func (a *app) emit(w io.Writer, res result) error {
	switch out := a.output; {
	case out == "" || out == "console":
		return res.console(w)

	case out == "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res.value)

	case strings.HasSuffix(out, ".json"):
		data, err := json.MarshalIndent(res.value, "", "  ")
		if err != nil {
			return err
		}
		return a.writeFile(w, out, append(data, '\n'))

	case strings.HasSuffix(out, ".md") || strings.HasSuffix(out, ".txt"):
		if res.markdown == nil {
			return fmt.Errorf("markdown output is not available for this command")
		}
		data, err := res.markdown()
		if err != nil {
			return err
		}
		return a.writeFile(w, out, data)

	default:
		return fmt.Errorf("unknown output %q: use console, json, or a .json/.md path", out)
	}
}

func (a *app) writeFile(w io.Writer, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Report written to: %s\n", path)
	return nil
}

// renderMarkdown formats md for the terminal.
func (a *app) renderMarkdown(w io.Writer, md []byte) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(a.style),
		glamour.WithWordWrap(wordWrap),
	)
	if err != nil {
		a.logger.Error("Failed to create glamour renderer", "error", err)
		_, werr := w.Write(md)
		return werr
	}
	out, err := r.RenderBytes(md)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = w.Write(out)
	return err
}
