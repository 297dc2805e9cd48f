// Package report renders analysis and diff results to the terminal, to
// markdown, to JSON, and to self-contained HTML files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Mode selects the output format. ModeAuto picks text on a terminal and
// markdown when output is piped.
type Mode string

const (
	ModeAuto     Mode = ""
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Styles groups the lipgloss styles used by text rendering.
type Styles struct {
	Header1  lipgloss.Style
	Header2  lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Critical lipgloss.Style
	Info     lipgloss.Style
}

func newStyles() *Styles {
	return &Styles{
		Header1:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:     lipgloss.NewStyle().Bold(true),
		Muted:    lipgloss.NewStyle().Faint(true),
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Critical: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Info:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	}
}

// Severity returns the style for a severity or risk level label.
func (s *Styles) Severity(level string) lipgloss.Style {
	switch level {
	case "CRITICAL":
		return s.Critical
	case "HIGH":
		return s.Error
	case "MEDIUM":
		return s.Warning
	case "LOW":
		return s.Info
	default:
		return s.Muted
	}
}

// Renderer writes formatted output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer over the given writers. Mode strings are
// normalized; "md" is accepted as an alias for markdown.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "md" {
		mode = ModeMarkdown
	}
	return &Renderer{out: out, errOut: errOut, mode: mode, styles: newStyles()}
}

// EffectiveMode resolves ModeAuto against the output destination: text for
// a terminal, markdown when piped.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the style set for text rendering.
func (r *Renderer) Styles() *Styles { return r.styles }

// Out returns the underlying output writer, for table renderers that
// mirror their own output.
func (r *Renderer) Out() io.Writer { return r.out }

// Println writes a line to the output stream.
func (r *Renderer) Println(args ...any) {
	_, _ = fmt.Fprintln(r.out, args...)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// Errorf writes formatted text to the error stream.
func (r *Renderer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.errOut, format, args...)
}

// JSON writes v as indented JSON to the output stream.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
