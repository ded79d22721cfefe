package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Theme holds the color scheme for formatted output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
	Label   lipgloss.Color

	// plain disables styling, for pipes and files.
	plain bool
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
	Label:   lipgloss.Color("#D7AF5F"), // amber
}

// newTheme returns the default theme, unstyled unless w is a terminal.
func newTheme(w io.Writer) Theme {
	t := defaultTheme
	t.plain = !isTerminal(w)
	return t
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (t Theme) render(s lipgloss.Style, text string) string {
	if t.plain {
		return text
	}
	return s.Render(text)
}

func (t Theme) status(text string) string {
	return t.render(lipgloss.NewStyle().Foreground(t.Status).Bold(true), text)
}

func (t Theme) success(text string) string {
	return t.render(lipgloss.NewStyle().Foreground(t.Success).Bold(true), text)
}

func (t Theme) failure(text string) string {
	return t.render(lipgloss.NewStyle().Foreground(t.Error).Bold(true), text)
}

func (t Theme) hint(text string) string {
	return t.render(lipgloss.NewStyle().Foreground(t.Hint).Italic(true), text)
}

func (t Theme) label(text string) string {
	return t.render(lipgloss.NewStyle().Foreground(t.Label), text)
}

// wantJSON reports whether output to w should be JSON: when asked for, or
// when w is not a terminal.
func wantJSON(w io.Writer) bool {
	return jsonOutput || !isTerminal(w)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
