// Package render formats task output for the terminal. Styling is only
// applied when the destination is a TTY so piped output and CI logs stay
// plain text that can be grepped for the sentinel line.
package render

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
)

// Color palette
var (
	colorSuccess = lipgloss.Color("#10B981")
	colorError   = lipgloss.Color("#EF4444")
	colorWarning = lipgloss.Color("#F59E0B")
	colorDim     = lipgloss.Color("#4B5563")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	alertStyle   = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	ruleStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// Styles decorates status symbols and separators. The zero value is plain.
type Styles struct {
	color bool
}

// Plain returns styles that never emit escape sequences.
func Plain() *Styles {
	return &Styles{}
}

// ForWriter enables color when w is a terminal.
func ForWriter(w io.Writer) *Styles {
	return &Styles{color: IsTerminal(w)}
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Status returns ✓ when ok and ✗ otherwise.
func (s *Styles) Status(ok bool) string {
	if ok {
		return s.apply(successStyle, iconSuccess)
	}
	return s.apply(errorStyle, iconError)
}

// Rule returns a horizontal separator of width dashes.
func (s *Styles) Rule(width int) string {
	if width <= 0 {
		return ""
	}
	return s.apply(ruleStyle, strings.Repeat("-", width))
}

// Alert highlights an ALERT line.
func (s *Styles) Alert(line string) string {
	return s.apply(alertStyle, line)
}

func (s *Styles) apply(style lipgloss.Style, text string) string {
	if s == nil || !s.color {
		return text
	}
	return style.Render(text)
}
