package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWrap is the word-wrap width for rendered markdown.
const DefaultWrap = 76

// Markdown renders agent output. With color disabled the "notty" style is
// used so the result is still readable in logs.
func Markdown(content string, color bool, wrap int) (string, error) {
	if wrap <= 0 {
		wrap = DefaultWrap
	}

	style := glamour.WithStandardStyle("notty")
	if color {
		style = glamour.WithAutoStyle()
	}

	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(wrap))
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := r.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}
