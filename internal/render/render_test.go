package render

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainStyles(t *testing.T) {
	s := Plain()
	assert.Equal(t, "✓", s.Status(true))
	assert.Equal(t, "✗", s.Status(false))
	assert.Equal(t, "-----", s.Rule(5))
	assert.Equal(t, "", s.Rule(0))
	assert.Equal(t, "ALERT: x", s.Alert("ALERT: x"))
}

func TestNilStylesArePlain(t *testing.T) {
	var s *Styles
	assert.Equal(t, "✓", s.Status(true))
	assert.Equal(t, "---", s.Rule(3))
}

func TestForWriter_NonTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
	assert.Equal(t, "✗", ForWriter(&bytes.Buffer{}).Status(false))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
}

func TestMarkdown_NoColor(t *testing.T) {
	out, err := Markdown("# Heading\n\nSILENT: nothing new", false, 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Heading")
	assert.Contains(t, out, "SILENT: nothing new")
	assert.NotContains(t, out, "\x1b[")
}
