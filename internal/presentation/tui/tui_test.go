package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighlighter_ASCIIProfileIsPlain(t *testing.T) {
	h := Highlighter(termenv.Ascii)
	for _, line := range []string{"» ShowHelp", "display: compact (1/1 steps)", "step 1 (ShowHelp) failed: x", "(ignored)"} {
		assert.Equal(t, line, h(line))
	}
}

func TestHighlighter_ColorsFailures(t *testing.T) {
	h := Highlighter(termenv.TrueColor)
	got := h("error: boom")
	assert.NotEqual(t, "error: boom", got)
	assert.Contains(t, got, "error: boom")
}

func TestPrintBanner_IncludesVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestNewRenderer(t *testing.T) {
	out, err := NewRenderer()("# Voice commands\n\n- **show** vitals")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Voice commands"))
}
