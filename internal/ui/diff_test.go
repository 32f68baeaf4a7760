package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderDiffMarksChanges(t *testing.T) {
	styles := NewStyles(false)
	out := renderDiff(styles, "app.py", "print(\"hi\")\n", "print(\"bye\")\n")

	assert.Contains(t, out, "--- app.py")
	assert.Contains(t, out, "+++ app.py")
	assert.Contains(t, out, "-")
	assert.Contains(t, out, "+")
	assert.Contains(t, out, "bye")
}

func TestRenderDiffUnchangedLinesKeepPrefix(t *testing.T) {
	styles := NewStyles(false)
	out := renderDiff(styles, "f", "same\nold\n", "same\nnew\n")

	var plus, minus, ctx bool
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "+ "):
			plus = true
		case strings.HasPrefix(line, "- "):
			minus = true
		case strings.HasPrefix(line, "  same"):
			ctx = true
		}
	}
	assert.True(t, plus)
	assert.True(t, minus)
	assert.True(t, ctx)
}

func TestHighlightFileFallsBackToPlain(t *testing.T) {
	h := NewHighlighter("monokai")
	out := h.HighlightFile("data.unknownext", "just words")
	assert.Contains(t, out, "just words")
}
