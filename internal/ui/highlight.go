package ui

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter applies terminal syntax highlighting to previewed files.
type Highlighter struct {
	style     string
	formatter chroma.Formatter
}

func NewHighlighter(style string) *Highlighter {
	if style == "" {
		style = "monokai"
	}
	return &Highlighter{
		style:     style,
		formatter: formatters.Get("terminal256"),
	}
}

// HighlightFile highlights code, picking the lexer from the filename.
// On any failure the code is returned unhighlighted.
func (h *Highlighter) HighlightFile(filename, code string) string {
	lexer := lexers.Match(filepath.Base(filename))
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(h.style)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}
