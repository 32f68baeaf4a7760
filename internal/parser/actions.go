package parser

import (
	"strings"

	"goforge/internal/logging"
)

// ParseActions extracts a list of executable actions from model output.
// Accepted shapes, in order:
//
//  1. a JSON object with an "actions" array, or a bare JSON array
//  2. the same inside a fenced code block
//  3. a brace-matched JSON fragment embedded in prose
//  4. create_file actions inferred from loose code blocks
//
// Each action is a generic map; the executor validates the "type" key.
// An empty slice means the response carried no actionable content.
func ParseActions(text string) []map[string]any {
	trimmed := strings.TrimSpace(text)

	if actions := decodeActions(trimmed); actions != nil {
		return actions
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		if actions := decodeActions(strings.TrimSpace(m[1])); actions != nil {
			return actions
		}
	}

	if fragment := matchedJSONFragment(text); fragment != "" {
		if actions := decodeActions(fragment); actions != nil {
			return actions
		}
	}

	blocks := ExtractCodeBlocks(text)
	if len(blocks) == 0 {
		return []map[string]any{}
	}
	logging.Debug("no action JSON found, inferring create_file actions", "files", len(blocks))
	actions := make([]map[string]any, 0, len(blocks))
	for name, content := range blocks {
		actions = append(actions, map[string]any{
			"type":     "create_file",
			"filename": name,
			"content":  content,
		})
	}
	return actions
}

func decodeActions(text string) []map[string]any {
	if text == "" {
		return nil
	}
	v, err := decodeLenient(text)
	if err != nil {
		return nil
	}

	var items []any
	switch t := v.(type) {
	case map[string]any:
		list, ok := t["actions"].([]any)
		if !ok {
			// A single bare action object.
			if _, hasType := t["type"]; hasType {
				return []map[string]any{t}
			}
			return nil
		}
		items = list
	case []any:
		items = t
	default:
		return nil
	}

	var actions []map[string]any
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			actions = append(actions, m)
		}
	}
	if actions == nil {
		return nil
	}
	return actions
}

// matchedJSONFragment returns the first brace- or bracket-matched span in
// the text, tracking nesting and ignoring braces inside string literals.
func matchedJSONFragment(text string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			open = text[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
