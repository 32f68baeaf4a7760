package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models frequently emit Python-style triple-quoted strings inside JSON
// ("content": """def main(): ...""") which no JSON decoder accepts. We
// recover by swapping every triple-quoted span for a unique quoted
// placeholder, decoding, then walking the result and substituting the
// original span text back in verbatim. Newlines and quotes inside the
// span survive untouched because they never pass through the decoder.

var tripleQuoteRe = regexp.MustCompile(`(?s)"""(.*?)"""`)

const placeholderFormat = "__TRIPLE_QUOTE_CONTENT_%d_PLACEHOLDER__"

// decodeLenient decodes JSON text, tolerating triple-quoted string values.
// Plain valid JSON is decoded directly.
func decodeLenient(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}

	spans := tripleQuoteRe.FindAllStringSubmatch(text, -1)
	if len(spans) == 0 {
		return nil, fmt.Errorf("invalid JSON and no triple-quoted spans to recover")
	}

	originals := make(map[string]string, len(spans))
	i := 0
	replaced := tripleQuoteRe.ReplaceAllStringFunc(text, func(match string) string {
		inner := match[3 : len(match)-3]
		token := fmt.Sprintf(placeholderFormat, i)
		originals[token] = inner
		i++
		return `"` + token + `"`
	})

	if err := json.Unmarshal([]byte(replaced), &v); err != nil {
		return nil, fmt.Errorf("triple-quote recovery failed: %w", err)
	}
	return restorePlaceholders(v, originals), nil
}

// restorePlaceholders walks a decoded JSON structure and substitutes the
// original triple-quoted content for placeholder tokens, including tokens
// embedded inside longer strings.
func restorePlaceholders(v any, originals map[string]string) any {
	switch t := v.(type) {
	case string:
		if original, ok := originals[t]; ok {
			return original
		}
		if strings.Contains(t, "__TRIPLE_QUOTE_CONTENT_") {
			for token, original := range originals {
				t = strings.ReplaceAll(t, token, original)
			}
		}
		return t
	case map[string]any:
		for k, val := range t {
			t[k] = restorePlaceholders(val, originals)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = restorePlaceholders(val, originals)
		}
		return t
	default:
		return v
	}
}
