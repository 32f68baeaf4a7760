package parser

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	fencedFileRe = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")

	// Filename mentions near a code fence: "filename: foo.py",
	// "### `foo.py`", "create foo.py", "File: foo.py".
	nearbyFileRe = regexp.MustCompile("(?i)(?:filename|file|create|update|modify)\\s*[:=]?\\s*`?([\\w./-]+\\.[\\w]+)`?")
	fenceInfoRe  = regexp.MustCompile("```[a-zA-Z0-9]*\\s+filename=([\\w./-]+\\.[\\w]+)")
)

// ExtractCodeBlocks pulls every code file out of a generation response,
// keyed by filename. Strategies, in order:
//
//  1. a JSON object with a "files" map (filename -> content)
//  2. plan-shaped JSON whose steps carry file + content
//  3. fenced code blocks, filenames taken from fence info strings or
//     nearby prose, falling back to content heuristics
//  4. the whole response, when it reads as a bare script
//
// An empty map means nothing usable was found.
func ExtractCodeBlocks(text string) map[string]string {
	out := map[string]string{}

	if v, err := decodeLenient(strings.TrimSpace(text)); err == nil {
		if m, ok := v.(map[string]any); ok {
			if files, ok := m["files"].(map[string]any); ok {
				for name, content := range files {
					if s, ok := content.(string); ok && name != "" {
						out[name] = s
					}
				}
				if len(out) > 0 {
					return out
				}
			}
			if steps, ok := m["steps"].([]any); ok {
				for _, raw := range steps {
					sm, ok := raw.(map[string]any)
					if !ok {
						continue
					}
					name, _ := sm["file"].(string)
					content, _ := sm["content"].(string)
					if name != "" && content != "" {
						out[name] = content
					}
				}
				if len(out) > 0 {
					return out
				}
			}
		}
	}

	matches := fencedFileRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range matches {
		content := text[loc[2]:loc[3]]
		if strings.TrimSpace(content) == "" {
			continue
		}
		name := fenceFilename(text, loc[0], i)
		if name == "" {
			name = guessFilename(content, i)
		}
		out[name] = strings.TrimRight(content, "\n") + "\n"
	}
	if len(out) > 0 {
		return out
	}

	if looksLikeScript(text) {
		out["script.py"] = strings.TrimSpace(text) + "\n"
	}
	return out
}

// fenceFilename resolves the filename for the fenced block starting at
// offset start: first the fence info string, then the few lines of prose
// immediately above the fence.
func fenceFilename(text string, start, index int) string {
	line := text[start:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	if m := fenceInfoRe.FindStringSubmatch(line); m != nil {
		return m[1]
	}

	before := text[:start]
	lines := strings.Split(before, "\n")
	from := len(lines) - 4
	if from < 0 {
		from = 0
	}
	for i := len(lines) - 1; i >= from; i-- {
		if m := nearbyFileRe.FindStringSubmatch(lines[i]); m != nil {
			return m[1]
		}
	}
	return ""
}

// guessFilename names an anonymous code block from its content.
func guessFilename(content string, index int) string {
	switch {
	case strings.Contains(content, "import pygame"):
		return fmt.Sprintf("game_%d.py", index+1)
	case strings.Contains(content, "<html") || strings.Contains(content, "<!DOCTYPE"):
		return fmt.Sprintf("index_%d.html", index+1)
	case strings.Contains(content, "def ") && strings.Contains(content, "return"):
		return fmt.Sprintf("script_%d.py", index+1)
	case strings.Contains(content, "package main") || strings.Contains(content, "func "):
		return fmt.Sprintf("main_%d.go", index+1)
	default:
		return fmt.Sprintf("file_%d.txt", index+1)
	}
}

func looksLikeScript(text string) bool {
	return strings.Contains(text, "def ") &&
		(strings.Contains(text, "__main__") || strings.Contains(text, "if __name__"))
}

var leadInRe = regexp.MustCompile(`(?i)^(here'?s?|sure|certainly|below is|this is|the following)`)

// ExtractCode pulls a single file's content out of a generation response:
// the first fenced block if any, otherwise the response with lead-in prose
// stripped. Used when the target filename is already known.
func ExtractCode(text string) string {
	if m := fencedFileRe.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], "\n") + "\n"
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for len(lines) > 0 && leadInRe.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	body := strings.TrimSpace(strings.Join(lines, "\n"))
	if body == "" {
		return ""
	}
	return body + "\n"
}
