// Package parser turns free-form model output into structured values. Every
// entry point is a cascade of strategies ordered most-structured first, and
// every entry point is total: on unparseable input it returns a well-formed
// empty value rather than an error.
package parser

import (
	"regexp"
	"strings"

	"goforge/internal/logging"
	"goforge/internal/plan"
)

// FailedPlanDescription marks a plan produced from output none of the
// parsing strategies could handle. The plan is otherwise empty.
const FailedPlanDescription = "Failed to parse plan"

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

	planDescRe   = regexp.MustCompile(`(?i)(?:plan|description|overview)\s*[:=]\s*"?([^"\n]+)`)
	createListRe = regexp.MustCompile(`(?s)"create"\s*:\s*\[(.*?)\]`)
	modifyListRe = regexp.MustCompile(`(?s)"modify"\s*:\s*\[(.*?)\]`)
	listItemRe   = regexp.MustCompile(`"([^"]+)"`)
	stepFileRe   = regexp.MustCompile(`"file"\s*:\s*"([^"]+)"`)
	stepDescRe   = regexp.MustCompile(`"description"\s*:\s*"([^"]*)"`)
	stepActionRe = regexp.MustCompile(`"action"\s*:\s*"([^"]*)"`)
)

// ExtractPlan parses model output into a sanitized Plan. Strategies are
// tried in order:
//
//  1. the whole response as JSON (triple-quoted strings tolerated)
//  2. the first fenced code block as JSON
//  3. regex extraction of description, file lists, and per-step fields
//  4. an empty plan carrying FailedPlanDescription
//
// The result is always sanitized and never nil-structured.
func ExtractPlan(text string) plan.Plan {
	trimmed := strings.TrimSpace(text)

	if v, err := decodeLenient(trimmed); err == nil {
		if _, ok := v.(map[string]any); ok {
			return plan.Sanitize(plan.FromAny(v))
		}
	}

	if cleaned := cleanJSONResponse(trimmed); cleaned != trimmed {
		if v, err := decodeLenient(cleaned); err == nil {
			if _, ok := v.(map[string]any); ok {
				return plan.Sanitize(plan.FromAny(v))
			}
		}
	}

	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		inner := strings.TrimSpace(m[1])
		if v, err := decodeLenient(inner); err == nil {
			if _, ok := v.(map[string]any); ok {
				return plan.Sanitize(plan.FromAny(v))
			}
		}
	}

	if p, ok := extractPlanFields(text); ok {
		logging.Warn("plan recovered via field extraction")
		return plan.Sanitize(p)
	}

	logging.Warn("unparseable plan response", "length", len(text))
	return plan.Empty(FailedPlanDescription)
}

// extractPlanFields scavenges plan fields from structurally broken output
// (unbalanced braces, prose around fragments). It succeeds when it finds at
// least one step or one listed file.
func extractPlanFields(text string) (plan.Plan, bool) {
	p := plan.Plan{}

	if m := planDescRe.FindStringSubmatch(text); m != nil {
		p.Description = strings.TrimSpace(m[1])
	}
	if m := createListRe.FindStringSubmatch(text); m != nil {
		for _, item := range listItemRe.FindAllStringSubmatch(m[1], -1) {
			p.Files.Create = append(p.Files.Create, item[1])
		}
	}
	if m := modifyListRe.FindStringSubmatch(text); m != nil {
		for _, item := range listItemRe.FindAllStringSubmatch(m[1], -1) {
			p.Files.Modify = append(p.Files.Modify, item[1])
		}
	}

	// Scavenge steps one "file" key at a time. Each step's remaining
	// fields are searched between the previous file key and the next, so
	// broken or unbalanced braces do not matter.
	locs := stepFileRe.FindAllStringSubmatchIndex(text, -1)
	for i, loc := range locs {
		winStart := 0
		if i > 0 {
			winStart = locs[i-1][1]
		}
		winEnd := len(text)
		if i+1 < len(locs) {
			winEnd = locs[i+1][0]
		}
		window := text[winStart:winEnd]

		step := plan.Step{File: text[loc[2]:loc[3]]}
		if m := stepDescRe.FindStringSubmatch(window); m != nil {
			step.Description = m[1]
		}
		if m := stepActionRe.FindStringSubmatch(window); m != nil {
			step.Action = m[1]
		}
		// Triple-quoted content is taken verbatim; it is the only form
		// that survives the kind of breakage that lands us here.
		if m := tripleQuoteRe.FindStringSubmatch(window); m != nil {
			step.Content = m[1]
		}
		p.Steps = append(p.Steps, step)
	}

	if len(p.Steps) == 0 && len(p.Files.Create) == 0 && len(p.Files.Modify) == 0 {
		return plan.Plan{}, false
	}
	if p.Description == "" {
		p.Description = "Recovered plan"
	}
	return p, true
}

// cleanJSONResponse strips markdown fences and leading/trailing prose,
// leaving the outermost JSON object. Returns the input unchanged when no
// object boundaries are found.
func cleanJSONResponse(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return text
	}
	return s[start : end+1]
}
