// Package plan defines the structured implementation plan produced from a
// natural-language request and the repair function that restores its
// structural invariants regardless of how malformed the model output was.
package plan

import (
	"fmt"
	"strings"
)

// Step actions.
const (
	ActionCreate = "create"
	ActionModify = "modify"
	ActionDelete = "delete"
)

// Step is one file-level unit of work within a Plan. Steps are consumed
// once by the generation loop and are not persisted beyond the run.
type Step struct {
	Description string `json:"description"`
	Action      string `json:"action"`
	File        string `json:"file"`
	Content     string `json:"content,omitempty"`
	Overview    string `json:"overview,omitempty"`
}

// FileSet lists the files a plan will create or modify.
type FileSet struct {
	Create []string `json:"create"`
	Modify []string `json:"modify"`
}

// Plan is a structured implementation plan. A Plan is created per request
// and discarded after apply; only its effects are recorded in memory.
type Plan struct {
	Description  string   `json:"description"`
	Files        FileSet  `json:"files"`
	Steps        []Step   `json:"steps"`
	Dependencies []string `json:"dependencies,omitempty"`
}

// Empty returns a well-formed plan with the given description and no
// steps or files. Callers that fail to parse model output return this
// rather than an error.
func Empty(description string) Plan {
	return Plan{
		Description: description,
		Files:       FileSet{Create: []string{}, Modify: []string{}},
		Steps:       []Step{},
	}
}

// IsEmpty reports whether the plan has no steps and no listed files.
func (p Plan) IsEmpty() bool {
	return len(p.Steps) == 0 && len(p.Files.Create) == 0 && len(p.Files.Modify) == 0
}

// Summary renders the plan as markdown for display.
func (p Plan) Summary() string {
	var b strings.Builder
	if p.Description != "" {
		b.WriteString(p.Description)
		b.WriteString("\n\n")
	}
	if len(p.Files.Create) > 0 || len(p.Files.Modify) > 0 {
		b.WriteString("Files:\n")
		for _, f := range p.Files.Create {
			fmt.Fprintf(&b, "+ %s\n", f)
		}
		for _, f := range p.Files.Modify {
			fmt.Fprintf(&b, "* %s\n", f)
		}
		b.WriteString("\n")
	}
	if len(p.Steps) > 0 {
		b.WriteString("Steps:\n")
		for i, s := range p.Steps {
			desc := s.Description
			if desc == "" {
				desc = fmt.Sprintf("Step %d", i+1)
			}
			if s.File != "" {
				fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, desc, s.File)
			} else {
				fmt.Fprintf(&b, "%d. %s\n", i+1, desc)
			}
		}
	}
	if len(p.Dependencies) > 0 {
		fmt.Fprintf(&b, "\nDependencies: %s\n", strings.Join(p.Dependencies, ", "))
	}
	return b.String()
}

// FromAny coerces a generically-decoded JSON value into a Plan, tolerating
// missing keys and wrong types. The result is not sanitized; callers pass
// it through Sanitize.
func FromAny(v any) Plan {
	p := Plan{}
	m, ok := v.(map[string]any)
	if !ok {
		return p
	}

	p.Description, _ = m["description"].(string)
	p.Dependencies = stringSlice(m["dependencies"])

	if files, ok := m["files"].(map[string]any); ok {
		p.Files.Create = stringSlice(files["create"])
		p.Files.Modify = stringSlice(files["modify"])
	}

	if steps, ok := m["steps"].([]any); ok {
		for _, raw := range steps {
			sm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			step := Step{}
			step.Description, _ = sm["description"].(string)
			step.Action, _ = sm["action"].(string)
			step.File, _ = sm["file"].(string)
			if step.File == "" {
				// Some models emit "path" instead of "file".
				step.File, _ = sm["path"].(string)
			}
			step.Content, _ = sm["content"].(string)
			step.Overview, _ = sm["overview"].(string)
			p.Steps = append(p.Steps, step)
		}
	}

	return p
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
