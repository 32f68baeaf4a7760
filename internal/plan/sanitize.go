package plan

import (
	"regexp"
	"strings"

	"goforge/internal/logging"
)

// PlaceholderFile is assigned to steps whose file cannot be inferred.
const PlaceholderFile = "code.py"

var quotedFileRe = regexp.MustCompile("['\"`]([\\w./-]+\\.[\\w]+)['\"`]")

// Sanitize repairs a plan so that its structural invariants hold:
//
//   - Files.Create and Files.Modify are non-nil
//   - every step has a description, a file, and an action
//   - every step's (file, action) pair appears in the matching files list
//     (delete counts as modify: it operates on an existing file)
//   - every listed file has at least one corresponding step
//
// The action is inferred with one fixed precedence: explicit field,
// create-list membership, modify-list membership, description keyword,
// extension heuristic. Sanitize is total and idempotent; it never drops a
// step, it only adds missing structure.
func Sanitize(p Plan) Plan {
	if p.Files.Create == nil {
		p.Files.Create = []string{}
	}
	if p.Files.Modify == nil {
		p.Files.Modify = []string{}
	}
	if p.Steps == nil {
		p.Steps = []Step{}
	}

	inCreate := memberSet(p.Files.Create)
	inModify := memberSet(p.Files.Modify)

	repaired := 0
	for i := range p.Steps {
		step := &p.Steps[i]

		if step.Description == "" {
			step.Description = "Implementation step"
			repaired++
		}
		if step.File == "" {
			if m := quotedFileRe.FindStringSubmatch(step.Description); m != nil {
				step.File = m[1]
			} else {
				step.File = PlaceholderFile
			}
			repaired++
		}
		if !validAction(step.Action) {
			step.Action = inferAction(step, inCreate, inModify)
			repaired++
		}
	}

	// Reflect every step's (file, action) pair into the files lists.
	for _, step := range p.Steps {
		switch step.Action {
		case ActionCreate:
			if !inCreate[step.File] {
				p.Files.Create = append(p.Files.Create, step.File)
				inCreate[step.File] = true
			}
		case ActionModify, ActionDelete:
			if !inModify[step.File] {
				p.Files.Modify = append(p.Files.Modify, step.File)
				inModify[step.File] = true
			}
		}
	}

	// Give every listed file without a step a synthetic one so the
	// generation loop visits it.
	stepped := make(map[string]bool, len(p.Steps))
	for _, step := range p.Steps {
		stepped[step.File] = true
	}
	for _, f := range p.Files.Create {
		if !stepped[f] {
			p.Steps = append(p.Steps, Step{Description: "Implement " + f, Action: ActionCreate, File: f})
			stepped[f] = true
			repaired++
		}
	}
	for _, f := range p.Files.Modify {
		if !stepped[f] {
			p.Steps = append(p.Steps, Step{Description: "Update " + f, Action: ActionModify, File: f})
			stepped[f] = true
			repaired++
		}
	}

	if repaired > 0 {
		logging.Warn("plan required structural repair", "fixes", repaired)
	}
	return p
}

func validAction(a string) bool {
	switch a {
	case ActionCreate, ActionModify, ActionDelete:
		return true
	}
	return false
}

// inferAction resolves a missing step action. Precedence is fixed:
// create-list membership, modify-list membership, description keyword,
// extension heuristic, then modify.
func inferAction(step *Step, inCreate, inModify map[string]bool) string {
	if inCreate[step.File] {
		return ActionCreate
	}
	if inModify[step.File] {
		return ActionModify
	}
	desc := strings.ToLower(step.Description)
	switch {
	case strings.Contains(desc, "delet") || strings.Contains(desc, "remove "):
		return ActionDelete
	case strings.HasPrefix(desc, "creat") || strings.Contains(desc, " create "):
		return ActionCreate
	case !strings.Contains(step.File, "."):
		return ActionCreate
	default:
		return ActionModify
	}
}

func memberSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
