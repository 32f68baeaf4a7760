package agent

import (
	"fmt"
	"path/filepath"
	"strings"

	"goforge/internal/plan"
)

var languageByExt = map[string]string{
	".py":   "Python",
	".go":   "Go",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".jsx":  "JavaScript (React)",
	".tsx":  "TypeScript (React)",
	".html": "HTML",
	".css":  "CSS",
	".sh":   "Bash",
	".rs":   "Rust",
	".java": "Java",
	".rb":   "Ruby",
	".sql":  "SQL",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
	".md":   "Markdown",
}

func languageHint(file string) string {
	if lang, ok := languageByExt[strings.ToLower(filepath.Ext(file))]; ok {
		return lang
	}
	return ""
}

// planPrompt asks for a structured plan. The schema in the prompt matches
// what the parser cascade expects; models that deviate are absorbed by the
// parser and sanitizer.
func planPrompt(request, projectContext string) string {
	var b strings.Builder
	b.WriteString("You are a coding assistant. Produce an implementation plan for the request below.\n\n")
	b.WriteString("Respond with a single JSON object, no prose, in this exact shape:\n")
	b.WriteString(`{
  "description": "one-sentence summary",
  "files": {"create": ["new files"], "modify": ["existing files"]},
  "steps": [{"description": "what to do", "action": "create|modify|delete", "file": "path"}],
  "dependencies": ["packages to install, if any"]
}`)
	b.WriteString("\n\nRequest: ")
	b.WriteString(request)
	if projectContext != "" {
		b.WriteString("\n\nProject context:\n")
		b.WriteString(projectContext)
	}
	return b.String()
}

// filePrompt asks for the complete content of one planned file.
func filePrompt(p plan.Plan, step plan.Step, existing, relatedContext string) string {
	var b strings.Builder

	verb := "Write"
	if step.Action == plan.ActionModify {
		verb = "Update"
	}
	fmt.Fprintf(&b, "%s the file %s.\n", verb, step.File)
	if lang := languageHint(step.File); lang != "" {
		fmt.Fprintf(&b, "Language: %s.\n", lang)
	}
	fmt.Fprintf(&b, "Task: %s\n", step.Description)
	if p.Description != "" {
		fmt.Fprintf(&b, "Overall goal: %s\n", p.Description)
	}
	if len(p.Files.Create) > 0 || len(p.Files.Modify) > 0 {
		fmt.Fprintf(&b, "Other files in this change: %s\n",
			strings.Join(append(append([]string{}, p.Files.Create...), p.Files.Modify...), ", "))
	}
	if existing != "" {
		fmt.Fprintf(&b, "\nCurrent content of %s:\n```\n%s\n```\n", step.File, existing)
	}
	if relatedContext != "" {
		b.WriteString("\nRelated context:\n")
		b.WriteString(relatedContext)
		b.WriteString("\n")
	}
	b.WriteString("\nReturn only the complete file content in a single fenced code block. No explanation.")
	return b.String()
}

// suggestions proposes follow-up commands based on what was applied.
func suggestions(applied []string) []string {
	var out []string
	for _, file := range applied {
		base := filepath.Base(file)
		switch {
		case base == "package.json":
			out = append(out, "npm install")
		case base == "requirements.txt":
			out = append(out, "pip install -r "+file)
		case base == "go.mod":
			out = append(out, "go mod tidy")
		case base == "main.py":
			out = append(out, "python "+file)
		case base == "main.go":
			out = append(out, "go run "+file)
		}
	}
	return out
}
