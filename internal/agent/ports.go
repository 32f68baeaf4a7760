// Package agent orchestrates the request-to-applied-files pipeline: plan
// creation, plan approval, per-file generation and preview, and the final
// gated apply. All user interaction and rendering goes through ports so
// the core never references a concrete UI.
package agent

import "goforge/internal/plan"

// Decision is the user's verdict on one previewed file.
type Decision int

const (
	DecisionAccept Decision = iota
	DecisionReject
	DecisionEdit
)

// UserPrompt gathers decisions from the user. A headless implementation
// may auto-accept everything.
type UserPrompt interface {
	// Confirm asks a yes/no question.
	Confirm(question string) bool
	// Review presents one generated file and returns the decision. For
	// DecisionEdit the returned string is the user-modified content; it
	// is previewed again.
	Review(file, content string) (Decision, string)
}

// Tracker is told about files the planner writes or removes itself, so an
// external file watcher can follow them without flagging the agent's own
// changes as outside edits.
type Tracker interface {
	Track(path string)
}

// Renderer displays pipeline output.
type Renderer interface {
	ShowPlan(p plan.Plan)
	// ShowPreview renders new file content.
	ShowPreview(file, content string)
	// ShowDiff renders a change to an existing file.
	ShowDiff(file, oldContent, newContent string)
	ShowError(message string)
	Info(message string)
}
