package ui

import (
	"goforge/internal/agent"
	"goforge/internal/logging"
	"goforge/internal/plan"
)

// Headless auto-accepts every gate and logs everything it would have
// displayed. Used for non-interactive runs and in automation.
type Headless struct{}

func NewHeadless() *Headless { return &Headless{} }

var _ agent.UserPrompt = (*Headless)(nil)
var _ agent.Renderer = (*Headless)(nil)

func (h *Headless) Confirm(question string) bool {
	logging.Info("auto-accepting gate", "question", question)
	return true
}

func (h *Headless) Review(file, content string) (agent.Decision, string) {
	logging.Info("auto-accepting file", "file", file, "bytes", len(content))
	return agent.DecisionAccept, ""
}

func (h *Headless) ShowPlan(p plan.Plan) {
	logging.Info("plan", "description", p.Description,
		"create", p.Files.Create, "modify", p.Files.Modify, "steps", len(p.Steps))
}

func (h *Headless) ShowPreview(file, content string) {
	logging.Info("preview", "file", file, "bytes", len(content))
}

func (h *Headless) ShowDiff(file, oldContent, newContent string) {
	logging.Info("diff", "file", file, "old_bytes", len(oldContent), "new_bytes", len(newContent))
}

func (h *Headless) ShowError(message string) {
	logging.Error("pipeline error", "message", message)
}

func (h *Headless) Info(message string) {
	logging.Info(message)
}
