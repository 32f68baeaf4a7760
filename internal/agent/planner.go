package agent

import (
	"context"
	"fmt"
	"strings"

	"goforge/internal/action"
	"goforge/internal/explore"
	"goforge/internal/logging"
	"goforge/internal/memory"
	"goforge/internal/parser"
	"goforge/internal/plan"
)

// Planner states. The pipeline moves strictly forward; REJECTED, DONE and
// FAILED are terminal.
type State string

const (
	StateCreatingPlan   State = "CREATING_PLAN"
	StateAwaitingPlan   State = "AWAITING_PLAN_APPROVAL"
	StateRejected       State = "REJECTED"
	StateGenerating     State = "GENERATING_STEPS"
	StatePerFilePreview State = "PER_FILE_PREVIEW"
	StateApplying       State = "APPLYING"
	StateDone           State = "DONE"
	StateFailed         State = "FAILED"
)

// Querier is the completion dependency of the planner.
type Querier interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Outcome is the terminal result of one planner run.
type Outcome struct {
	State       State
	Plan        plan.Plan
	Applied     []string // files written or deleted, in apply order
	Skipped     []string // files the user rejected in preview
	Suggestions []string // follow-up commands worth running
	Err         error    // set when State is FAILED
}

// Planner drives one request through plan, approval, generation, preview,
// and apply. Construct with NewPlanner; all dependencies are explicit.
type Planner struct {
	router   Querier
	fs       action.FileSystem
	prompt   UserPrompt
	renderer Renderer
	store    *memory.Store
	ledger   *memory.Ledger
	explorer *explore.Explorer
	tracker  Tracker
}

// SetTracker registers an optional watcher to be notified of the
// planner's own file operations.
func (p *Planner) SetTracker(t Tracker) { p.tracker = t }

func NewPlanner(router Querier, fs action.FileSystem, prompt UserPrompt, renderer Renderer,
	store *memory.Store, ledger *memory.Ledger, explorer *explore.Explorer) *Planner {
	return &Planner{
		router:   router,
		fs:       fs,
		prompt:   prompt,
		renderer: renderer,
		store:    store,
		ledger:   ledger,
		explorer: explorer,
	}
}

// generated is one previewed file pending apply.
type generated struct {
	step    plan.Step
	content string
}

// Run executes the full pipeline for a request. The returned Outcome is
// always non-nil; its Err field is set only for the FAILED state.
func (p *Planner) Run(ctx context.Context, request string) *Outcome {
	logging.Info("planner run started", "request", truncate(request, 120))

	// CREATING_PLAN
	pl, err := p.createPlan(ctx, request)
	if err != nil {
		p.renderer.ShowError(err.Error())
		return &Outcome{State: StateFailed, Err: err}
	}
	if pl.IsEmpty() {
		err := fmt.Errorf("model produced no usable plan: %s", pl.Description)
		p.renderer.ShowError(err.Error())
		return &Outcome{State: StateFailed, Plan: pl, Err: err}
	}

	// AWAITING_PLAN_APPROVAL
	p.renderer.ShowPlan(pl)
	if !p.prompt.Confirm("Apply this plan?") {
		logging.Info("plan rejected by user")
		return &Outcome{State: StateRejected, Plan: pl}
	}
	p.recordPlan(request, pl)

	// GENERATING_STEPS + PER_FILE_PREVIEW
	accepted, skipped, err := p.generateAndPreview(ctx, pl)
	if err != nil {
		p.renderer.ShowError(err.Error())
		return &Outcome{State: StateFailed, Plan: pl, Err: err}
	}

	// APPLYING
	applied, applyErr := p.apply(accepted)
	outcome := &Outcome{
		State:       StateDone,
		Plan:        pl,
		Applied:     applied,
		Skipped:     skipped,
		Suggestions: suggestions(applied),
	}
	if applyErr != nil {
		// Already-applied files are kept; only the remainder was aborted.
		outcome.State = StateFailed
		outcome.Err = applyErr
		p.renderer.ShowError(applyErr.Error())
		return outcome
	}

	logging.Info("planner run finished", "applied", len(applied), "skipped", len(skipped))
	return outcome
}

func (p *Planner) createPlan(ctx context.Context, request string) (plan.Plan, error) {
	projectContext := ""
	if p.explorer != nil {
		projectContext = p.explorer.Summary(request)
	}

	response, err := p.router.Query(ctx, planPrompt(request, projectContext))
	if err != nil {
		return plan.Plan{}, fmt.Errorf("plan generation: %w", err)
	}
	return parser.ExtractPlan(response), nil
}

// generateAndPreview produces candidate content for every step and runs
// the per-file preview gate. Edit decisions re-enter the preview with the
// user's content; reject excludes the file from apply.
func (p *Planner) generateAndPreview(ctx context.Context, pl plan.Plan) (accepted []generated, skipped []string, err error) {
	for _, step := range pl.Steps {
		var content string

		if step.Action != plan.ActionDelete {
			content = step.Content
			if content == "" {
				content, err = p.generateStep(ctx, pl, step)
				if err != nil {
					return nil, nil, fmt.Errorf("generating %s: %w", step.File, err)
				}
			}
		}

	preview:
		for {
			p.showPreview(step, content)
			decision, edited := p.prompt.Review(step.File, content)
			switch decision {
			case DecisionAccept:
				accepted = append(accepted, generated{step: step, content: content})
				break preview
			case DecisionReject:
				skipped = append(skipped, step.File)
				logging.Info("file rejected in preview", "file", step.File)
				break preview
			case DecisionEdit:
				content = edited
			}
		}
	}
	return accepted, skipped, nil
}

func (p *Planner) generateStep(ctx context.Context, pl plan.Plan, step plan.Step) (string, error) {
	existing := ""
	if step.Action == plan.ActionModify && p.fs.Exists(step.File) {
		if current, err := p.fs.Read(step.File); err == nil {
			existing = current
		}
	}

	response, err := p.router.Query(ctx, filePrompt(pl, step, existing, p.relatedContext(step.File)))
	if err != nil {
		return "", err
	}
	content := parser.ExtractCode(response)
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("model returned no content")
	}
	return content, nil
}

// relatedContext summarizes prior interactions with the file from the
// ledger, giving the model continuity across runs.
func (p *Planner) relatedContext(file string) string {
	if p.ledger == nil {
		return ""
	}
	entry, ok := p.ledger.Entry(file)
	if !ok {
		return ""
	}
	return fmt.Sprintf("This file was last %s by a previous run at %s.",
		entry.Status, entry.LastModified.Format("2006-01-02 15:04"))
}

func (p *Planner) showPreview(step plan.Step, content string) {
	switch {
	case step.Action == plan.ActionDelete:
		p.renderer.Info("delete " + step.File)
	case step.Action == plan.ActionModify && p.fs.Exists(step.File):
		old, err := p.fs.Read(step.File)
		if err != nil {
			old = ""
		}
		p.renderer.ShowDiff(step.File, old, content)
	default:
		p.renderer.ShowPreview(step.File, content)
	}
}

// apply writes accepted files in order. The first failure aborts the
// remaining writes but keeps everything already applied.
func (p *Planner) apply(accepted []generated) ([]string, error) {
	var applied []string
	for _, g := range accepted {
		// recordBackup no-ops when the file does not exist, which covers
		// create steps that turn out to overwrite.
		p.recordBackup(g.step.File)
		p.track(g.step.File)

		var err error
		status := memory.StatusModified
		switch g.step.Action {
		case plan.ActionDelete:
			err = p.fs.Remove(g.step.File)
			status = memory.StatusDeleted
		case plan.ActionCreate:
			err = p.fs.Write(g.step.File, g.content)
			status = memory.StatusCreated
		default:
			err = p.fs.Write(g.step.File, g.content)
		}
		if err != nil {
			return applied, fmt.Errorf("applying %s: %w (kept %d already-applied files)",
				g.step.File, err, len(applied))
		}

		applied = append(applied, g.step.File)
		p.recordFile(g.step.File, status)
	}
	return applied, nil
}

func (p *Planner) recordPlan(request string, pl plan.Plan) {
	if p.store == nil {
		return
	}
	err := p.store.Append(memory.Record{
		Category: memory.CategoryPlan,
		Summary:  pl.Description,
		Payload: map[string]any{
			"request": request,
			"create":  pl.Files.Create,
			"modify":  pl.Files.Modify,
		},
	})
	if err != nil {
		logging.Warn("plan record failed", "error", err)
	}
}

// recordBackup snapshots the current content of a file about to be
// overwritten or deleted, so a previous version survives in memory.
func (p *Planner) recordBackup(file string) {
	if p.store == nil || !p.fs.Exists(file) {
		return
	}
	content, err := p.fs.Read(file)
	if err != nil {
		logging.Warn("backup read failed", "file", file, "error", err)
		return
	}
	err = p.store.Append(memory.Record{
		Category: memory.CategoryBackup,
		Summary:  "backup " + file,
		Payload:  map[string]any{"file": file, "content": content},
	})
	if err != nil {
		logging.Warn("backup record failed", "file", file, "error", err)
	}
}

// track tells the watcher, if any, that the planner is about to touch a
// file itself. Called again after the write so directories created by it
// join the watch set.
func (p *Planner) track(file string) {
	if p.tracker != nil {
		p.tracker.Track(file)
	}
}

func (p *Planner) recordFile(file, status string) {
	p.track(file)
	if p.ledger != nil {
		if err := p.ledger.Touch(file, status); err != nil {
			logging.Warn("ledger update failed", "file", file, "error", err)
		}
	}
	if p.store != nil {
		err := p.store.Append(memory.Record{
			Category: memory.CategoryFile,
			Summary:  status + " " + file,
			Payload:  map[string]any{"file": file, "status": status},
		})
		if err != nil {
			logging.Warn("memory record failed", "file", file, "error", err)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
