// Package app wires the pipeline together: one App instance owns the
// router, planner, executor, and memory for a project directory and is
// passed explicitly to every call site.
package app

import (
	"context"
	"fmt"
	"strings"

	"goforge/internal/action"
	"goforge/internal/agent"
	"goforge/internal/client"
	"goforge/internal/config"
	"goforge/internal/explore"
	"goforge/internal/logging"
	"goforge/internal/memory"
	"goforge/internal/shell"
	"goforge/internal/ui"
)

// App is the assembled pipeline for one project directory.
type App struct {
	cfg      *config.Config
	router   *client.Router
	planner  *agent.Planner
	executor *action.Executor
	store    *memory.Store
	ledger   *memory.Ledger
	watcher  *memory.Watcher
	renderer agent.Renderer
}

// New assembles an App for the project at workDir. The UI adapters are
// chosen here, once, from configuration.
func New(ctx context.Context, cfg *config.Config, workDir string) (*App, error) {
	router, err := client.NewRouter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring backends: %w", err)
	}

	store := memory.NewStore(workDir, cfg.Memory.Dir, cfg.Memory.Enabled)
	ledger := memory.NewLedger(store)
	explorer := explore.New(workDir)
	fs := action.NewOSFileSystem(workDir)
	runner := shell.NewRunner(cfg.Shell, workDir)

	var prompt agent.UserPrompt
	var renderer agent.Renderer
	if cfg.UI.Mode == "headless" {
		headless := ui.NewHeadless()
		prompt, renderer = headless, headless
	} else {
		console := ui.NewConsole(cfg.UI.Color)
		prompt, renderer = console, console
	}

	app := &App{
		cfg:      cfg,
		router:   router,
		store:    store,
		ledger:   ledger,
		renderer: renderer,
		planner:  agent.NewPlanner(router, fs, prompt, renderer, store, ledger, explorer),
		executor: &action.Executor{
			FS:       fs,
			Runner:   runner,
			Explorer: explorer,
			Store:    store,
			Ledger:   ledger,
			Router:   router,
			Web:      action.NewWebClient(0),
		},
	}

	if cfg.Memory.Enabled && cfg.Memory.Watch {
		watcher, err := memory.NewWatcher(workDir, ledger)
		if err != nil {
			logging.Warn("file watcher unavailable", "error", err)
		} else {
			app.watcher = watcher
			app.planner.SetTracker(watcher)
			app.executor.Tracker = watcher
		}
	}
	return app, nil
}

// Run drives one request through the pipeline and reports the outcome.
func (a *App) Run(ctx context.Context, request string) error {
	outcome := a.planner.Run(ctx, request)

	switch outcome.State {
	case agent.StateRejected:
		a.renderer.Info("Plan rejected; nothing was changed.")
		return nil
	case agent.StateFailed:
		if len(outcome.Applied) > 0 {
			a.renderer.Info(fmt.Sprintf("Kept %d applied file(s): %s",
				len(outcome.Applied), strings.Join(outcome.Applied, ", ")))
		}
		return outcome.Err
	}

	if len(outcome.Applied) > 0 {
		a.renderer.Info("Applied: " + strings.Join(outcome.Applied, ", "))
	} else {
		a.renderer.Info("Nothing was applied.")
	}
	if len(outcome.Skipped) > 0 {
		a.renderer.Info("Skipped: " + strings.Join(outcome.Skipped, ", "))
	}
	for _, s := range outcome.Suggestions {
		a.renderer.Info("Next: " + s)
	}
	return nil
}

// Executor exposes the action executor for direct action invocations.
func (a *App) Executor() *action.Executor { return a.executor }

// Close releases background resources.
func (a *App) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			logging.Warn("closing watcher", "error", err)
		}
	}
	logging.Close()
}
