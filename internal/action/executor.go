package action

import (
	"context"
	"fmt"
	"strings"

	"goforge/internal/explore"
	"goforge/internal/logging"
	"goforge/internal/memory"
	"goforge/internal/parser"
	"goforge/internal/shell"
)

// Querier is the completion dependency for actions that consult the model
// (edit_file with a change description, analyze_code).
type Querier interface {
	Query(ctx context.Context, prompt string) (string, error)
}

// Tracker is told about files the executor writes itself, so an external
// file watcher can follow them without flagging the agent's own changes
// as outside edits.
type Tracker interface {
	Track(path string)
}

// Executor dispatches actions to their handlers. All fields except FS are
// optional; handlers needing a missing dependency return a failure result.
type Executor struct {
	FS       FileSystem
	Runner   *shell.Runner
	Explorer *explore.Explorer
	Store    *memory.Store
	Ledger   *memory.Ledger
	Router   Querier
	Web      *WebClient
	Tracker  Tracker
}

func (e *Executor) track(filename string) {
	if e.Tracker != nil {
		e.Tracker.Track(filename)
	}
}

// Execute runs one action and returns its result. It never returns an
// error: every failure, including an unknown type, is a result map.
func (e *Executor) Execute(ctx context.Context, a Action) Result {
	actionType := str(a, "type")
	logging.Debug("executing action", "type", actionType)

	switch actionType {
	case TypeCreateFile:
		return e.createFile(a)
	case TypeReadFile:
		return e.readFile(a)
	case TypeEditFile:
		return e.editFile(ctx, a)
	case TypeRunCommand:
		return e.runCommand(ctx, a)
	case TypeBrowseURL:
		return e.browseURL(ctx, a)
	case TypeSearchWeb:
		return e.searchWeb(ctx, a)
	case TypeAnalyzeCode:
		return e.analyzeCode(ctx, a)
	case TypeListDirectory:
		return e.listDirectory(a)
	case TypeFindFiles:
		return e.findFiles(a)
	case TypeSearchCode:
		return e.searchCode(a)
	case TypeExploreCodebase:
		return e.exploreCodebase(a)
	default:
		return failure(actionType, fmt.Sprintf("unknown action type: %s", actionType), nil)
	}
}

// ExecuteBatch runs actions in order. A failed action does not stop the
// batch; every action gets a result.
func (e *Executor) ExecuteBatch(ctx context.Context, actions []Action) []Result {
	results := make([]Result, 0, len(actions))
	for _, a := range actions {
		results = append(results, e.Execute(ctx, a))
	}
	return results
}

func (e *Executor) createFile(a Action) Result {
	filename := firstStr(a, "filename", "file", "path")
	if filename == "" {
		return failure(TypeCreateFile, "missing filename", nil)
	}
	content := str(a, "content")

	e.track(filename)
	if err := e.FS.Write(filename, content); err != nil {
		return failure(TypeCreateFile, fmt.Sprintf("write %s: %v", filename, err), nil)
	}
	e.recordFileOp(filename, memory.StatusCreated, "created "+filename)
	return success(TypeCreateFile, "created "+filename, Result{"filename": filename})
}

func (e *Executor) readFile(a Action) Result {
	filename := firstStr(a, "filename", "file", "path")
	if filename == "" {
		return failure(TypeReadFile, "missing filename", nil)
	}
	content, err := e.FS.Read(filename)
	if err != nil {
		return failure(TypeReadFile, fmt.Sprintf("read %s: %v", filename, err), nil)
	}
	return success(TypeReadFile, "read "+filename, Result{"filename": filename, "content": content})
}

// editFile writes the provided content, or, given only a change
// description, asks the model to produce the edited file.
func (e *Executor) editFile(ctx context.Context, a Action) Result {
	filename := firstStr(a, "filename", "file", "path")
	if filename == "" {
		return failure(TypeEditFile, "missing filename", nil)
	}

	content := str(a, "content")
	if content == "" {
		changes := firstStr(a, "changes", "instructions")
		if changes == "" {
			return failure(TypeEditFile, "edit_file needs content or changes", nil)
		}
		if e.Router == nil {
			return failure(TypeEditFile, "no model available for change-based edit", nil)
		}
		current, err := e.FS.Read(filename)
		if err != nil {
			return failure(TypeEditFile, fmt.Sprintf("read %s: %v", filename, err), nil)
		}
		response, err := e.Router.Query(ctx, editPrompt(filename, current, changes))
		if err != nil {
			return failure(TypeEditFile, fmt.Sprintf("model edit failed: %v", err), nil)
		}
		content = parser.ExtractCode(response)
		if strings.TrimSpace(content) == "" {
			return failure(TypeEditFile, "model returned no usable content", nil)
		}
	}

	e.track(filename)
	if err := e.FS.Write(filename, content); err != nil {
		return failure(TypeEditFile, fmt.Sprintf("write %s: %v", filename, err), nil)
	}
	e.recordFileOp(filename, memory.StatusModified, "edited "+filename)
	return success(TypeEditFile, "edited "+filename, Result{"filename": filename})
}

func editPrompt(filename, current, changes string) string {
	return fmt.Sprintf(
		"Apply the following changes to %s and return the complete updated file in a single fenced code block.\n\nChanges: %s\n\nCurrent content:\n```\n%s\n```",
		filename, changes, current)
}

func (e *Executor) runCommand(ctx context.Context, a Action) Result {
	command := str(a, "command")
	if command == "" {
		return failure(TypeRunCommand, "missing command", nil)
	}
	if e.Runner == nil {
		return failure(TypeRunCommand, "shell execution unavailable", nil)
	}

	result, err := e.Runner.Run(ctx, command)
	if err != nil {
		return failure(TypeRunCommand, fmt.Sprintf("run %q: %v", command, err), nil)
	}

	payload := Result{
		"return_code": result.ExitCode,
		"stdout":      result.Stdout,
		"stderr":      result.Stderr,
	}
	if e.Store != nil {
		_ = e.Store.Append(memory.Record{
			Category: memory.CategoryCommand,
			Summary:  command,
			Payload:  map[string]any{"return_code": result.ExitCode},
		})
	}
	if result.ExitCode != 0 {
		// Inspectable outcome, not an error.
		return failure(TypeRunCommand, fmt.Sprintf("command exited with code %d", result.ExitCode), payload)
	}
	return success(TypeRunCommand, "command completed", payload)
}

func (e *Executor) browseURL(ctx context.Context, a Action) Result {
	url := str(a, "url")
	if url == "" {
		return failure(TypeBrowseURL, "missing url", nil)
	}
	if e.Web == nil {
		return failure(TypeBrowseURL, "web access unavailable", nil)
	}
	page, err := e.Web.Browse(ctx, url)
	if err != nil {
		return failure(TypeBrowseURL, fmt.Sprintf("browse %s: %v", url, err), nil)
	}
	return success(TypeBrowseURL, "fetched "+url, Result{
		"url":   url,
		"title": page.Title,
		"text":  page.Text,
	})
}

func (e *Executor) searchWeb(ctx context.Context, a Action) Result {
	query := firstStr(a, "query", "q")
	if query == "" {
		return failure(TypeSearchWeb, "missing query", nil)
	}
	if e.Web == nil {
		return failure(TypeSearchWeb, "web access unavailable", nil)
	}
	results, err := e.Web.Search(ctx, query)
	if err != nil {
		return failure(TypeSearchWeb, fmt.Sprintf("search %q: %v", query, err), nil)
	}
	items := make([]any, 0, len(results))
	for _, r := range results {
		items = append(items, map[string]any{"title": r.Title, "url": r.URL, "snippet": r.Snippet})
	}
	return success(TypeSearchWeb, fmt.Sprintf("%d results", len(items)), Result{"results": items})
}

func (e *Executor) analyzeCode(ctx context.Context, a Action) Result {
	filename := firstStr(a, "filename", "file", "path")
	if filename == "" {
		return failure(TypeAnalyzeCode, "missing filename", nil)
	}
	if e.Router == nil {
		return failure(TypeAnalyzeCode, "no model available for analysis", nil)
	}
	content, err := e.FS.Read(filename)
	if err != nil {
		return failure(TypeAnalyzeCode, fmt.Sprintf("read %s: %v", filename, err), nil)
	}
	question := str(a, "question")
	if question == "" {
		question = "Summarize what this file does and point out potential problems."
	}
	analysis, err := e.Router.Query(ctx, fmt.Sprintf("%s\n\nFile %s:\n```\n%s\n```", question, filename, content))
	if err != nil {
		return failure(TypeAnalyzeCode, fmt.Sprintf("analysis failed: %v", err), nil)
	}
	return success(TypeAnalyzeCode, "analyzed "+filename, Result{"filename": filename, "analysis": analysis})
}

func (e *Executor) listDirectory(a Action) Result {
	dir := firstStr(a, "directory", "path", "dir")
	if dir == "" {
		dir = "."
	}
	names, err := e.FS.List(dir)
	if err != nil {
		return failure(TypeListDirectory, fmt.Sprintf("list %s: %v", dir, err), nil)
	}
	return success(TypeListDirectory, fmt.Sprintf("%d entries", len(names)), Result{"directory": dir, "entries": names})
}

func (e *Executor) findFiles(a Action) Result {
	pattern := firstStr(a, "pattern", "glob")
	if pattern == "" {
		return failure(TypeFindFiles, "missing pattern", nil)
	}
	if e.Explorer == nil {
		return failure(TypeFindFiles, "exploration unavailable", nil)
	}
	matches, err := e.Explorer.FindFiles(pattern)
	if err != nil {
		return failure(TypeFindFiles, err.Error(), nil)
	}
	return success(TypeFindFiles, fmt.Sprintf("%d files", len(matches)), Result{"files": matches})
}

func (e *Executor) searchCode(a Action) Result {
	pattern := firstStr(a, "pattern", "query")
	if pattern == "" {
		return failure(TypeSearchCode, "missing pattern", nil)
	}
	if e.Explorer == nil {
		return failure(TypeSearchCode, "exploration unavailable", nil)
	}
	matches, err := e.Explorer.SearchCode(pattern)
	if err != nil {
		return failure(TypeSearchCode, err.Error(), nil)
	}
	items := make([]any, 0, len(matches))
	for _, m := range matches {
		items = append(items, map[string]any{"path": m.Path, "line": m.Line, "context": m.Context})
	}
	return success(TypeSearchCode, fmt.Sprintf("%d matches", len(items)), Result{"matches": items})
}

func (e *Executor) exploreCodebase(a Action) Result {
	if e.Explorer == nil {
		return failure(TypeExploreCodebase, "exploration unavailable", nil)
	}
	request := firstStr(a, "request", "query")
	return success(TypeExploreCodebase, "explored codebase", Result{"summary": e.Explorer.Summary(request)})
}

func (e *Executor) recordFileOp(filename, status, summary string) {
	e.track(filename)
	if e.Ledger != nil {
		if err := e.Ledger.Touch(filename, status); err != nil {
			logging.Warn("ledger update failed", "file", filename, "error", err)
		}
	}
	if e.Store != nil {
		err := e.Store.Append(memory.Record{
			Category: memory.CategoryFile,
			Summary:  summary,
			Payload:  map[string]any{"file": filename, "status": status},
		})
		if err != nil {
			logging.Warn("memory record failed", "file", filename, "error", err)
		}
	}
}
