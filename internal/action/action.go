// Package action executes the discrete operations a model may request:
// file operations, shell commands, web lookups, and code analysis. Every
// action is a generic map with a "type" key; every outcome is a uniform
// result map so callers and prompts can inspect failures without error
// handling.
package action

// Action types. Anything else yields a structured unknown-type failure.
const (
	TypeCreateFile      = "create_file"
	TypeReadFile        = "read_file"
	TypeEditFile        = "edit_file"
	TypeRunCommand      = "run_command"
	TypeBrowseURL       = "browse_url"
	TypeSearchWeb       = "search_web"
	TypeAnalyzeCode     = "analyze_code"
	TypeListDirectory   = "list_directory"
	TypeFindFiles       = "find_files"
	TypeSearchCode      = "search_code"
	TypeExploreCodebase = "explore_codebase"
)

// Action is a generic action request as parsed from model output.
type Action = map[string]any

// Result is the uniform action outcome: always carries "success" (bool),
// "action" (the type), and "message", plus handler-specific payload keys.
type Result = map[string]any

func str(a Action, key string) string {
	s, _ := a[key].(string)
	return s
}

// firstStr returns the first non-empty string among the given keys.
// Models are inconsistent about parameter naming (filename vs file vs path).
func firstStr(a Action, keys ...string) string {
	for _, key := range keys {
		if s := str(a, key); s != "" {
			return s
		}
	}
	return ""
}

func success(actionType, message string, payload Result) Result {
	r := Result{"success": true, "action": actionType, "message": message}
	for k, v := range payload {
		r[k] = v
	}
	return r
}

func failure(actionType, message string, payload Result) Result {
	r := Result{"success": false, "action": actionType, "message": message}
	for k, v := range payload {
		r[k] = v
	}
	return r
}
