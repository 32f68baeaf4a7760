package client

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrExhausted is returned after every candidate failed. Callers
	// branch on it with errors.Is; the individual failures are in the
	// wrapped message and the log.
	ErrExhausted = errors.New("all completion candidates failed")

	// ErrNoCandidates is returned by NewRouter when configuration yields
	// no usable (provider, model) pair at all.
	ErrNoCandidates = errors.New("no completion candidates configured")
)

// errorShaped reports whether a syntactically successful response is
// actually a provider error payload: trimmed text that parses as a JSON
// object with a top-level "error" key. Such responses count as candidate
// failures for fallback purposes.
func errorShaped(text string) bool {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return false
	}
	_, ok := m["error"]
	return ok
}
