// Package explore gathers project context for prompts: directory
// structure, files relevant to a request, and code matches with
// surrounding lines. Results are plain strings sized for inclusion in a
// model prompt.
package explore

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"goforge/internal/logging"
)

// Directories never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".goforge":     true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// Well-known project configuration files surfaced in every summary.
var configFiles = []string{
	"go.mod", "package.json", "pyproject.toml", "requirements.txt",
	"setup.py", "Cargo.toml", "Makefile", "Dockerfile", "docker-compose.yml",
}

const (
	maxStructureEntries = 200
	maxMatchesPerFile   = 5
	maxSearchResults    = 50
	contextLines        = 2
)

// Explorer inspects a project tree rooted at Root.
type Explorer struct {
	Root string
}

func New(root string) *Explorer {
	return &Explorer{Root: root}
}

// Summary describes the project for a planning prompt: detected config
// files, the directory structure, and files matching the request keywords.
func (e *Explorer) Summary(request string) string {
	var b strings.Builder

	if configs := e.detectConfigs(); len(configs) > 0 {
		b.WriteString("Project configuration: ")
		b.WriteString(strings.Join(configs, ", "))
		b.WriteString("\n\n")
	}

	b.WriteString("Directory structure:\n")
	b.WriteString(e.Structure())

	keywords := Keywords(request)
	if len(keywords) > 0 {
		if related := e.relatedFiles(keywords); len(related) > 0 {
			b.WriteString("\nFiles related to the request:\n")
			for _, f := range related {
				b.WriteString("  " + f + "\n")
			}
		}
	}
	return b.String()
}

// Structure renders the tree as an indented listing, capped to keep the
// prompt bounded.
func (e *Explorer) Structure() string {
	var b strings.Builder
	count := 0
	filepath.WalkDir(e.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == e.Root {
			return nil
		}
		if d.IsDir() && skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if count >= maxStructureEntries {
			return filepath.SkipAll
		}
		rel, relErr := filepath.Rel(e.Root, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator))
		name := d.Name()
		if d.IsDir() {
			name += "/"
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), name)
		count++
		return nil
	})
	if count >= maxStructureEntries {
		b.WriteString("  ... (truncated)\n")
	}
	return b.String()
}

// FindFiles returns project-relative paths matching a doublestar glob,
// e.g. "**/*.py".
func (e *Explorer) FindFiles(pattern string) ([]string, error) {
	fsys := os.DirFS(e.Root)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", pattern, err)
	}
	var out []string
	for _, m := range matches {
		if skippable(m) {
			continue
		}
		info, err := os.Stat(filepath.Join(e.Root, m))
		if err != nil || info.IsDir() {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

// Match is one search hit with surrounding context.
type Match struct {
	Path    string
	Line    int // 1-based line of the hit
	Context string
}

// SearchCode greps text files under the root for the pattern (a regular
// expression) and returns matches with two lines of context either side.
func (e *Explorer) SearchCode(pattern string) ([]Match, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", pattern, err)
	}

	var matches []Match
	filepath.WalkDir(e.Root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (path != e.Root && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if len(matches) >= maxSearchResults || !textFile(d.Name()) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(e.Root, path)
		lines := strings.Split(string(data), "\n")
		found := 0
		for i, line := range lines {
			if !re.MatchString(line) {
				continue
			}
			matches = append(matches, Match{
				Path:    rel,
				Line:    i + 1,
				Context: contextAround(lines, i),
			})
			found++
			if found >= maxMatchesPerFile || len(matches) >= maxSearchResults {
				break
			}
		}
		return nil
	})
	logging.Debug("code search finished", "pattern", pattern, "matches", len(matches))
	return matches, nil
}

func contextAround(lines []string, i int) string {
	from := i - contextLines
	if from < 0 {
		from = 0
	}
	to := i + contextLines + 1
	if to > len(lines) {
		to = len(lines)
	}
	return strings.Join(lines[from:to], "\n")
}

// Keywords extracts search terms from a free-text request: lowercase words
// of three or more letters with common stopwords removed.
func Keywords(request string) []string {
	var stopwords = map[string]bool{
		"the": true, "and": true, "for": true, "with": true, "that": true,
		"this": true, "from": true, "have": true, "will": true, "can": true,
		"should": true, "would": true, "into": true, "all": true, "add": true,
		"new": true, "make": true, "create": true, "file": true, "files": true,
		"please": true, "want": true, "need": true, "use": true, "using": true,
	}
	wordRe := regexp.MustCompile(`[a-zA-Z_][a-zA-Z0-9_]{2,}`)

	seen := map[string]bool{}
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(request), -1) {
		if stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

// relatedFiles returns files whose name or path contains any keyword.
func (e *Explorer) relatedFiles(keywords []string) []string {
	var out []string
	filepath.WalkDir(e.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (path != e.Root && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(e.Root, path)
		if relErr != nil {
			return nil
		}
		lower := strings.ToLower(rel)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, rel)
				break
			}
		}
		if len(out) >= 20 {
			return filepath.SkipAll
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func (e *Explorer) detectConfigs() []string {
	var out []string
	for _, name := range configFiles {
		if _, err := os.Stat(filepath.Join(e.Root, name)); err == nil {
			out = append(out, name)
		}
	}
	return out
}

func skippable(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if skipDirs[part] || strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

var textExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".ts": true, ".jsx": true,
	".tsx": true, ".html": true, ".css": true, ".json": true, ".yaml": true,
	".yml": true, ".toml": true, ".md": true, ".txt": true, ".sh": true,
	".rs": true, ".java": true, ".c": true, ".h": true, ".cpp": true,
	".rb": true, ".sql": true,
}

func textFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		base := filepath.Base(name)
		return base == "Makefile" || base == "Dockerfile"
	}
	return textExtensions[ext]
}
