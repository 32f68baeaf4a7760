package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"

	"goforge/internal/agent"
	"goforge/internal/logging"
	"goforge/internal/plan"
)

// Console is the interactive adapter: plans render as markdown, changes as
// diffs, and every gate reads a keystroke from stdin.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	styles      *Styles
	highlighter *Highlighter
	markdown    *glamour.TermRenderer
}

// NewConsole creates a console UI on stdin/stdout.
func NewConsole(color bool) *Console {
	var markdown *glamour.TermRenderer
	if color {
		markdown, _ = glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(100),
		)
	}
	return &Console{
		in:          bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		styles:      NewStyles(color),
		highlighter: NewHighlighter("monokai"),
		markdown:    markdown,
	}
}

var _ agent.UserPrompt = (*Console)(nil)
var _ agent.Renderer = (*Console)(nil)

// Confirm asks a y/n question. Anything but y/yes is a no.
func (c *Console) Confirm(question string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", c.styles.Header.Render(question))
	answer := strings.ToLower(strings.TrimSpace(c.readLine()))
	return answer == "y" || answer == "yes"
}

// Review presents one file and reads the decision: accept, reject, or edit
// in $EDITOR (the content is also copied to the clipboard for convenience).
func (c *Console) Review(file, content string) (agent.Decision, string) {
	for {
		fmt.Fprintf(c.out, "%s [a]ccept / [r]eject / [e]dit: ", c.styles.FileName.Render(file))
		switch strings.ToLower(strings.TrimSpace(c.readLine())) {
		case "a", "accept", "y", "":
			return agent.DecisionAccept, ""
		case "r", "reject", "n":
			return agent.DecisionReject, ""
		case "e", "edit":
			edited, err := c.editContent(file, content)
			if err != nil {
				c.ShowError(fmt.Sprintf("edit failed: %v", err))
				continue
			}
			return agent.DecisionEdit, edited
		}
	}
}

// editContent opens the content in $EDITOR via a temp file and returns the
// saved result.
func (c *Console) editContent(file, content string) (string, error) {
	if err := clipboard.WriteAll(content); err != nil {
		logging.Debug("clipboard unavailable", "error", err)
	}

	tmp, err := os.CreateTemp("", "goforge-edit-*"+sanitizeExt(file))
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	cmd := exec.Command(editor, tmpPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *Console) ShowPlan(p plan.Plan) {
	summary := p.Summary()
	if c.markdown != nil {
		if rendered, err := c.markdown.Render(summary); err == nil {
			fmt.Fprint(c.out, rendered)
			return
		}
	}
	fmt.Fprintln(c.out, summary)
}

func (c *Console) ShowPreview(file, content string) {
	fmt.Fprintf(c.out, "\n%s\n", c.styles.Header.Render("New file: "+file))
	fmt.Fprintln(c.out, c.highlighter.HighlightFile(file, content))
}

func (c *Console) ShowDiff(file, oldContent, newContent string) {
	fmt.Fprintf(c.out, "\n%s\n", c.styles.Header.Render("Changes to "+file))
	fmt.Fprint(c.out, renderDiff(c.styles, file, oldContent, newContent))
}

func (c *Console) ShowError(message string) {
	fmt.Fprintln(c.out, c.styles.Error.Render("error: "+message))
}

func (c *Console) Info(message string) {
	fmt.Fprintln(c.out, c.styles.Dim.Render(message))
}

func (c *Console) readLine() string {
	line, _ := c.in.ReadString('\n')
	return line
}

func sanitizeExt(file string) string {
	if i := strings.LastIndexByte(file, '.'); i >= 0 {
		return file[i:]
	}
	return ".txt"
}
