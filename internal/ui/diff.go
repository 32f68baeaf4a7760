package ui

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// renderDiff produces a unified-style line diff with +/- markers, styled
// for the terminal.
func renderDiff(styles *Styles, file, oldContent, newContent string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, true)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styles.FileName.Render("--- "+file))
	fmt.Fprintf(&b, "%s\n", styles.FileName.Render("+++ "+file))

	for _, d := range diffs {
		for _, line := range splitDiffLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				b.WriteString(styles.Added.Render("+ "+line) + "\n")
			case diffmatchpatch.DiffDelete:
				b.WriteString(styles.Removed.Render("- "+line) + "\n")
			default:
				b.WriteString(styles.Dim.Render("  "+line) + "\n")
			}
		}
	}
	return b.String()
}

// splitDiffLines splits diff fragment text into display lines, dropping a
// trailing empty fragment from a final newline.
func splitDiffLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
