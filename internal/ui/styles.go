// Package ui provides the console and headless adapters behind the agent's
// UserPrompt and Renderer ports. Selection happens once at startup from
// configuration; the core never imports a UI type.
package ui

import "github.com/charmbracelet/lipgloss"

// Theme colors.
var (
	ColorPrimary = lipgloss.Color("#7C3AED")
	ColorSuccess = lipgloss.Color("#10B981")
	ColorError   = lipgloss.Color("#EF4444")
	ColorWarn    = lipgloss.Color("#F59E0B")
	ColorDim     = lipgloss.Color("#6B7280")
	ColorAdd     = lipgloss.Color("#22C55E")
	ColorDel     = lipgloss.Color("#EF4444")
)

// Styles holds the lipgloss styles used by the console renderer.
type Styles struct {
	Header   lipgloss.Style
	Success  lipgloss.Style
	Error    lipgloss.Style
	Warn     lipgloss.Style
	Dim      lipgloss.Style
	Added    lipgloss.Style
	Removed  lipgloss.Style
	FileName lipgloss.Style
}

// NewStyles builds the style set. With color disabled every style is a
// no-op passthrough.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header: plain, Success: plain, Error: plain, Warn: plain,
			Dim: plain, Added: plain, Removed: plain, FileName: plain,
		}
	}
	return &Styles{
		Header:   lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true),
		Success:  lipgloss.NewStyle().Foreground(ColorSuccess),
		Error:    lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warn:     lipgloss.NewStyle().Foreground(ColorWarn),
		Dim:      lipgloss.NewStyle().Foreground(ColorDim),
		Added:    lipgloss.NewStyle().Foreground(ColorAdd),
		Removed:  lipgloss.NewStyle().Foreground(ColorDel),
		FileName: lipgloss.NewStyle().Bold(true).Underline(true),
	}
}
