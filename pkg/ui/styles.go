package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// ══════════════════════════════════════════════════════════════════════════════
// DESIGN TOKENS - Consistent spacing, colors, and visual language
// ══════════════════════════════════════════════════════════════════════════════

// Spacing constants for consistent layout (in characters)
const (
	SpaceXS = 1
	SpaceSM = 2
	SpaceMD = 3
)

// Layout bounds.
const (
	MinMapWidth  = 40
	SidePanelMin = 34
	FooterHeight = 1
	HeaderHeight = 1
)

var (
	ColorText    = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#F8F8F2"}
	ColorSubtext = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"}
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"}

	ColorPrimary = lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"}
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}
	ColorWarning = lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}
	ColorDanger  = lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"}
)

// RenderKeyHint renders a "key action" pair for the footer.
func RenderKeyHint(key, action string) string {
	k := lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true).Render(key)
	a := lipgloss.NewStyle().Foreground(ColorMuted).Render(action)
	return k + " " + a
}

// RenderToggle renders an on/off checkbox label.
func RenderToggle(label string, on bool) string {
	if on {
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render("[x] " + label)
	}
	return lipgloss.NewStyle().Foreground(ColorMuted).Render("[ ] " + label)
}
