// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Palette entries adapt to light and dark terminal backgrounds.
var (
	accentColor  = lipgloss.AdaptiveColor{Light: "#0F766E", Dark: "#2DD4BF"}
	mutedColor   = lipgloss.AdaptiveColor{Light: "#57534E", Dark: "#A8A29E"}
	okColor      = lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#4ADE80"}
	failColor    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	cautionColor = lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FBBF24"}
	pathColor    = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}
)

var (
	// TitleStyle renders section headings.
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	// SubtitleStyle renders secondary text such as counts and hints.
	SubtitleStyle = lipgloss.NewStyle().Foreground(mutedColor)
	SuccessStyle  = lipgloss.NewStyle().Foreground(okColor)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(failColor)
	WarningStyle  = lipgloss.NewStyle().Foreground(cautionColor)
	// CmdStyle renders package ids, versions and paths.
	CmdStyle      = lipgloss.NewStyle().Foreground(pathColor)

	tableBorderStyle = lipgloss.NewStyle().Foreground(mutedColor)
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)

	successIcon = SuccessStyle.Render("✓")
	infoIcon    = SubtitleStyle.Render("•")
)
