// Package ui holds the lipgloss styles for the romakan TUI.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the composition readable on light terminals.
var (
	ColorIndigo    = lipgloss.AdaptiveColor{Light: "#1F3A93", Dark: "#7AA2F7"}
	ColorVermilion = lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#F7768E"}
	ColorMatcha    = lipgloss.AdaptiveColor{Light: "#3C7A3C", Dark: "#9ECE6A"}
	ColorYamabuki  = lipgloss.AdaptiveColor{Light: "#B7791F", Dark: "#E0AF68"}
	ColorInk       = lipgloss.AdaptiveColor{Light: "#1A1B26", Dark: "#C0CAF5"}
	ColorAsh       = lipgloss.AdaptiveColor{Light: "#8A8F98", Dark: "#565F89"}
	ColorSumi      = lipgloss.AdaptiveColor{Light: "#D5D6DB", Dark: "#292E42"}
	ColorPaper     = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#1A1B26"}
)

var (
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorIndigo)

	// ModeOnStyle is the badge shown while kana conversion is on.
	ModeOnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPaper).
			Background(ColorMatcha).
			Padding(0, 1)

	ModeOffStyle = ModeOnStyle.Background(ColorAsh)

	StatusStyle = lipgloss.NewStyle().Foreground(ColorAsh).Italic(true)

	ErrorStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorVermilion)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(ColorVermilion)

	OutputStyle = lipgloss.NewStyle().Foreground(ColorInk)
	CursorStyle = lipgloss.NewStyle().Foreground(ColorIndigo).Blink(true)

	// PreviewStyle marks uncommitted text.
	PreviewStyle = lipgloss.NewStyle().Foreground(ColorYamabuki).Underline(true)

	PanelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorInk)

	CandidateIndexStyle    = lipgloss.NewStyle().Foreground(ColorAsh)
	CandidateStyle         = lipgloss.NewStyle().Foreground(ColorInk)
	SelectedCandidateStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPaper).
				Background(ColorIndigo)

	DimStyle = lipgloss.NewStyle().Foreground(ColorAsh)

	FooterKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorYamabuki)
	FooterDescStyle = lipgloss.NewStyle().Foreground(ColorAsh)

	DividerStyle = lipgloss.NewStyle().Foreground(ColorSumi)
)
