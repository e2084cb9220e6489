package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette for the novacheck CLI
var (
	// Primary colors
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	PassColor    = lipgloss.Color("#43BF6D") // Green - passed checks
	FailColor    = lipgloss.Color("#FF5555") // Red - failed checks
	SkipColor    = lipgloss.Color("#FFA500") // Orange - skipped checks
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultPadding   = 2   // Default padding inside boxes
)

// Shared styles for command output
var (
	// HeaderTitleStyle is for the main command title (e.g., "CHECK SUITE")
	HeaderTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// HeaderCommandStyle is for the command path (e.g., "novacheck run")
	HeaderCommandStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamKeyStyle is for parameter keys (e.g., "Endpoint:")
	HeaderParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2)

	// HeaderParamValueStyle is for parameter values
	HeaderParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// CheckNameStyle is for check names in listings
	CheckNameStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// CheckSummaryStyle is for check summaries in listings
	CheckSummaryStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	// StatusPassStyle renders passed outcomes
	StatusPassStyle = lipgloss.NewStyle().
			Foreground(PassColor)

	// StatusFailStyle renders failed outcomes
	StatusFailStyle = lipgloss.NewStyle().
			Foreground(FailColor).
			Bold(true)

	// StatusSkipStyle renders skipped outcomes
	StatusSkipStyle = lipgloss.NewStyle().
			Foreground(SkipColor)

	// StatusRunningStyle renders the check currently executing
	StatusRunningStyle = lipgloss.NewStyle().
				Foreground(SkipColor)

	// StatusPendingStyle renders checks not yet started
	StatusPendingStyle = lipgloss.NewStyle().
				Foreground(MutedColor)

	// NoteStyle is for short annotations in parentheses (durations, skip
	// reasons)
	NoteStyle = lipgloss.NewStyle().
		Foreground(MutedColor).
		Italic(true)

	// PassTitleStyle is for the success result title
	PassTitleStyle = lipgloss.NewStyle().
			Foreground(PassColor).
			Bold(true)

	// FailTitleStyle is for the failure result title
	FailTitleStyle = lipgloss.NewStyle().
			Foreground(FailColor).
			Bold(true)

	// WarnTitleStyle is for the warning result title
	WarnTitleStyle = lipgloss.NewStyle().
			Foreground(SkipColor).
			Bold(true)

	// FailMessageStyle is for failure message text
	FailMessageStyle = lipgloss.NewStyle().
				Foreground(FailColor)

	// ResultKeyStyle is for result detail keys
	ResultKeyStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(15)

	// ResultValueStyle is for result detail values
	ResultValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// TroubleshootingTitleStyle is for "Troubleshooting:" headers
	TroubleshootingTitleStyle = lipgloss.NewStyle().
					Foreground(MutedColor).
					Bold(true)

	// TroubleshootingItemStyle is for troubleshooting bullet points
	TroubleshootingItemStyle = lipgloss.NewStyle().
					Foreground(MutedColor)
)

// Outcome markers
const (
	MarkerPass    = "✓"
	MarkerFail    = "✗"
	MarkerSkip    = "⊘"
	MarkerRunning = "●"
	MarkerPending = "·"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24 // Default fallback
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// IsTerminal reports whether stdin is an interactive terminal. Commands use
// it to decide between prompting and failing fast.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// HeaderBorderStyle returns the border style for command headers
func HeaderBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// PassBoxStyle returns the border style for success result boxes
func PassBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(PassColor).
		Width(width - 2).
		Padding(1, 2)
}

// FailBoxStyle returns the border style for failure result boxes
func FailBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(FailColor).
		Width(width - 2).
		Padding(1, 2)
}

// WarnBoxStyle returns the border style for warning result boxes
func WarnBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SkipColor).
		Width(width - 2).
		Padding(1, 2)
}

// TroubleshootingBoxStyle returns the border style for troubleshooting
// sections
func TroubleshootingBoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(width - 8). // Indented within failure box
		Padding(0, 1)
}

// RenderHorizontalDivider creates a horizontal line of the specified width
func RenderHorizontalDivider(width int, char string) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat(char, width))
}
