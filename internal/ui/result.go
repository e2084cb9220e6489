package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates the overall outcome of a command
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result represents the final outcome box printed after a command: a suite
// run, a console probe, a config write.
type Result struct {
	Type            ResultType
	Title           string   // e.g., "Check suite complete"
	Details         []Param  // Key-value details, in display order
	Error           error    // Failure cause (failure results only)
	Failures        []string // Per-check failure lines (failure results only)
	Troubleshooting []string // Tips shown under failures
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

// AddFailure appends one per-check failure line to a failure box.
func (r *Result) AddFailure(line string) *Result {
	r.Failures = append(r.Failures, line)
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	switch r.Type {
	case ResultFailure:
		return r.renderFailure()
	case ResultWarning:
		return r.renderBox("⚠  WARNING", WarnTitleStyle, WarnBoxStyle)
	default:
		return r.renderBox(MarkerPass+"  SUCCESS", PassTitleStyle, PassBoxStyle)
	}
}

func (r *Result) renderBox(label string, titleStyle lipgloss.Style, boxStyle func(int) lipgloss.Style) string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, titleStyle.Render(fmt.Sprintf("   %s  ─  %s", label, r.Title)))
	lines = append(lines, "")

	for _, d := range r.Details {
		key := ResultKeyStyle.Render(fmt.Sprintf("   %s:", d.Key))
		value := ResultValueStyle.Render(d.Value)
		lines = append(lines, key+" "+value)
	}
	lines = append(lines, "")

	content := strings.Join(lines, "\n")
	return boxStyle(width).Padding(0, 2).Render(content)
}

// renderFailure renders a failure result box
func (r *Result) renderFailure() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string
	lines = append(lines, "")
	lines = append(lines, FailTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", MarkerFail, r.Title)))
	lines = append(lines, "")

	if r.Error != nil {
		lines = append(lines, FailMessageStyle.Render("   Error: "+r.Error.Error()))
		lines = append(lines, "")
	}

	for _, failure := range r.Failures {
		lines = append(lines, FailMessageStyle.Render("   "+failure))
	}
	if len(r.Failures) > 0 {
		lines = append(lines, "")
	}

	for _, d := range r.Details {
		key := ResultKeyStyle.Render(fmt.Sprintf("   %s:", d.Key))
		value := ResultValueStyle.Render(d.Value)
		lines = append(lines, key+" "+value)
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if len(r.Troubleshooting) > 0 {
		lines = append(lines, r.renderTroubleshootingBox(width))
		lines = append(lines, "")
	}

	content := strings.Join(lines, "\n")
	return FailBoxStyle(width).Padding(0, 2).Render(content)
}

// renderTroubleshootingBox renders the inner troubleshooting box
func (r *Result) renderTroubleshootingBox(width int) string {
	var lines []string
	lines = append(lines, TroubleshootingTitleStyle.Render("Troubleshooting:"))
	lines = append(lines, "")
	for _, tip := range r.Troubleshooting {
		lines = append(lines, TroubleshootingItemStyle.Render("  • "+tip))
	}

	content := strings.Join(lines, "\n")

	innerWidth := width - 12 // Indent within outer box
	if innerWidth < 40 {
		innerWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(innerWidth).
		Padding(0, 1).
		MarginLeft(3).
		Render(content)
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
