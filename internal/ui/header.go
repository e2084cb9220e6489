package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one key/value pair shown in a command header. A slice keeps the
// display order stable across runs.
type Param struct {
	Key   string
	Value string
}

// Header is the banner printed at the top of a command run: the operation
// name, the invoked command and the parameters that matter for this run.
type Header struct {
	Title   string  // e.g., "CHECK SUITE"
	Command string  // e.g., "novacheck run"
	Params  []Param // e.g., {"Endpoint", "http://controller:8774/v2.1"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a header with the current terminal width.
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	topSection := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	content := topSection
	if len(h.Params) > 0 {
		dividerWidth := width - 6 // Account for border and padding
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := RenderHorizontalDivider(dividerWidth, "─")

		paramLines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			key := HeaderParamKeyStyle.Render(p.Key + ":")
			value := HeaderParamValueStyle.Render(p.Value)
			paramLines = append(paramLines, key+" "+value)
		}
		paramsSection := strings.Join(paramLines, "\n")

		content = lipgloss.JoinVertical(lipgloss.Left, topSection, divider, paramsSection)
	}

	return HeaderBorderStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
