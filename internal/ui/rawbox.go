package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RawBox displays raw wire output in a muted box: handshake responses and
// console frames from a probe, shown verbatim for debugging.
type RawBox struct {
	Title    string
	Content  string
	Width    int
	MaxLines int // 0 = unlimited
}

// NewRawBox creates a raw output box
func NewRawBox(title, content string) *RawBox {
	return &RawBox{
		Title:   title,
		Content: content,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (b *RawBox) SetWidth(width int) *RawBox {
	b.Width = width
	return b
}

// SetMaxLines limits the number of lines displayed
func (b *RawBox) SetMaxLines(max int) *RawBox {
	b.MaxLines = max
	return b
}

// Render returns the styled box as a string
func (b *RawBox) Render() string {
	width := b.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := strings.Split(b.Content, "\n")
	if b.MaxLines > 0 && len(lines) > b.MaxLines {
		lines = lines[:b.MaxLines]
		lines = append(lines, "... (output truncated)")
	}

	title := TroubleshootingTitleStyle.Render(b.Title)
	content := lipgloss.NewStyle().
		Foreground(TextColor).
		Render(strings.Join(lines, "\n"))

	inner := lipgloss.JoinVertical(lipgloss.Left, title, "", content)

	boxWidth := width - 4
	if boxWidth < 40 {
		boxWidth = 40
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Width(boxWidth).
		Padding(0, 1).
		MarginLeft(2).
		Render(inner)
}

// String implements fmt.Stringer
func (b *RawBox) String() string {
	return b.Render()
}
