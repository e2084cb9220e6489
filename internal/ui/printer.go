package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled UI components to a writer. Commands route all of
// their curated output through one Printer so width handling stays in one
// place.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a new Printer that writes to the given writer.
// If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{
		out:   w,
		width: GetTerminalWidth(),
	}
}

// Width returns the current terminal width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Print writes content to the output
func (p *Printer) Print(content string) {
	_, _ = fmt.Fprint(p.out, content)
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	header := NewHeader(title, command, params...)
	header.SetWidth(p.width)
	p.Println(header.Render())
	p.Newline()
}

// PrintResult prints a result box
func (p *Printer) PrintResult(r *Result) {
	r.SetWidth(p.width)
	p.Println(r.Render())
}

// PrintCheckLine prints one check name and summary for listings.
func (p *Printer) PrintCheckLine(name, summary string) {
	nameCol := lipgloss.NewStyle().Width(34).Render(CheckNameStyle.Render(name))
	p.Println("  " + nameCol + CheckSummaryStyle.Render(summary))
}
