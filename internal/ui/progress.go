package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of one check in a suite run
type StepStatus int

const (
	StepPending StepStatus = iota // Not yet started
	StepRunning                   // Currently executing
	StepPassed                    // Check passed
	StepFailed                    // Check failed
	StepSkipped                   // Check skipped (requirements not met)
)

// Step is one check in the suite progress display
type Step struct {
	Number int        // Step number (1-based)
	Name   string     // Check name
	Status StepStatus // Current status
	Note   string     // Optional annotation (duration, skip reason)
}

// Progress tracks and renders suite execution: an overall bar plus one line
// per check.
type Progress struct {
	Steps   []Step
	Current int     // Check currently running (1-based)
	Total   int     // Total checks
	Percent float64 // Completion fraction (0.0 - 1.0)
	Width   int     // Terminal width

	bar progress.Model
}

// NewProgress creates a progress display over the named checks.
func NewProgress(names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{
			Number: i + 1,
			Name:   name,
			Status: StepPending,
		}
	}

	p := &Progress{
		Steps: steps,
		Total: len(names),
	}
	p.SetWidth(GetTerminalWidth())
	return p
}

// SetWidth sets the terminal width for responsive rendering
func (p *Progress) SetWidth(width int) *Progress {
	p.Width = width
	barWidth := width - 20 // Leave room for percentage and step count
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(barWidth),
	)
	return p
}

// Update records a status change for one check and refreshes the completion
// fraction.
func (p *Progress) Update(stepNumber int, status StepStatus, note string) {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return
	}
	idx := stepNumber - 1
	p.Steps[idx].Status = status
	p.Steps[idx].Note = note

	if status == StepRunning {
		p.Current = stepNumber
		return
	}

	settled := 0
	for _, s := range p.Steps {
		if s.Status != StepPending && s.Status != StepRunning {
			settled++
		}
	}
	p.Percent = float64(settled) / float64(p.Total)
}

// Start marks a check as running
func (p *Progress) Start(stepNumber int) {
	p.Update(stepNumber, StepRunning, "")
}

// Render returns the complete progress display: bar then step list.
func (p *Progress) Render() string {
	var b strings.Builder
	b.WriteString(p.renderBar())
	b.WriteString("\n\n")
	for _, step := range p.Steps {
		b.WriteString(p.RenderStepLine(step.Number))
		b.WriteString("\n")
	}
	return b.String()
}

// RenderBar renders the overall completion bar line.
func (p *Progress) renderBar() string {
	barView := p.bar.ViewAs(p.Percent)
	percentStr := fmt.Sprintf("%3.0f%%", p.Percent*100)
	stepStr := fmt.Sprintf("[%d/%d]", p.Current, p.Total)

	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %s  %s", barView, percentStr, stepStr))
}

// RenderStepLine renders a single check's line for incremental output.
func (p *Progress) RenderStepLine(stepNumber int) string {
	if stepNumber < 1 || stepNumber > len(p.Steps) {
		return ""
	}
	step := p.Steps[stepNumber-1]

	prefix := fmt.Sprintf("  [%d/%d]", step.Number, p.Total)

	var marker string
	var nameStyle lipgloss.Style
	switch step.Status {
	case StepPassed:
		marker = MarkerPass
		nameStyle = StatusPassStyle
	case StepRunning:
		marker = MarkerRunning
		nameStyle = StatusRunningStyle
	case StepFailed:
		marker = MarkerFail
		nameStyle = StatusFailStyle
	case StepSkipped:
		marker = MarkerSkip
		nameStyle = StatusSkipStyle
	default: // StepPending
		marker = MarkerPending
		nameStyle = StatusPendingStyle
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(" ")
	b.WriteString(nameStyle.Render(step.Name))

	// Align markers at a fixed column
	nameLen := lipgloss.Width(step.Name)
	maxNameLen := 36
	padding := maxNameLen - nameLen
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(nameStyle.Render(marker))

	if step.Note != "" {
		b.WriteString("  ")
		b.WriteString(NoteStyle.Render("(" + step.Note + ")"))
	}

	return b.String()
}

// String implements fmt.Stringer
func (p *Progress) String() string {
	return p.Render()
}
