package ui

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm displays a warning box and prompts for a yes/no answer. Returns
// true only on an explicit yes; everything else, including a read error,
// declines.
func Confirm(title string, warnings []string, prompt string) bool {
	width := GetTerminalWidth()
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var lines []string
	titleLine := WarnTitleStyle.Render(fmt.Sprintf("   ⚠  WARNING  ─  %s", title))
	lines = append(lines, "")
	lines = append(lines, titleLine)
	lines = append(lines, "")

	bulletStyle := lipgloss.NewStyle().Foreground(TextColor)
	for _, warning := range warnings {
		lines = append(lines, bulletStyle.Render("   • "+warning))
	}
	lines = append(lines, "")

	box := WarnBoxStyle(width).Padding(0, 2).Render(strings.Join(lines, "\n"))
	fmt.Println(box)
	fmt.Println()

	promptStyle := lipgloss.NewStyle().
		Foreground(SkipColor).
		Bold(true)
	fmt.Print(promptStyle.Render(prompt + " [y/N]: "))

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	fmt.Println()
	if err != nil {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}

	cancelStyle := lipgloss.NewStyle().Foreground(MutedColor)
	fmt.Println(cancelStyle.Render("  Operation cancelled."))
	fmt.Println()
	return false
}

// ConfirmOverwrite is the pre-configured prompt for replacing an existing
// configuration file.
func ConfirmOverwrite(path string) bool {
	return Confirm(
		"CONFIGURATION FILE EXISTS",
		[]string{
			"A configuration file already exists at " + path,
			"Continuing will replace it with the example configuration",
			"Endpoint, token and resource references in it will be lost",
		},
		"Overwrite "+path+"?",
	)
}
