// Package ui provides terminal UI components for the novacheck CLI.
//
// This package uses Bubble Tea and Lipgloss to render styled terminal
// output. Most components follow a "print once" pattern driven through a
// Printer: header box, per-check progress lines, result box. The one fully
// interactive component is the console session.
//
// # Components
//
//   - Header: command banner showing the operation and its parameters
//   - Progress: suite completion bar plus one status line per check
//   - Result: success/failure/warning boxes with details and tips
//   - RawBox: raw wire output (handshake responses, console frames)
//   - SessionModel: interactive console session with viewport and input
//
// A suite run composes them in order:
//
//	printer := ui.NewPrinter(nil)
//	printer.PrintHeader("Check Suite", "novacheck run",
//	    ui.Param{Key: "Endpoint", Value: cfg.Compute.Endpoint})
//
//	progress := ui.NewProgress(names)
//	// ... print progress lines as checks settle ...
//
//	printer.PrintResult(ui.NewSuccessResult("All checks passed"))
//
// # Logging Integration
//
// This package expects logging to be controlled via the NOVACHECK_LOG_LEVEL
// environment variable. When unset or empty, zap logging is silent, letting
// the curated UI output stand alone. Set NOVACHECK_LOG_LEVEL to "debug",
// "info", "warn", or "error" to interleave log output.
package ui
