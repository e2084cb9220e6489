package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/novacheck/novacheck/internal/checks"
	"github.com/novacheck/novacheck/internal/compute"
	"github.com/novacheck/novacheck/internal/config"
	"github.com/novacheck/novacheck/internal/console"
	"github.com/novacheck/novacheck/internal/ui"
)

// Command flags
var (
	configPath string
	logLevel   string

	consoleURL    string
	consoleServer string
	probeTimeout  int
	probeSend     string
	probeFrames   int
	showHandshake bool

	forceInit bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/novacheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(configCmd)
}

// listCmd shows every registered check and whether the current
// configuration would let it run.
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available checks",
	Long: `List every check the suite knows about, one line per check.

When a configuration is present, checks the current settings would skip
are annotated with the reason.`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	printer := ui.NewPrinter(nil)
	printer.PrintHeader("Available Checks", "novacheck list")

	cfg, err := config.Load(configPath)
	for _, c := range checks.All() {
		printer.PrintCheckLine(c.Name, c.Summary)
		if err == nil && c.Skip != nil {
			if reason := c.Skip(cfg); reason != "" {
				printer.Println("      " + ui.StatusSkipStyle.Render("would skip: "+reason))
			}
		}
	}

	printer.Newline()
	printer.Println("Run all checks with 'novacheck run', or name the ones you want:")
	if names := checks.Names(); len(names) > 0 {
		printer.Println("  novacheck run " + names[0])
	}
	return nil
}

// runCmd executes the suite against the configured cloud.
var runCmd = &cobra.Command{
	Use:   "run [check...]",
	Short: "Run checks against the configured compute API",
	Long: `Run the named checks, or every registered check when none are named.

Each check provisions what it needs, exercises one server lifecycle
scenario, and deletes everything it created before the next check
starts. A check whose requirements the configuration does not meet is
skipped, not failed.

The command exits non-zero if any check fails.`,
	Example: `  # Run the full suite
  novacheck run

  # Run a single check
  novacheck run suspend-resume-sequence

  # Run against a different cloud without editing the config
  NOVACHECK_ENDPOINT=https://nova.example/v2.1 NOVACHECK_TOKEN=... novacheck run`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadSuiteConfig()
	if err != nil {
		return err
	}

	selected, err := checks.Select(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printer := ui.NewPrinter(nil)
	printer.PrintHeader(
		"Compute API Check Suite",
		"novacheck run",
		ui.Param{Key: "Endpoint", Value: cfg.Compute.Endpoint},
		ui.Param{Key: "Checks", Value: strconv.Itoa(len(selected))},
		ui.Param{Key: "Build timeout", Value: cfg.Compute.BuildTimeoutDuration().String()},
	)

	names := make([]string, len(selected))
	for i, c := range selected {
		names[i] = c.Name
	}
	progress := ui.NewProgress(names)

	env := checks.NewEnv(cfg)
	runner := checks.NewRunner(env)

	start := time.Now()
	results := make([]checks.Result, 0, len(selected))
	for i, c := range selected {
		progress.Start(i + 1)
		printer.Print(progress.RenderStepLine(i+1) + "\r")

		res := runner.Run(ctx, []checks.Check{c})[0]
		results = append(results, res)

		progress.Update(i+1, stepStatus(res.Status), stepNote(res))
		printer.Println(progress.RenderStepLine(i + 1))

		if ctx.Err() != nil {
			break
		}
	}
	duration := time.Since(start).Round(time.Millisecond)

	printer.Newline()
	summary := checks.Summarize(results)

	switch {
	case summary.Failed > 0:
		result := ui.NewFailureResult(
			"Check suite failed",
			fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Total),
			[]string{
				"Inspect the failure lines above for the first broken assertion",
				"Re-run the failing check alone: novacheck run <name>",
				"Raise compute.build_timeout if servers were still building",
				"Set --log-level debug to see every API request and response",
			},
		)
		for _, r := range results {
			if r.Status == checks.StatusFailed {
				result.AddFailure(fmt.Sprintf("%s: %v", r.Name, r.Err))
			}
		}
		result.AddDetail("Duration", duration.String())
		printer.PrintResult(result)
		return fmt.Errorf("%d of %d checks failed", summary.Failed, summary.Total)

	case summary.Passed == 0:
		result := ui.NewWarningResult(
			"No checks ran",
			ui.Param{Key: "Skipped", Value: strconv.Itoa(summary.Skipped)},
			ui.Param{Key: "Duration", Value: duration.String()},
			ui.Param{Key: "Hint", Value: "enable features in the config or pick different checks"},
		)
		printer.PrintResult(result)
		return nil

	default:
		result := ui.NewSuccessResult(
			"Check suite passed",
			ui.Param{Key: "Passed", Value: strconv.Itoa(summary.Passed)},
			ui.Param{Key: "Skipped", Value: strconv.Itoa(summary.Skipped)},
			ui.Param{Key: "Duration", Value: duration.String()},
		)
		printer.PrintResult(result)
		return nil
	}
}

// stepStatus maps a check outcome onto a progress step state.
func stepStatus(s checks.Status) ui.StepStatus {
	switch s {
	case checks.StatusPassed:
		return ui.StepPassed
	case checks.StatusFailed:
		return ui.StepFailed
	case checks.StatusSkipped:
		return ui.StepSkipped
	default:
		return ui.StepPending
	}
}

// stepNote picks the annotation shown after a settled step line.
func stepNote(r checks.Result) string {
	switch r.Status {
	case checks.StatusSkipped:
		return r.Reason
	case checks.StatusFailed:
		return r.Duration.Round(time.Millisecond).String()
	default:
		return r.Duration.Round(time.Millisecond).String()
	}
}

// consoleCmd groups the interactive console subcommands.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Connect to a server's serial console",
	Long: `Connect to a serial console over the reduced-framing WebSocket protocol.

The console URL comes from --url, from negotiating one for --server via
the compute API, or from console.url in the config, in that order.`,
}

func init() {
	consoleCmd.PersistentFlags().StringVar(&consoleURL, "url", "", "Console WebSocket URL (skips negotiation)")
	consoleCmd.PersistentFlags().StringVar(&consoleServer, "server", "", "Server ID to negotiate a console for")
	consoleCmd.AddCommand(probeCmd)
	consoleCmd.AddCommand(attachCmd)
}

// probeCmd performs a one-shot console round trip and prints what came back.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Send one line to the console and print the response",
	Long: `Connect to the console, send a newline (or --send), collect up to
--frames response frames and print them. Useful for verifying that a
console endpoint speaks the protocol without opening a session.`,
	Example: `  # Probe a known console URL
  novacheck console probe --url "ws://host:6080/?token=abc"

  # Negotiate a console for an existing server first
  novacheck console probe --server 9aacb03e-...

  # Keep the raw HTTP upgrade response for debugging
  novacheck console probe --url ws://... --show-handshake`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().IntVar(&probeTimeout, "timeout", 10, "Receive timeout in seconds")
	probeCmd.Flags().StringVar(&probeSend, "send", "\r\n", "Bytes to send after connecting")
	probeCmd.Flags().IntVar(&probeFrames, "frames", 4, "Maximum response frames to collect")
	probeCmd.Flags().BoolVar(&showHandshake, "show-handshake", false, "Print the raw HTTP upgrade response")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url, err := resolveConsoleURL(ctx, cfg)
	if err != nil {
		return err
	}
	timeout := time.Duration(probeTimeout) * time.Second

	printer := ui.NewPrinter(nil)
	printer.PrintHeader(
		"Console Probe",
		"novacheck console probe",
		ui.Param{Key: "URL", Value: url},
		ui.Param{Key: "Timeout", Value: timeout.String()},
	)

	client, err := console.Dial(url, console.WithTimeout(timeout))
	if err != nil {
		printer.PrintResult(ui.NewFailureResult("Console probe failed", err, []string{
			"Check that the URL is reachable and starts with ws:// or wss://",
			"Console tokens expire quickly; negotiate a fresh URL with --server",
			"A plain HTTP server answers the upgrade with a non-101 status",
		}))
		return err
	}
	defer client.Close()

	if showHandshake {
		printer.Println(ui.NewRawBox("Handshake response", string(client.HandshakeResponse())).Render())
		printer.Newline()
	}

	if err := client.SendFrame([]byte(probeSend)); err != nil {
		return fmt.Errorf("sending probe: %w", err)
	}

	var output []byte
	frames := 0
	var recvErr error
	for frames < probeFrames {
		payload, err := client.ReceiveFrame()
		if err != nil {
			recvErr = err
			break
		}
		output = append(output, payload...)
		frames++
	}

	if frames == 0 {
		err := recvErr
		if err == nil {
			err = errors.New("no frames requested")
		}
		printer.PrintResult(ui.NewFailureResult("No console output", err, []string{
			"The console may be idle; try --send with a command and a newline",
			"Raise --timeout if the guest is slow to produce output",
		}))
		return err
	}

	printer.Println(ui.NewRawBox("Console output", string(output)).SetMaxLines(20).Render())
	printer.Newline()
	printer.PrintResult(ui.NewSuccessResult(
		"Console probe complete",
		ui.Param{Key: "Frames", Value: strconv.Itoa(frames)},
		ui.Param{Key: "Bytes", Value: strconv.Itoa(len(output))},
	))
	return nil
}

// attachCmd opens an interactive console session.
var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Open an interactive console session",
	Long: `Attach to the console and keep the session open: received frames
scroll in a viewport, typed lines are sent on enter, esc disconnects.`,
	RunE: runAttach,
}

func runAttach(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	url, err := resolveConsoleURL(ctx, cfg)
	if err != nil {
		return err
	}

	// No timeout: the session blocks on reads until the peer closes or
	// the user quits.
	client, err := console.Dial(url)
	if err != nil {
		return fmt.Errorf("dialing console: %w", err)
	}
	defer client.Close()

	return ui.RunSession(client, url)
}

// resolveConsoleURL picks the console endpoint for the console
// subcommands: explicit URL first, then negotiation for a named server,
// then the configured fallback.
func resolveConsoleURL(ctx context.Context, cfg *config.Config) (string, error) {
	if consoleURL != "" {
		return consoleURL, nil
	}
	if consoleServer != "" {
		if err := cfg.Validate(); err != nil {
			return "", fmt.Errorf("negotiating a console needs a valid config: %w", err)
		}
		if err := ensureToken(cfg); err != nil {
			return "", err
		}
		con, err := compute.NewClientFromConfig(cfg).SerialConsoleURL(ctx, consoleServer)
		if err != nil {
			return "", fmt.Errorf("negotiating console for %s: %w", consoleServer, err)
		}
		return con.URL, nil
	}
	if cfg.Console.URL != "" {
		return cfg.Console.URL, nil
	}
	return "", errors.New("no console endpoint: pass --url or --server, or set console.url in the config")
}

// configCmd groups configuration management.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the novacheck configuration file",
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// configInitCmd writes a starter config file.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example config file",
	Long: `Write a commented example configuration to the config path.

The file holds defaults plus placeholders for the endpoint, token and
resource references; edit those before running checks.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing file without asking")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		if !ui.ConfirmOverwrite(path) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := config.WriteExample(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	printer := ui.NewPrinter(nil)
	printer.PrintResult(ui.NewSuccessResult(
		"Configuration written",
		ui.Param{Key: "Path", Value: path},
		ui.Param{Key: "Next", Value: "set compute.endpoint, compute.token, image and flavor refs"},
	))
	return nil
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after merging the file, environment
overrides and defaults. The token is redacted.`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path, err := config.ResolvePath(configPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	shown := *cfg
	if shown.Compute.Token != "" {
		shown.Compute.Token = "<set>"
	}

	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("rendering config: %w", err)
	}

	fmt.Printf("# %s\n%s", path, data)
	return nil
}

// loadSuiteConfig loads and validates the configuration for a suite run,
// prompting for the API token when the terminal allows it.
func loadSuiteConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w (run 'novacheck config init' to start one)", err)
	}
	if err := ensureToken(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureToken fills in the API token from an interactive prompt when the
// config and environment left it empty.
func ensureToken(cfg *config.Config) error {
	if cfg.Compute.Token != "" {
		return nil
	}
	if !ui.IsTerminal() {
		return fmt.Errorf("no API token: set compute.token or %s", config.EnvToken)
	}

	fmt.Fprint(os.Stderr, "API token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}

	cfg.Compute.Token = strings.TrimSpace(string(raw))
	if cfg.Compute.Token == "" {
		return errors.New("empty token")
	}
	return nil
}
