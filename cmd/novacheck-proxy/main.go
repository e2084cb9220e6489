// Novacheck-proxy is a websockify-style console proxy for local development
// and testing.
//
// It terminates WebSocket console sessions the way a cloud serial console
// endpoint does: HTTP upgrade on /websockify, token authentication, binary
// framing. Sessions are bridged either to a built-in fake serial port or to
// a TCP backend.
//
// Usage:
//
//	novacheck-proxy serve [flags]
//
// See 'novacheck-proxy serve --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/novacheck/novacheck/internal/proxy"
	"github.com/novacheck/novacheck/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "novacheck-proxy",
	Short: "Console proxy for novacheck",
	Long: `A standalone websockify-style proxy that serves WebSocket console
sessions over /websockify.

Use it to demo or test console clients without a cloud: the built-in fake
serial backend greets with a banner and echoes input, or point --backend at
any TCP service to bridge raw bytes.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

// Serve command and flags
var (
	addr     string
	token    string
	backend  string
	banner   string
	logLevel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the console proxy",
	Long: `Start the console proxy and serve WebSocket sessions until
interrupted.

With --token set, sessions must present the token in the URL query or the
Cookie header; without it, every session is accepted.`,
	Example: `  # Serve the fake serial console without authentication
  novacheck-proxy serve

  # Require a session token and log frames
  novacheck-proxy serve --token secret --log-level debug

  # Bridge sessions to a TCP service
  novacheck-proxy serve --backend 127.0.0.1:7000`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:6080", "Listen address")
	serveCmd.Flags().StringVar(&token, "token", "", "Session token (empty disables authentication)")
	serveCmd.Flags().StringVar(&backend, "backend", "", "TCP backend address (empty serves the built-in fake serial)")
	serveCmd.Flags().StringVar(&banner, "banner", "", "Fake serial banner (default built in)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := &proxy.Config{
		Addr:     addr,
		Token:    token,
		Backend:  backend,
		Banner:   banner,
		LogLevel: logLevel,
	}

	return proxy.New(config).Start()
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("novacheck-proxy %s (commit: %s)\n", version.Version, version.Commit)
	},
}
