// Novacheck is a check suite for OpenStack-style compute APIs.
//
// It boots disposable servers and drives them through the lifecycle
// transitions that tend to break between releases: resize with a
// volume-backed root disk, repeated suspend/resume, shelve with offload,
// rejected live migrations, and serial console negotiation over the
// reduced WebSocket framing console endpoints speak.
//
// Usage:
//
//	novacheck [command] [flags]
//
// See 'novacheck --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/novacheck/novacheck/internal/logging"
	"github.com/novacheck/novacheck/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "novacheck",
	Short: "Compute API check suite",
	Long: `A check suite for OpenStack-style compute APIs.

Novacheck provisions short-lived servers against a configured endpoint and
verifies lifecycle transitions: volume-backed resize, suspend/resume,
shelve/unshelve, live migration rejection, and serial console sessions.

Configure the target cloud with 'novacheck config init', then 'novacheck
run' to execute the suite. Checks whose requirements the cloud does not
meet are skipped, not failed.`,
	Version:      version.Version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(logLevel)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("novacheck %s (commit: %s)\n", version.Version, version.Commit)
	},
}
