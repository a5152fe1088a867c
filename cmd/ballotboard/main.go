// Package main is the entry point for the ballotboard CLI.
//
// BallotBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	ballotboard serve -c config.yaml    # Serve the live chart page
//	ballotboard watch -c config.yaml    # Draw the chart in the terminal
//	ballotboard validate -c config.yaml # Validate configuration
//	ballotboard version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "ballotboard",
	Short: "A live vote-share chart for a ballot server",
	Long: `BallotBoard polls a ballot server's /api/votes endpoint and shows each
option's share of the vote as a live bar chart.

Quick start:
  1. Run a ballot server (or: go run ./example/cmd/mockballot)
  2. Run: ballotboard serve --base-url http://localhost:8080 --port 9090
  3. Open http://localhost:9090 in your browser

Example config:
  base_url: http://${BALLOT_HOST:-localhost}:8080
  poll_interval: 500ms
  options: [summer1, summer2]
  command: curl -X POST -d '{"vote":"summer1"}' http://localhost:8080/api/votes`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this ballotboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "ballotboard %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
