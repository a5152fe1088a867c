package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/ballotboard"
	"github.com/jpalmerr/ballotboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a BallotBoard configuration file without starting the server.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  ballotboard validate -c config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	bb, err := ballotboard.New(config.BuildOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:          %d\n", bb.Port())
	fmt.Fprintf(out, "  Poll interval: %s\n", bb.PollingInterval())
	fmt.Fprintf(out, "  Votes URL:     %s\n", bb.VotesURL())
	fmt.Fprintf(out, "  System URL:    %s\n", bb.SystemURL())
	fmt.Fprintf(out, "  Rows:          %d\n", len(bb.Labels()))

	return nil
}
