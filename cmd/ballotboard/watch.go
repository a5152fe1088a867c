package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

// watchCmd draws the chart in the terminal instead of serving it.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Draw the live chart in the terminal",
	Long: `Poll the ballot server and redraw the vote-share chart in the terminal
after every snapshot.

Only warnings and errors are logged, to stderr, so the chart on stdout stays
readable. Press Ctrl+C to stop.

Example:
  ballotboard watch --base-url http://192.168.1.20:8080
  ballotboard watch -c config.yaml --interval 1s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addBoardFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger(slog.LevelWarn)

	bb, _, err := newBoard(cmd, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return runUntilSignal(logger, func(ctx context.Context) error {
		return bb.Watch(ctx, out)
	})
}
