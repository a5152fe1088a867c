package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/ballotboard"
	"github.com/jpalmerr/ballotboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd starts the chart server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the live chart page",
	Long: `Start the BallotBoard chart server.

The server will:
  - Load configuration from the YAML file, if one is given
  - Resolve the ballot server's address once for the vote command
  - Poll the votes endpoint at the configured interval
  - Serve the chart page on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  ballotboard serve -c config.yaml
  ballotboard serve --base-url http://192.168.1.20:8080 --port 9090`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addBoardFlags(serveCmd)
	serveCmd.Flags().Int("port", 0, "dashboard port (overrides config)")
}

// addBoardFlags registers the flags shared by serve and watch.
func addBoardFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file")
	cmd.Flags().String("base-url", "", "ballot server base URL (overrides config)")
	cmd.Flags().Duration("interval", 0, "poll interval (overrides config)")
}

// loadConfig reads the config file named by --config, or the defaults when
// none is given, and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
	} else {
		cfg, err = config.Parse(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if baseURL, _ := cmd.Flags().GetString("base-url"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if interval, _ := cmd.Flags().GetDuration("interval"); interval != 0 {
		cfg.PollInterval = config.Duration(interval)
	}
	if cmd.Flags().Lookup("port") != nil {
		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			cfg.Port = port
		}
	}
	return cfg, nil
}

// newBoard builds a BallotBoard from the command's config and flags.
func newBoard(cmd *cobra.Command, logger *slog.Logger) (*ballotboard.BallotBoard, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	opts := append(config.BuildOptions(cfg), ballotboard.WithLogger(logger))
	bb, err := ballotboard.New(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create BallotBoard: %w", err)
	}
	return bb, cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger(slog.LevelInfo)

	bb, cfg, err := newBoard(cmd, logger)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"base_url", cfg.BaseURL,
		"rows", cfg.Options.Rows,
		"poll_interval", cfg.PollInterval.Duration().String(),
	)

	return runUntilSignal(logger, func(ctx context.Context) error {
		return bb.Start(ctx)
	})
}

// runUntilSignal runs fn with a context cancelled on SIGINT/SIGTERM and waits
// up to shutdownTimeout for it to return.
func runUntilSignal(logger *slog.Logger, fn func(ctx context.Context) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- fn(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
