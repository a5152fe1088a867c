package ballotboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/ballotboard/dashboard"
	"github.com/jpalmerr/ballotboard/internal/poller"
	"github.com/jpalmerr/ballotboard/internal/server"
	"github.com/jpalmerr/ballotboard/internal/store"
	"github.com/jpalmerr/ballotboard/internal/terminal"
)

const (
	defaultBaseURL    = "http://localhost:8080"
	defaultVotesPath  = "/api/votes"
	defaultSystemPath = "/api/system"
	defaultPort       = 8080
	defaultRows       = 2
)

// commandSurface is a surface that can also show the vote command.
type commandSurface interface {
	poller.Surface
	SetCommand(command string)
}

// BallotBoard polls a ballot server and displays each option's share of the vote.
//
// It is created using [New] with functional options and run with either
// [BallotBoard.Start], which serves a live chart page over HTTP, or
// [BallotBoard.Watch], which draws the chart to a terminal.
//
//	bb, err := ballotboard.New(
//	    ballotboard.WithBaseURL("http://ballot.local:8080"),
//	    ballotboard.WithOptions("summer1", "summer2"),
//	)
//	if err != nil {
//	    slog.Error("failed to create ballotboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	bb.Start(ctx) // blocks until context cancelled
type BallotBoard struct {
	title           string
	votesURL        string
	systemURL       string
	votesField      string
	labels          []string
	command         string
	headers         map[string]string
	pollingInterval time.Duration
	timeout         time.Duration
	discardStale    bool
	port            int
	logger          *slog.Logger
	resultCallbacks []func(PollResult)
}

// New creates a new [BallotBoard] with the given options.
//
// Defaults:
//   - Base URL: http://localhost:8080
//   - Votes path: /api/votes, system path: /api/system
//   - Polling interval: 500ms
//   - Request timeout: 10s
//   - Two unlabelled display rows
//   - Port: 8080
//
// Returns an error if any option is invalid.
func New(opts ...Option) (*BallotBoard, error) {
	cfg := &bbConfig{
		baseURL:         defaultBaseURL,
		votesPath:       defaultVotesPath,
		systemPath:      defaultSystemPath,
		votesField:      poller.DefaultVotesPath,
		rows:            defaultRows,
		headers:         map[string]string{},
		pollingInterval: poller.DefaultInterval,
		timeout:         poller.DefaultTimeout,
		port:            defaultPort,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	votesURL, err := url.JoinPath(cfg.baseURL, cfg.votesPath)
	if err != nil {
		return nil, fmt.Errorf("invalid votes path %q: %w", cfg.votesPath, err)
	}
	systemURL, err := url.JoinPath(cfg.baseURL, cfg.systemPath)
	if err != nil {
		return nil, fmt.Errorf("invalid system path %q: %w", cfg.systemPath, err)
	}

	labels := cfg.labels
	if labels == nil {
		labels = make([]string, cfg.rows)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BallotBoard{
		title:           cfg.title,
		votesURL:        votesURL,
		systemURL:       systemURL,
		votesField:      cfg.votesField,
		labels:          labels,
		command:         cfg.command,
		headers:         cfg.headers,
		pollingInterval: cfg.pollingInterval,
		timeout:         cfg.timeout,
		discardStale:    cfg.discardStale,
		port:            cfg.port,
		logger:          logger,
		resultCallbacks: cfg.resultCallbacks,
	}, nil
}

// Start polls the ballot server and serves the live chart page.
//
// Start is a blocking call that runs until ctx is cancelled:
//
//   - The command template is shown, then its "localhost" is replaced once
//     with the address the ballot server reports
//   - Votes are polled immediately, then at the configured interval
//   - The chart is available at http://localhost:<port>
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails to start.
func (bb *BallotBoard) Start(ctx context.Context) error {
	bb.logger.Info("ballotboard starting", "votes_url", bb.votesURL, "rows", len(bb.labels))
	bb.logger.Info("polling configured", "interval", bb.pollingInterval.String())
	bb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", bb.port))

	if ctx.Err() != nil {
		return nil
	}

	table := store.NewTable(bb.labels)

	httpServer := server.NewServer(table, bb.port, dashboard.Assets, bb.title, bb.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	bb.run(ctx, table)
	bb.logger.Info("ballotboard stopped")
	return nil
}

// Watch polls the ballot server and redraws the chart on out after every
// snapshot. It blocks until ctx is cancelled and always returns nil.
func (bb *BallotBoard) Watch(ctx context.Context, out io.Writer) error {
	if ctx.Err() != nil {
		return nil
	}

	title := bb.title
	if title == "" {
		title = "BallotBoard"
	}
	renderer := terminal.New(out, bb.labels,
		terminal.WithTitle(title),
		terminal.WithClearScreen(true),
	)
	if err := renderer.Flush(); err != nil {
		return fmt.Errorf("failed to draw chart: %w", err)
	}

	bb.run(ctx, renderer)
	return nil
}

// run drives the address lookup and the vote poller into surface until ctx
// is cancelled.
func (bb *BallotBoard) run(ctx context.Context, surface commandSurface) {
	if bb.command != "" {
		bb.showCommand(surface, bb.command)
	}

	vp := poller.NewVotePoller(poller.Config{
		URL:          bb.votesURL,
		Headers:      bb.headers,
		Timeout:      bb.timeout,
		Interval:     bb.pollingInterval,
		VotesPath:    bb.votesField,
		DiscardStale: bb.discardStale,
	}, surface, bb.logger, bb.dispatch)

	var wg sync.WaitGroup
	if bb.command != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bb.substituteAddress(ctx, surface, vp)
		}()
	}
	vp.Start(ctx)

	<-ctx.Done()
	vp.Stop()
	wg.Wait()
}

// substituteAddress resolves the ballot server's address once and rewrites
// the displayed command. On failure the template stays as it is.
func (bb *BallotBoard) substituteAddress(ctx context.Context, surface commandSurface, vp *poller.VotePoller) {
	client := poller.NewClient()
	defer client.Close()

	address, err := client.ResolveAddress(ctx, bb.systemURL, bb.headers, bb.timeout)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		bb.logger.Warn("address lookup failed",
			"url", bb.systemURL,
			"kind", poller.KindOf(err).String(),
			"error", err.Error(),
		)
		return
	}

	command := poller.SubstituteAddress(bb.command, address)
	vp.Draw(func() { bb.showCommand(surface, command) })
	bb.logger.Debug("command address substituted", "address", address)
}

// showCommand sets the displayed command and redraws surfaces that draw
// whole frames, so the command is visible before any snapshot arrives.
func (bb *BallotBoard) showCommand(surface commandSurface, command string) {
	surface.SetCommand(command)
	f, ok := surface.(poller.Flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		bb.logger.Warn("failed to draw command", "error", err.Error())
	}
}

// dispatch hands a poll result to every registered callback.
func (bb *BallotBoard) dispatch(r poller.Result) {
	if len(bb.resultCallbacks) == 0 {
		return
	}
	result := toPublicResult(r)
	for _, cb := range bb.resultCallbacks {
		invokeCallbackSafe(cb, result, bb.logger)
	}
}

// Labels returns a copy of the display row labels.
func (bb *BallotBoard) Labels() []string {
	cp := make([]string, len(bb.labels))
	copy(cp, bb.labels)
	return cp
}

// VotesURL returns the full URL that is polled for votes.
func (bb *BallotBoard) VotesURL() string {
	return bb.votesURL
}

// SystemURL returns the full URL queried for the server address.
func (bb *BallotBoard) SystemURL() string {
	return bb.systemURL
}

// Port returns the configured HTTP port for the dashboard server.
func (bb *BallotBoard) Port() int {
	return bb.port
}

// PollingInterval returns the configured interval between polls.
func (bb *BallotBoard) PollingInterval() time.Duration {
	return bb.pollingInterval
}

// invokeCallbackSafe calls a result callback with panic recovery.
// Panics are logged with a correlation ID and the stack; they do not propagate.
func invokeCallbackSafe(cb func(PollResult), result PollResult, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("result callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"seq", result.Seq,
				"stack", string(debug.Stack()),
			)
		}
	}()
	cb(result)
}
