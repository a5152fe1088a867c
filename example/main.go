package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/ballotboard"
	"github.com/jpalmerr/ballotboard/example/internal/ballot"
)

func main() {
	options := []string{"summer1", "summer2", "summer3"}

	// in-process ballot server with simulated voters
	box := ballot.New(slog.Default(), options...)
	go func() {
		if err := http.ListenAndServe(":9999", box.Handler()); err != nil {
			slog.Error("ballot server error", "error", err)
		}
	}()
	go simulateVoters(box, options)
	time.Sleep(100 * time.Millisecond)

	bb, err := ballotboard.New(
		ballotboard.WithBaseURL("http://localhost:9999"),
		ballotboard.WithOptions(options...),
		ballotboard.WithTitle("Summer Showdown"),
		ballotboard.WithCommand(`curl -X POST -d '{"vote":"summer1"}' http://localhost:9999/api/votes`),
		ballotboard.WithPort(8080),
		ballotboard.WithResultCallback(func(r ballotboard.PollResult) {
			if errors.Is(r.Err, ballotboard.ErrNetwork) {
				slog.Warn("ballot server unreachable", "seq", r.Seq)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create ballotboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   BallotBoard Demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Ballot server on :9999 with simulated voters        ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bb.Start(ctx); err != nil {
		slog.Error("ballotboard error", "error", err)
		os.Exit(1)
	}
}

// simulateVoters casts a vote every 100-400ms, favouring earlier options.
func simulateVoters(box *ballot.Box, options []string) {
	for {
		time.Sleep(time.Duration(100+rand.Intn(300)) * time.Millisecond)
		pick := rand.Intn(len(options)*(len(options)+1)/2)
		for i := range options {
			weight := len(options) - i
			if pick < weight {
				box.Cast(options[i])
				break
			}
			pick -= weight
		}
	}
}
