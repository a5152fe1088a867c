// Standalone ballot server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockballot            # listens on :8080
//	go run ./example/cmd/mockballot :9999
//
// Then in another terminal:
//
//	go run ./cmd/ballotboard watch --base-url http://localhost:8080
//	curl -X POST -d '{"vote":"summer1"}' http://localhost:8080/api/votes
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/ballotboard/example/internal/ballot"
)

func main() {
	addr := ":8080"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	box := ballot.New(logger, "summer1", "summer2")

	fmt.Printf("Ballot server starting on %s\n", addr)
	fmt.Println("Options: summer1, summer2 (one vote per second per address)")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if err := http.ListenAndServe(addr, box.Handler()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
