// Package ballotboard displays the live vote share of a ballot server.
//
// A BallotBoard polls the server's votes endpoint on a fixed cadence, computes
// each option's percentage of the total and writes label, bar size and
// percentage text into the rows of a chart. The chart is either served as a
// live web page ([BallotBoard.Start]) or drawn to a terminal
// ([BallotBoard.Watch]).
//
// # Quick Start
//
//	bb, _ := ballotboard.New(
//	    ballotboard.WithBaseURL("http://192.168.1.20:8080"),
//	    ballotboard.WithOptions("summer1", "summer2"),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	bb.Start(ctx) // blocks until context is cancelled
//
// # Polling
//
// The votes endpoint must answer with an ordered list of [label, count]
// pairs:
//
//	{"votes": [["summer1", 3], ["summer2", 1]]}
//
// Each poll is independent. A slow response does not hold back the next
// tick, and when responses arrive out of order the last one to arrive is
// drawn unless [WithDiscardStale] is set. A failed poll is logged and leaves
// the chart showing the previous snapshot.
//
// Failures are reported to [WithResultCallback] as a *[PollError] whose kind
// is one of [NetworkError], [HTTPStatusError], [DecodeError] or
// [RenderError].
//
// # Command Address
//
// [WithCommand] sets a vote command shown under the chart, typically a curl
// invocation written against localhost. On start the system endpoint is
// asked once for the server's address and the first "localhost" in the
// command is replaced with it.
//
// # Architecture
//
//   - internal/tally: share and percentage computation
//   - internal/poller: HTTP client, response decoding and the vote poller
//   - internal/store: the chart table with pub/sub for live updates
//   - internal/server: HTTP server with the chart page, JSON API and Server-Sent Events
//   - internal/terminal: terminal chart rendering
//   - dashboard: embedded chart page
package ballotboard
