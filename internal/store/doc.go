// Package store holds the in-memory chart table that polls render into.
//
// This package is internal to BallotBoard. A [Table] is a fixed set of
// [DisplayRow] slots addressed by index, plus a single command line of text.
// Writes are staged until [Table.Flush] commits them as one frame, so readers
// and subscribers only ever see whole snapshots. Each committed frame is
// published to subscribers, letting the dashboard server push it to connected
// browsers.
//
// The main components are:
//
//   - [Store]: Interface the HTTP server reads from and subscribes to
//   - [Table]: Fixed-size, concurrency-safe implementation of Store
//   - [DisplayRow]: One addressable row of the chart
//   - [View]: A committed frame of the whole table
//
// Subscribers receive frames via buffered channels with non-blocking sends
// (slow subscribers miss frames rather than stall a poll).
package store
